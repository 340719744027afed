package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"portal-genie/internal/domain"
)

const (
	pkPrefixFeedback = "FB#"
	skPrefixEvent    = "EVT#"
	ttlDuration      = 90 * 24 * time.Hour // 90-day retention for analytics
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client wraps a DynamoDB table as an append-only feedback-event log.
// Writes are best-effort from the caller's perspective: the gateway logs a
// failed write and moves on, it never blocks feedback delivery on it.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// feedbackPK groups events by UTC day for cheap per-day queries.
func feedbackPK(ts time.Time) string {
	return pkPrefixFeedback + ts.UTC().Format("2006-01-02")
}

// eventSK orders events within a day and keeps same-instant writes distinct.
func eventSK(ts time.Time) string {
	return skPrefixEvent + ts.UTC().Format(time.RFC3339Nano) + "#" + uuid.NewString()
}

// RecordFeedback writes one event item with a retention TTL.
func (c *Client) RecordFeedback(ctx context.Context, ev domain.FeedbackEvent) error {
	ts := c.now()

	item := map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: feedbackPK(ts)},
		"SK":      &types.AttributeValueMemberS{Value: eventSK(ts)},
		"Query":   &types.AttributeValueMemberS{Value: ev.Query},
		"Verdict": &types.AttributeValueMemberS{Value: string(ev.Verdict)},
		"TTL":     &types.AttributeValueMemberN{Value: strconv.FormatInt(ts.Add(ttlDuration).Unix(), 10)},
	}
	if len(ev.MatchIDs) > 0 {
		ids := make([]types.AttributeValue, 0, len(ev.MatchIDs))
		for _, id := range ev.MatchIDs {
			ids = append(ids, &types.AttributeValueMemberS{Value: id})
		}
		item["MatchIds"] = &types.AttributeValueMemberL{Value: ids}
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: RecordFeedback put: %w", err)
	}
	return nil
}
