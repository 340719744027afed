// Package handler adapts API Gateway proxy events onto the assistant
// service. It owns routing, status mapping and correlation IDs; all
// interpretation of the query itself lives below the boundary.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"portal-genie/internal/domain"
	"portal-genie/internal/usecase"
)

// emptyAnswerText is what an Empty classification renders as. Absence of
// an answer is not a failure, so this ships in a 200.
const emptyAnswerText = "No information available."

// Assistant is the gateway surface consumed by the handler.
type Assistant interface {
	Ask(ctx context.Context, q domain.Query) (domain.NormalizedAnswer, error)
	SubmitFeedback(ctx context.Context, ev domain.FeedbackEvent) (usecase.FeedbackResult, error)
}

type askRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type matchListResponse struct {
	Query            string          `json:"query"`
	Matches          []domain.Match  `json:"matches"`
	SuggestedFilters json.RawMessage `json:"suggestedFilters,omitempty"`
}

type itemActionResponse struct {
	Status  string      `json:"status"`
	Action  string      `json:"action"`
	Message string      `json:"message"`
	Item    domain.Item `json:"item"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type feedbackRequest struct {
	Query    string   `json:"query"`
	Matches  []string `json:"matches"`
	Feedback string   `json:"feedback"`
}

type feedbackResponse struct {
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler routes POST /assistant and POST /feedback.
type Handler struct {
	svc Assistant
	log *slog.Logger
}

// NewHandler creates a Handler backed by the given assistant service.
func NewHandler(svc Assistant) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: assistant service must not be nil")
	}
	return &Handler{svc: svc, log: slog.Default()}, nil
}

// Handle dispatches one proxy event. It never returns a non-nil error to
// the Lambda runtime; every failure becomes a JSON error body so the
// client sees a status code rather than an invocation fault.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	corrID := correlationID(event.Headers)

	defer func() {
		if r := recover(); r != nil {
			h.log.Error("panic in handler", "recovered", r, "correlation_id", corrID)
			resp = respond(http.StatusInternalServerError, errorResponse{
				Error:   string(usecase.ErrorInternal),
				Details: "unexpected internal failure",
			}, corrID)
			err = nil
		}
	}()

	if event.HTTPMethod != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed"}, corrID), nil
	}

	switch {
	case strings.HasSuffix(event.Path, "/assistant"):
		return h.handleAssistant(ctx, event, corrID), nil
	case strings.HasSuffix(event.Path, "/feedback"):
		return h.handleFeedback(ctx, event, corrID), nil
	default:
		return respond(http.StatusNotFound, errorResponse{Error: "not_found"}, corrID), nil
	}
}

func (h *Handler) handleAssistant(ctx context.Context, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var req askRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, errorResponse{
			Error:   string(usecase.ErrorInvalidQuery),
			Details: "request body is not valid JSON",
		}, corrID)
	}

	answer, err := h.svc.Ask(ctx, domain.Query{Text: req.Query, Limit: req.Limit})
	if err != nil {
		return h.errorReply(err, corrID)
	}

	switch answer.Kind {
	case domain.AnswerMatchList:
		return respond(http.StatusOK, matchListResponse{
			Query:            strings.TrimSpace(req.Query),
			Matches:          answer.Matches,
			SuggestedFilters: answer.SuggestedFilters,
		}, corrID)
	case domain.AnswerItemAction:
		return respond(http.StatusOK, itemActionResponse{
			Status:  answer.Item.Status,
			Action:  answer.Item.Action,
			Message: answer.Item.Message,
			Item:    answer.Item.Item,
		}, corrID)
	case domain.AnswerPlainMessage:
		return respond(http.StatusOK, messageResponse{Message: answer.Text}, corrID)
	default:
		return respond(http.StatusOK, messageResponse{Message: emptyAnswerText}, corrID)
	}
}

func (h *Handler) handleFeedback(ctx context.Context, event events.APIGatewayProxyRequest, corrID string) events.APIGatewayProxyResponse {
	var req feedbackRequest
	if err := json.Unmarshal([]byte(event.Body), &req); err != nil {
		return respond(http.StatusBadRequest, errorResponse{
			Error:   string(usecase.ErrorInvalidQuery),
			Details: "request body is not valid JSON",
		}, corrID)
	}

	result, err := h.svc.SubmitFeedback(ctx, domain.FeedbackEvent{
		Query:    req.Query,
		MatchIDs: req.Matches,
		Verdict:  domain.Verdict(req.Feedback),
	})
	if err != nil {
		return h.errorReply(err, corrID)
	}

	return respond(http.StatusOK, feedbackResponse{Message: "Feedback forwarded", Result: result.Result}, corrID)
}

// errorReply maps usecase error codes onto HTTP statuses. Diagnostic
// detail stays at reason granularity; raw errors never reach the client.
func (h *Handler) errorReply(err error, corrID string) events.APIGatewayProxyResponse {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		h.log.Error("unexpected handler error", "err", err, "correlation_id", corrID)
		return respond(http.StatusInternalServerError, errorResponse{
			Error:   string(usecase.ErrorInternal),
			Details: "unexpected internal failure",
		}, corrID)
	}

	status := http.StatusInternalServerError
	switch ue.Code {
	case usecase.ErrorInvalidQuery:
		status = http.StatusBadRequest
	case usecase.ErrorUpstream, usecase.ErrorFeedbackDelivery:
		status = http.StatusBadGateway
	}
	return respond(status, errorResponse{Error: string(ue.Code), Details: ue.Reason}, corrID)
}

func respond(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		// Marshal of our own response types only fails on programmer error.
		raw = []byte(`{"error":"INTERNAL_ERROR"}`)
		status = http.StatusInternalServerError
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":     "application/json",
			"X-Correlation-Id": corrID,
		},
		Body: string(raw),
	}
}

// correlationID echoes the caller's ID header (any casing) or mints one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "x-correlation-id") && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
