package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"portal-genie/internal/domain"
	"portal-genie/internal/integrations/intelligence"
)

type mockClient struct {
	raw       domain.RawResult
	askErr    error
	askCalls  int
	gotQuery  string
	gotTopK   int
	fbResult  json.RawMessage
	fbErr     error
	fbCalls   int
	gotEvent  domain.FeedbackEvent
}

func (m *mockClient) Ask(_ context.Context, query string, topK int) (domain.RawResult, error) {
	m.askCalls++
	m.gotQuery = query
	m.gotTopK = topK
	return m.raw, m.askErr
}

func (m *mockClient) Feedback(_ context.Context, ev domain.FeedbackEvent) (json.RawMessage, error) {
	m.fbCalls++
	m.gotEvent = ev
	return m.fbResult, m.fbErr
}

type mockRecorder struct {
	err   error
	calls int
	got   domain.FeedbackEvent
}

func (m *mockRecorder) RecordFeedback(_ context.Context, ev domain.FeedbackEvent) error {
	m.calls++
	m.got = ev
	return m.err
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var ue *Error
	require.ErrorAs(t, err, &ue)
	require.Equal(t, code, ue.Code)
}

func TestNewAssistantService_NilClient(t *testing.T) {
	_, err := NewAssistantService(nil, nil, nil)
	require.Error(t, err)
}

func TestAsk_TrimsAndForwards(t *testing.T) {
	client := &mockClient{raw: domain.RawResult{Message: "hello"}}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	got, err := svc.Ask(context.Background(), domain.Query{Text: "  refund report  ", Limit: 5})
	require.NoError(t, err)
	require.Equal(t, "refund report", client.gotQuery)
	require.Equal(t, 5, client.gotTopK)
	require.Equal(t, domain.AnswerPlainMessage, got.Kind)
}

func TestAsk_DefaultLimit(t *testing.T) {
	client := &mockClient{}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), domain.Query{Text: "q"})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultLimit, client.gotTopK)
}

func TestAsk_EmptyAfterTrim_NoUpstreamCall(t *testing.T) {
	client := &mockClient{}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), domain.Query{Text: "   "})
	requireCode(t, err, ErrorInvalidQuery)
	require.Zero(t, client.askCalls)
}

func TestAsk_TransportFailure_IsUpstreamNotEmpty(t *testing.T) {
	client := &mockClient{askErr: &intelligence.TransportError{Reason: "request failed", Err: errors.New("dial tcp: refused")}}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	got, err := svc.Ask(context.Background(), domain.Query{Text: "q"})
	requireCode(t, err, ErrorUpstream)
	require.NotEqual(t, domain.AnswerEmpty, got.Kind, "transport failure must not masquerade as an Empty answer")
}

func TestAsk_DecodeFailure_IsInternal(t *testing.T) {
	client := &mockClient{askErr: errors.New("intelligence: decode response: bad json")}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), domain.Query{Text: "q"})
	requireCode(t, err, ErrorInternal)
}

func TestAsk_NormalizesMatchList(t *testing.T) {
	client := &mockClient{raw: domain.RawResult{Matches: []domain.Match{
		{ID: "r-12", Score: 0.91},
		{ID: "r-07", Score: 0.77},
	}}}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	got, err := svc.Ask(context.Background(), domain.Query{Text: "refund report"})
	require.NoError(t, err)
	require.Equal(t, domain.AnswerMatchList, got.Kind)
	require.Equal(t, []string{"r-12", "r-07"}, got.MatchIDs())
}

func TestSubmitFeedback_ForwardsAndRecords(t *testing.T) {
	client := &mockClient{fbResult: json.RawMessage(`{"stored":true}`)}
	rec := &mockRecorder{}
	svc, err := NewAssistantService(client, rec, nil)
	require.NoError(t, err)

	ev := domain.FeedbackEvent{Query: "refund report", MatchIDs: []string{"r-12"}, Verdict: domain.VerdictPositive}
	out, err := svc.SubmitFeedback(context.Background(), ev)
	require.NoError(t, err)
	require.Equal(t, ev, client.gotEvent)
	require.Equal(t, 1, rec.calls)
	require.Equal(t, ev, rec.got)
	require.JSONEq(t, `{"stored":true}`, string(out.Result))
}

func TestSubmitFeedback_UnknownVerdict(t *testing.T) {
	client := &mockClient{}
	svc, err := NewAssistantService(client, nil, nil)
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(context.Background(), domain.FeedbackEvent{Query: "q", Verdict: "meh"})
	requireCode(t, err, ErrorInvalidQuery)
	require.Zero(t, client.fbCalls)
}

func TestSubmitFeedback_DeliveryFailure_IsNonFatalCode(t *testing.T) {
	client := &mockClient{fbErr: &intelligence.TransportError{Reason: "unexpected status"}}
	rec := &mockRecorder{}
	svc, err := NewAssistantService(client, rec, nil)
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(context.Background(), domain.FeedbackEvent{Query: "q", Verdict: domain.VerdictNegative})
	requireCode(t, err, ErrorFeedbackDelivery)
	require.Zero(t, rec.calls, "undelivered feedback must not be recorded as forwarded")
}

func TestSubmitFeedback_RecorderFailure_DoesNotSurface(t *testing.T) {
	client := &mockClient{fbResult: json.RawMessage(`{}`)}
	rec := &mockRecorder{err: errors.New("dynamo down")}
	svc, err := NewAssistantService(client, rec, nil)
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(context.Background(), domain.FeedbackEvent{Query: "q", Verdict: domain.VerdictPositive})
	require.NoError(t, err, "audit write is best-effort")
}
