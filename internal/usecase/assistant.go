package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"portal-genie/internal/domain"
	"portal-genie/internal/integrations/intelligence"
	"portal-genie/internal/normalize"
)

// IntelligenceClient issues one request per call to the backing service.
type IntelligenceClient interface {
	Ask(ctx context.Context, query string, topK int) (domain.RawResult, error)
	Feedback(ctx context.Context, ev domain.FeedbackEvent) (json.RawMessage, error)
}

// FeedbackRecorder persists a best-effort audit copy of forwarded feedback.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, ev domain.FeedbackEvent) error
}

// AssistantService composes the intelligence client and the normalizer
// behind the gateway's two operations.
type AssistantService struct {
	client   IntelligenceClient
	recorder FeedbackRecorder
	log      *slog.Logger
}

// FeedbackResult carries the upstream's reply body back to the boundary.
type FeedbackResult struct {
	Result json.RawMessage
}

// NewAssistantService creates the service. recorder may be nil to disable
// the audit log; log may be nil to use the default logger.
func NewAssistantService(client IntelligenceClient, recorder FeedbackRecorder, log *slog.Logger) (*AssistantService, error) {
	if client == nil {
		return nil, errors.New("usecase: intelligence client must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &AssistantService{client: client, recorder: recorder, log: log}, nil
}

// Ask forwards one query upstream and classifies the reply. A transport
// failure comes back as ErrorUpstream, never folded into an Empty answer;
// an Empty answer is a valid result, not an error.
func (s *AssistantService) Ask(ctx context.Context, q domain.Query) (domain.NormalizedAnswer, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return domain.NormalizedAnswer{}, newError(ErrorInvalidQuery, "empty_query", nil)
	}

	raw, err := s.client.Ask(ctx, text, q.EffectiveLimit())
	if err != nil {
		var te *intelligence.TransportError
		if errors.As(err, &te) {
			return domain.NormalizedAnswer{}, newError(ErrorUpstream, "intelligence_unreachable", err)
		}
		return domain.NormalizedAnswer{}, newError(ErrorInternal, "intelligence_error", err)
	}

	return normalize.Normalize(raw), nil
}

// SubmitFeedback forwards one feedback event to the backing service.
// Delivery failure is reported to the caller but is never fatal; the audit
// write is best-effort and never surfaces.
func (s *AssistantService) SubmitFeedback(ctx context.Context, ev domain.FeedbackEvent) (FeedbackResult, error) {
	if !ev.Verdict.Valid() {
		return FeedbackResult{}, newError(ErrorInvalidQuery, "unknown_verdict", nil)
	}
	if strings.TrimSpace(ev.Query) == "" {
		return FeedbackResult{}, newError(ErrorInvalidQuery, "empty_query", nil)
	}

	result, err := s.client.Feedback(ctx, ev)
	if err != nil {
		var te *intelligence.TransportError
		if errors.As(err, &te) {
			return FeedbackResult{}, newError(ErrorFeedbackDelivery, "feedback_forward_failed", err)
		}
		return FeedbackResult{}, newError(ErrorInternal, "feedback_error", err)
	}

	if s.recorder != nil {
		if recErr := s.recorder.RecordFeedback(ctx, ev); recErr != nil {
			s.log.Warn("feedback audit write failed", "err", recErr)
		}
	}

	return FeedbackResult{Result: result}, nil
}
