// Package session owns the conversational state of one open chat drawer:
// the append-only message log, the single-flight query and feedback gates,
// and the one-time introduction sequence. A Session is exclusively owned
// by one logical caller and is discarded when the conversation view
// closes; nothing here persists.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portal-genie/internal/domain"
)

const (
	greetingText = "👋 Hey there! I'm PAR Genie. Ask me anything about your Admin Portal."
	failureText  = "Sorry, I could not reach the service."
	noAnswerText = "No matches found."
)

var (
	// ErrBusy rejects a submission while a prior query awaits its reply.
	// No upstream call is made for the rejected submission.
	ErrBusy = errors.New("session: a query is already in flight")
	// ErrFeedbackBusy rejects a feedback click while another is in flight,
	// so a rapid up-then-down cannot emit two conflicting verdicts.
	ErrFeedbackBusy = errors.New("session: feedback is already in flight")
	// ErrNoAnswer means no match-list answer exists to judge.
	ErrNoAnswer = errors.New("session: no match list to give feedback on")
	// ErrEmptyQuery rejects input that is empty after trimming.
	ErrEmptyQuery = errors.New("session: query is empty")
)

// Gateway is the boundary the session talks to. Implemented by the portal
// client; any in-process equivalent with the same semantics works too.
type Gateway interface {
	Ask(ctx context.Context, q domain.Query) (domain.NormalizedAnswer, error)
	SubmitFeedback(ctx context.Context, ev domain.FeedbackEvent) error
}

// stopper abstracts *time.Timer so tests can fire transitions by hand.
type stopper interface {
	Stop() bool
}

// Session is the per-drawer state machine. All fields are guarded by mu;
// gateway calls happen outside the lock so reads and drawer lifecycle
// never block behind an in-flight request.
type Session struct {
	mu sync.Mutex

	id string
	gw Gateway

	messages    []domain.Message
	nextOrdinal int

	awaiting         bool
	feedbackInFlight bool

	// most recent match-list answer, for feedback binding
	lastMatchQuery string
	lastMatchIDs   []string

	phase    Phase
	open     bool
	timer    stopper
	timerGen uint64
	onPhase  func(Phase)
	after    func(d time.Duration, f func()) stopper
}

// New creates a Session bound to the given gateway. The log is seeded with
// the system greeting at ordinal 0 and the introduction is left pending
// until the drawer first opens.
func New(gw Gateway) (*Session, error) {
	if gw == nil {
		return nil, errors.New("session: gateway must not be nil")
	}
	s := &Session{
		id:    uuid.NewString(),
		gw:    gw,
		phase: PhasePending,
		after: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
	}
	s.append(domain.RoleSystem, greetingText, nil)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// append assigns the next ordinal and grows the log. Callers hold mu,
// except New which has no concurrent readers yet.
func (s *Session) append(role domain.Role, text string, answer *domain.NormalizedAnswer) {
	s.messages = append(s.messages, domain.Message{
		Role:    role,
		Ordinal: s.nextOrdinal,
		Text:    text,
		Answer:  answer,
	})
	s.nextOrdinal++
}

// Submit sends one query through the gateway. While a prior query awaits
// its reply the submission is rejected with ErrBusy and no upstream call
// is made. Every accepted submission appends the user message, then —
// whatever the outcome — exactly one assistant message, so the
// conversation never stalls silently.
func (s *Session) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuery
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.awaiting = true
	s.append(domain.RoleUser, text, nil)
	s.mu.Unlock()

	answer, err := s.gw.Ask(ctx, domain.Query{Text: text, Limit: domain.DefaultLimit})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = false

	if err != nil {
		s.append(domain.RoleAssistant, failureText, nil)
		return err
	}

	switch answer.Kind {
	case domain.AnswerMatchList:
		s.lastMatchQuery = text
		s.lastMatchIDs = answer.MatchIDs()
		s.append(domain.RoleAssistant, "", &answer)
	case domain.AnswerItemAction:
		s.append(domain.RoleAssistant, "", &answer)
	case domain.AnswerPlainMessage:
		s.append(domain.RoleAssistant, answer.Text, &answer)
	default:
		s.append(domain.RoleAssistant, noAnswerText, &answer)
	}
	return nil
}

// Feedback submits a verdict against the most recent match-list answer.
// At most one feedback call is in flight at a time; a second click while
// one is pending is rejected with ErrFeedbackBusy. A delivery failure is
// returned to the caller and leaves the conversation untouched.
func (s *Session) Feedback(ctx context.Context, v domain.Verdict) error {
	s.mu.Lock()
	if s.feedbackInFlight {
		s.mu.Unlock()
		return ErrFeedbackBusy
	}
	if s.lastMatchIDs == nil {
		s.mu.Unlock()
		return ErrNoAnswer
	}
	s.feedbackInFlight = true
	ev := domain.FeedbackEvent{
		Query:    s.lastMatchQuery,
		MatchIDs: append([]string(nil), s.lastMatchIDs...),
		Verdict:  v,
	}
	s.mu.Unlock()

	err := s.gw.SubmitFeedback(ctx, ev)

	s.mu.Lock()
	s.feedbackInFlight = false
	s.mu.Unlock()
	return err
}

// Messages returns a snapshot of the conversation log.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

// Awaiting reports whether a query is in flight. The transient loading
// indicator is derived from this; it is never part of the message log.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// FeedbackInFlight reports whether a feedback call is in flight.
func (s *Session) FeedbackInFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedbackInFlight
}
