package domain

// Verdict is an operator's judgement of a match-list answer.
type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
)

// Valid reports whether v is one of the two known verdicts.
func (v Verdict) Valid() bool {
	return v == VerdictPositive || v == VerdictNegative
}

// FeedbackEvent is a thumbs-up/down signal tagged with the query it
// answers and the match identifiers it was judged against. The event is
// valid against the match list that was most recent when it was built; the
// system does not reconcile feedback submitted against a stale answer.
type FeedbackEvent struct {
	Query    string   `json:"query"`
	MatchIDs []string `json:"matches"`
	Verdict  Verdict  `json:"feedback"`
}
