package domain

import "encoding/json"

// Match is one ranked candidate report returned for a search-style query.
// Score is a relevance probability as reported upstream; it is forwarded
// unmodified and is not guaranteed to stay inside [0,1].
type Match struct {
	ID          string  `json:"reportId"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Item is a single point-of-sale object the backend read or mutated.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
}

// Known ItemAction verbs. Anything else is treated as ActionUnknown.
const (
	ActionRead    = "read"
	ActionUpdate  = "update"
	ActionUnknown = "unknown"
)

// ItemAction describes a point-of-sale read or update performed by the
// backend on behalf of a query.
type ItemAction struct {
	Action  string `json:"action"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Item    Item   `json:"item"`
}

// Verb returns the action verb folded onto the known set.
func (a ItemAction) Verb() string {
	switch a.Action {
	case ActionRead, ActionUpdate:
		return a.Action
	default:
		return ActionUnknown
	}
}

// AnswerKind discriminates the variants of a NormalizedAnswer.
type AnswerKind string

const (
	AnswerMatchList    AnswerKind = "match_list"
	AnswerItemAction   AnswerKind = "item_action"
	AnswerPlainMessage AnswerKind = "plain_message"
	AnswerEmpty        AnswerKind = "empty"
)

// NormalizedAnswer is the tagged union the gateway guarantees to its
// callers regardless of upstream shape drift. Exactly one variant is
// populated, selected by Kind; use the constructors below rather than
// building literals.
type NormalizedAnswer struct {
	Kind AnswerKind

	// AnswerMatchList
	Matches          []Match
	SuggestedFilters json.RawMessage

	// AnswerItemAction
	Item *ItemAction

	// AnswerPlainMessage
	Text string
}

// MatchListAnswer wraps a ranked match list. The slice order is preserved
// as received; this layer never re-sorts.
func MatchListAnswer(matches []Match, suggestedFilters json.RawMessage) NormalizedAnswer {
	return NormalizedAnswer{Kind: AnswerMatchList, Matches: matches, SuggestedFilters: suggestedFilters}
}

// ItemActionAnswer wraps a single point-of-sale action result.
func ItemActionAnswer(a ItemAction) NormalizedAnswer {
	return NormalizedAnswer{Kind: AnswerItemAction, Item: &a}
}

// PlainMessageAnswer wraps a plain reply string.
func PlainMessageAnswer(text string) NormalizedAnswer {
	return NormalizedAnswer{Kind: AnswerPlainMessage, Text: text}
}

// EmptyAnswer marks the absence of an applicable answer. This is a valid
// terminal classification, not a failure.
func EmptyAnswer() NormalizedAnswer {
	return NormalizedAnswer{Kind: AnswerEmpty}
}

// MatchIDs returns the identifiers of the ranked matches, in order.
// It returns nil for any other variant.
func (a NormalizedAnswer) MatchIDs() []string {
	if a.Kind != AnswerMatchList {
		return nil
	}
	ids := make([]string, 0, len(a.Matches))
	for _, m := range a.Matches {
		ids = append(ids, m.ID)
	}
	return ids
}
