// Package normalize classifies the heterogeneous replies of the
// intelligence service into the closed variant set the rest of the system
// consumes. Classification happens exactly once, here; downstream code
// switches on domain.AnswerKind and never re-inspects the raw shape.
package normalize

import "portal-genie/internal/domain"

// Normalize maps a raw upstream reply onto exactly one NormalizedAnswer
// variant. First match wins:
//
//  1. a non-empty ranked match array → AnswerMatchList, order and scores
//     passed through untouched (the upstream service is the ranker);
//  2. an item/action description → AnswerItemAction;
//  3. a plain reply string → AnswerPlainMessage;
//  4. otherwise → AnswerEmpty.
//
// Scores are forwarded unclamped even outside [0,1]; out-of-range values
// are a data-quality concern for the renderer, not something to correct
// silently here.
func Normalize(raw domain.RawResult) domain.NormalizedAnswer {
	if len(raw.Matches) > 0 {
		return domain.MatchListAnswer(raw.Matches, raw.SuggestedFilters)
	}
	if raw.Action != "" || raw.Item != nil {
		action := domain.ItemAction{
			Action:  raw.Action,
			Status:  raw.Status,
			Message: raw.Message,
		}
		if raw.Item != nil {
			action.Item = *raw.Item
		}
		return domain.ItemActionAnswer(action)
	}
	if raw.Message != "" {
		return domain.PlainMessageAnswer(raw.Message)
	}
	return domain.EmptyAnswer()
}
