package domain

import "encoding/json"

// RawResult is the wire shape returned by the intelligence service. The
// service answers in one of several shapes and leaves the unused fields
// empty; only the normalization boundary inspects this type. Shared here,
// like the other provider-facing shapes, so both HTTP clients can decode
// into it without re-declaring the contract.
type RawResult struct {
	Query            string          `json:"query,omitempty"`
	Matches          []Match         `json:"matches,omitempty"`
	SuggestedFilters json.RawMessage `json:"suggestedFilters,omitempty"`

	Status  string `json:"status,omitempty"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
	Item    *Item  `json:"item,omitempty"`
}
