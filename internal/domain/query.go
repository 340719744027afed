package domain

// DefaultLimit is the number of ranked matches requested from the
// intelligence service when the caller does not ask for a specific count.
const DefaultLimit = 3

// Query is a single free-text question submitted from the operator console.
// It is immutable once submitted.
type Query struct {
	Text  string `json:"query"`
	Limit int    `json:"limit"`
}

// EffectiveLimit returns the match limit to forward upstream, falling back
// to DefaultLimit for zero or negative values.
func (q Query) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}
