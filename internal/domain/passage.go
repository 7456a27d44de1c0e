package domain

// Passage is one retrieved unit of reference text with its similarity score.
// Passages are ephemeral: produced per request and snapshotted into the
// conversation turn and usage record, never persisted on their own. The
// similarity scale is whatever the underlying index reports; the only
// guarantee is that higher means more relevant.
type Passage struct {
	ID         string
	Content    string
	Title      string
	URL        string
	Similarity float64
}
