package types

// QueryLog is one answered (or failed) batch kept in the query history.
type QueryLog struct {
	ID         string   `bson:"_id" json:"id"`
	RequestID  string   `bson:"request_id" json:"request_id"`
	Questions  []string `bson:"questions" json:"questions"`
	Answers    []string `bson:"answers" json:"answers"`
	NResults   int      `bson:"n_results" json:"n_results"`
	Error      string   `bson:"error,omitempty" json:"error,omitempty"`
	DurationMs int64    `bson:"duration_ms" json:"duration_ms"`
	CreatedAt  int64    `bson:"created_at" json:"created_at"`
}
