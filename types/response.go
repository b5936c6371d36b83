package types

type QueryResponse struct {
	Answers []string `json:"answers"`
}

// NewQueryResponse never encodes answers as null.
func NewQueryResponse(answers []string) QueryResponse {
	if answers == nil {
		answers = []string{}
	}
	return QueryResponse{Answers: answers}
}

type ErrorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// QueryResult is what a query engine returns for a single question.
type QueryResult struct {
	Answer  string     `json:"answer"`
	Sources []Document `json:"sources,omitempty"`
}
