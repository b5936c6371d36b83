package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// DefaultNResults is used when a query request omits n_results.
const DefaultNResults = 5

type QueryRequest struct {
	Questions QuestionList `json:"questions" binding:"required"`
	// NResults is advisory only. The engine's query call takes no depth parameter.
	NResults *int `json:"n_results,omitempty" binding:"omitnil,gt=0"`
}

// ResultLimit returns n_results, or DefaultNResults when it was omitted.
func (r *QueryRequest) ResultLimit() int {
	if r.NResults == nil {
		return DefaultNResults
	}
	return *r.NResults
}

// QuestionList is a list of strings that rejects null elements.
// Empty strings are valid questions.
type QuestionList []string

func (q *QuestionList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*q = nil
		return nil
	}

	var raw []*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list := make(QuestionList, len(raw))
	for i, s := range raw {
		if s == nil {
			return &json.UnmarshalTypeError{
				Value: "null",
				Type:  reflect.TypeOf(""),
				Field: fmt.Sprintf("questions[%d]", i),
			}
		}
		list[i] = *s
	}
	*q = list
	return nil
}
