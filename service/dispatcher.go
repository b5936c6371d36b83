package service

import (
	"context"

	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

// QueryDispatcher answers a batch of questions one at a time, in order.
type QueryDispatcher struct {
	engine QueryEngine
	logger *zap.Logger
}

func NewQueryDispatcher(engine QueryEngine, logger *zap.Logger) *QueryDispatcher {
	return &QueryDispatcher{
		engine: engine,
		logger: logger,
	}
}

// Dispatch returns one answer per question. The first engine error stops
// the batch and no answers are returned.
func (d *QueryDispatcher) Dispatch(ctx context.Context, questions []string) ([]string, error) {
	answers := make([]string, 0, len(questions))
	for i, question := range questions {
		result, err := d.engine.Query(ctx, question)
		if err != nil {
			d.logger.Error("query failed",
				zap.Int("question_index", i),
				zap.Error(err))
			return nil, types.NewDispatchError(i, err)
		}

		var answer string
		if result != nil {
			answer = result.Answer
		}
		answers = append(answers, answer)
	}
	return answers, nil
}
