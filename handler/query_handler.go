package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/query-retrieval/middleware"
	"github.com/tieubaoca/query-retrieval/service"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

// Dispatcher answers a batch of questions in order.
type Dispatcher interface {
	Dispatch(ctx context.Context, questions []string) ([]string, error)
}

type QueryHandler struct {
	dispatcher Dispatcher
	history    service.QueryHistory
	logger     *zap.Logger
}

// NewQueryHandler builds the /query handler. history may be nil.
func NewQueryHandler(dispatcher Dispatcher, history service.QueryHistory, logger *zap.Logger) *QueryHandler {
	useJSONFieldNames()
	return &QueryHandler{
		dispatcher: dispatcher,
		history:    history,
		logger:     logger,
	}
}

func (h *QueryHandler) HandleQuery(c *gin.Context) {
	var req types.QueryRequest
	if err := bindQueryRequest(c, &req); err != nil {
		HandleError(c, bindError(err), h.logger)
		return
	}

	requestID := middleware.GetRequestID(c)
	nResults := req.ResultLimit()
	h.logger.Info("processing query batch",
		zap.String("request_id", requestID),
		zap.Int("questions", len(req.Questions)),
		zap.Int("n_results", nResults))

	start := time.Now()
	answers, err := h.dispatcher.Dispatch(c.Request.Context(), req.Questions)
	h.record(c.Request.Context(), &types.QueryLog{
		RequestID:  requestID,
		Questions:  req.Questions,
		Answers:    answers,
		NResults:   nResults,
		Error:      errorText(err),
		DurationMs: time.Since(start).Milliseconds(),
	})
	if err != nil {
		HandleError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, types.NewQueryResponse(answers))
}

func (h *QueryHandler) record(ctx context.Context, entry *types.QueryLog) {
	if h.history == nil {
		return
	}
	if err := h.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		h.logger.Warn("failed to record query history",
			zap.String("request_id", entry.RequestID),
			zap.Error(err))
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
