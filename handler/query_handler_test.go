package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/query-retrieval/service"
	"github.com/tieubaoca/query-retrieval/types"
	"go.uber.org/zap"
)

const testToken = "test-token"

type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) LoadKnowledgeBase(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQueryEngine) BuildKnowledgeBase(ctx context.Context, paths []string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *MockQueryEngine) Query(ctx context.Context, question string) (*types.QueryResult, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.QueryResult), args.Error(1)
}

type MockQueryHistory struct {
	mock.Mock
}

func (m *MockQueryHistory) Record(ctx context.Context, entry *types.QueryLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockQueryHistory) Recent(ctx context.Context, limit int64) ([]*types.QueryLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.QueryLog), args.Error(1)
}

func newTestRouter(engine service.QueryEngine, history service.QueryHistory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	queryHandler := NewQueryHandler(service.NewQueryDispatcher(engine, logger), history, logger)
	return NewRouter(RouterConfig{APIToken: testToken}, queryHandler, logger)
}

func postQuery(router *gin.Engine, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleQuery_Success(t *testing.T) {
	engine := new(MockQueryEngine)
	engine.On("Query", mock.Anything, "What is X?").Return(&types.QueryResult{Answer: "X is Y"}, nil)
	engine.On("Query", mock.Anything, "What is Z?").Return(&types.QueryResult{Answer: "Z is W"}, nil)

	w := postQuery(newTestRouter(engine, nil), `{"questions":["What is X?","What is Z?"]}`, testToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answers":["X is Y","Z is W"]}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleQuery_EmptyQuestions(t *testing.T) {
	engine := new(MockQueryEngine)

	w := postQuery(newTestRouter(engine, nil), `{"questions":[]}`, testToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answers":[]}`, w.Body.String())
	engine.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestHandleQuery_EmptyStringQuestionIsValid(t *testing.T) {
	engine := new(MockQueryEngine)
	engine.On("Query", mock.Anything, "").Return(&types.QueryResult{Answer: "ans"}, nil)

	w := postQuery(newTestRouter(engine, nil), `{"questions":[""]}`+"\n", testToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answers":["ans"]}`, w.Body.String())
}

func TestHandleQuery_NResultsIsAdvisory(t *testing.T) {
	engine := new(MockQueryEngine)
	engine.On("Query", mock.Anything, "q").Return(&types.QueryResult{Answer: "a"}, nil)
	history := new(MockQueryHistory)
	history.On("Record", mock.Anything, mock.MatchedBy(func(entry *types.QueryLog) bool {
		return entry.NResults == 12 && entry.Error == "" && entry.RequestID != ""
	})).Return(nil)

	w := postQuery(newTestRouter(engine, history), `{"questions":["q"],"n_results":12}`, testToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answers":["a"]}`, w.Body.String())
	history.AssertExpectations(t)
}

func TestHandleQuery_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing questions", `{}`, "questions"},
		{"null questions", `{"questions":null}`, "questions"},
		{"questions not a list", `{"questions":"What is X?"}`, "questions"},
		{"non-string question", `{"questions":[1,2]}`, "questions"},
		{"null question", `{"questions":[null]}`, "questions"},
		{"null among questions", `{"questions":["What is X?",null]}`, "questions"},
		{"zero n_results", `{"questions":["q"],"n_results":0}`, "n_results"},
		{"negative n_results", `{"questions":["q"],"n_results":-3}`, "n_results"},
		{"string n_results", `{"questions":["q"],"n_results":"five"}`, "n_results"},
		{"malformed json", `{"questions":`, "body"},
		{"trailing data", `{"questions":["a"]} trailing`, "body"},
		{"two json values", `{"questions":["a"]}{"questions":["b"]}`, "body"},
		{"empty body", ``, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockQueryEngine)

			w := postQuery(newTestRouter(engine, nil), tt.body, testToken)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Detail)
			assert.Contains(t, resp.Errors, tt.field)
			engine.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleQuery_EngineFailure(t *testing.T) {
	engine := new(MockQueryEngine)
	engine.On("Query", mock.Anything, "q0").Return(&types.QueryResult{Answer: "a0"}, nil)
	engine.On("Query", mock.Anything, "q1").Return(nil, errors.New("model unavailable"))
	history := new(MockQueryHistory)
	history.On("Record", mock.Anything, mock.MatchedBy(func(entry *types.QueryLog) bool {
		return entry.Error == "model unavailable" && entry.Answers == nil
	})).Return(errors.New("mongo down"))

	w := postQuery(newTestRouter(engine, history), `{"questions":["q0","q1","q2"]}`, testToken)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"model unavailable"}`, w.Body.String())
	engine.AssertNotCalled(t, "Query", mock.Anything, "q2")
	history.AssertExpectations(t)
}

func TestHandleQuery_Unauthorized(t *testing.T) {
	engine := new(MockQueryEngine)
	router := newTestRouter(engine, nil)

	w := postQuery(router, `{"questions":["q"]}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Invalid authentication token"}`, w.Body.String())

	// auth runs before the body is looked at
	w = postQuery(router, `not json`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())

	engine.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestRouter_OnlyQueryRoute(t *testing.T) {
	router := newTestRouter(new(MockQueryEngine), nil)

	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/documents", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"unauthorized", types.ErrUnauthorized, http.StatusUnauthorized, `{"detail":"Invalid authentication token"}`},
		{"validation", types.NewValidationError("Invalid request", map[string]string{"questions": "field required"}),
			http.StatusUnprocessableEntity, `{"detail":"Invalid request","errors":{"questions":"field required"}}`},
		{"dispatch", types.NewDispatchError(0, errors.New("boom")), http.StatusInternalServerError, `{"detail":"boom"}`},
		{"unknown", errors.New("secret internals"), http.StatusInternalServerError, `{"detail":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleError(c, tt.err, zap.NewNop())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
