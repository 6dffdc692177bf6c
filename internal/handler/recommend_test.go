package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reading-tree/backend/internal/model"
	"reading-tree/backend/internal/recommender"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecommender struct {
	queries []recommender.Query
	resp    *model.RecommendationResponse
	err     error
}

func (s *stubRecommender) Recommend(ctx context.Context, q recommender.Query) (*model.RecommendationResponse, error) {
	s.queries = append(s.queries, q)
	return s.resp, s.err
}

func newTestRouter(rec Recommender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", HandleHealth)
	r.POST("/recommend", NewRecommendHandler(rec, 50).HandleRecommend)
	return r
}

func post(r http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleRecommendSuccess(t *testing.T) {
	stub := &stubRecommender{resp: &model.RecommendationResponse{Books: []model.BookRecord{
		{Title: "Meditations", Author: "Marcus Aurelius", Reason: "Stoic"},
	}}}
	w := post(newTestRouter(stub), `{"prompt":"  books about Stoicism ","count":3}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body model.RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, stub.resp.Books, body.Books)

	require.Len(t, stub.queries, 1)
	assert.Equal(t, "books about Stoicism", stub.queries[0].Prompt)
	assert.Equal(t, 3, stub.queries[0].Count)
	assert.Equal(t, "en", stub.queries[0].Language)
}

func TestHandleRecommendDefaultCount(t *testing.T) {
	stub := &stubRecommender{resp: &model.RecommendationResponse{Books: []model.BookRecord{}}}
	w := post(newTestRouter(stub), `{"prompt":"mysteries"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, recommender.DefaultCount, stub.queries[0].Count)
}

func TestHandleRecommendEmptyPrompt(t *testing.T) {
	stub := &stubRecommender{}
	for _, body := range []string{`{"prompt":""}`, `{"prompt":"   \n "}`, `{}`} {
		w := post(newTestRouter(stub), body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "EMPTY_PROMPT")
	}
	assert.Empty(t, stub.queries, "no service call for empty prompts")
}

func TestHandleRecommendInvalidBody(t *testing.T) {
	stub := &stubRecommender{}
	w := post(newTestRouter(stub), `{"prompt": 12`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
	assert.Empty(t, stub.queries)
}

func TestHandleRecommendPromptTooLong(t *testing.T) {
	stub := &stubRecommender{}
	w := post(newTestRouter(stub), fmt.Sprintf(`{"prompt":%q}`, strings.Repeat("가", 51)), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PROMPT_TOO_LONG")
	assert.Empty(t, stub.queries)
}

func TestHandleRecommendFailuresCollapseTo500(t *testing.T) {
	failures := []error{
		fmt.Errorf("%w after 3 attempts", recommender.ErrExtractionExhausted),
		&recommender.ServiceError{Attempt: 1, Err: fmt.Errorf("invalid api key")},
	}
	for _, failure := range failures {
		stub := &stubRecommender{err: failure}
		w := post(newTestRouter(stub), `{"prompt":"anything"}`, nil)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "RECOMMENDATION_FAILED", body["code"])
		assert.Contains(t, body["detail"], failure.Error())
		assert.NotContains(t, w.Body.String(), `"books"`)
	}
}

func TestHandleRecommendLanguage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		headers map[string]string
		want    string
	}{
		{"body field", `{"prompt":"x","language":"ko-KR"}`, nil, "ko"},
		{"header", `{"prompt":"x"}`, map[string]string{"Accept-Language": "fr-FR,ko;q=0.8,en;q=0.5"}, "ko"},
		{"unsupported body falls back to header", `{"prompt":"x","language":"ja"}`, map[string]string{"Accept-Language": "en-US"}, "en"},
		{"default", `{"prompt":"x"}`, nil, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubRecommender{resp: &model.RecommendationResponse{}}
			w := post(newTestRouter(stub), tt.body, tt.headers)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, stub.queries[0].Language)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(&stubRecommender{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
