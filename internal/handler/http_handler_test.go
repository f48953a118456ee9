package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfloor/qna-service/internal/domain"
	"github.com/openfloor/qna-service/internal/hub"
	"github.com/openfloor/qna-service/internal/repository"
	"github.com/openfloor/qna-service/internal/service"
)

func setupRouter(t *testing.T) (*gin.Engine, service.QuestionService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryQuestionRepository()
	h := hub.NewHub()
	svc := service.NewQuestionService(repo, h, nil, 0, "Anonymous")

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r)
	return r, svc
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func submitQuestion(t *testing.T, r *gin.Engine, text, author string) domain.QuestionResponse {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/questions", gin.H{"text": text, "author": author})
	require.Equal(t, http.StatusCreated, w.Code)

	var q domain.QuestionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &q))
	return q
}

func TestSubmitQuestionEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	q := submitQuestion(t, r, "What time is lunch?", "Ana")
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, domain.StatusPending, q.Status)
	assert.Equal(t, "Ana", q.Author)
	assert.Equal(t, 0, q.Votes)
}

func TestSubmitQuestionValidation(t *testing.T) {
	r, _ := setupRouter(t)

	t.Run("missing text", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPost, "/api/v1/questions", gin.H{"author": "Ana"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
	})

	t.Run("blank text", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/v1/questions", gin.H{"text": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetStatusEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	q := submitQuestion(t, r, "approve me", "Ana")

	t.Run("approve", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPatch, "/api/v1/questions/"+q.ID+"/status", gin.H{"status": "approved"})
		require.Equal(t, http.StatusOK, w.Code)

		var updated domain.QuestionResponse
		require.NoError(t, json.Unmarshal(resp.Data, &updated))
		assert.Equal(t, domain.StatusApproved, updated.Status)
	})

	t.Run("approved list reflects the change", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodGet, "/api/v1/questions/approved", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var approved []domain.QuestionResponse
		require.NoError(t, json.Unmarshal(resp.Data, &approved))
		require.Len(t, approved, 1)
		assert.Equal(t, q.ID, approved[0].ID)

		_, resp = doJSON(t, r, http.MethodGet, "/api/v1/questions/pending", nil)
		var pending []domain.QuestionResponse
		require.NoError(t, json.Unmarshal(resp.Data, &pending))
		assert.Empty(t, pending)
	})

	t.Run("backward transition conflicts", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPatch, "/api/v1/questions/"+q.ID+"/status", gin.H{"status": "pending"})
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "CONFLICT", resp.Error.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPatch, "/api/v1/questions/"+q.ID+"/status", gin.H{"status": "rejected"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w, resp := doJSON(t, r, http.MethodPatch, "/api/v1/questions/missing/status", gin.H{"status": "approved"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	})
}

func TestDeleteQuestionEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	q := submitQuestion(t, r, "delete me", "")

	w, _ := doJSON(t, r, http.MethodDelete, "/api/v1/questions/"+q.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/questions/"+q.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPendingOrdering(t *testing.T) {
	r, _ := setupRouter(t)

	first := submitQuestion(t, r, "first", "")
	second := submitQuestion(t, r, "second", "")

	_, resp := doJSON(t, r, http.MethodGet, "/api/v1/questions/pending", nil)
	var pending []domain.QuestionResponse
	require.NoError(t, json.Unmarshal(resp.Data, &pending))
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID, "moderator queue is oldest first")
	assert.Equal(t, second.ID, pending[1].ID)
}
