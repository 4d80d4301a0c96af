package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/middleware"
	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services"
	"github.com/upb/llm-intent-router/services/inference"
	"github.com/upb/llm-intent-router/services/providers"
	"github.com/upb/llm-intent-router/services/routing"
)

// MockInferenceService is a mock implementation of InferenceService
type MockInferenceService struct {
	mock.Mock
}

func (m *MockInferenceService) ExecuteBatch(ctx context.Context, items []inference.Item, continueOnFail bool) ([]inference.ItemOutcome, error) {
	args := m.Called(ctx, items, continueOnFail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inference.ItemOutcome), args.Error(1)
}

func newGenerateRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(middleware.WithRequestID(req.Context(), "req-1"))
}

func sampleResult() *inference.Result {
	tokens := 42
	return &inference.Result{
		ResponseData: models.ResponseData{
			Content:   "Hello!",
			Model:     "gpt-4o-mini",
			Provider:  "openai",
			Timestamp: "2026-01-02T03:04:05.000Z",
			Metadata:  models.ResponseMetadata{TokensUsed: &tokens, LatencyMs: 120},
		},
		Operation:      inference.OperationGenerate,
		OriginalPrompt: "Say hello",
		SelectedModel: routing.ModelSelection{
			Model:    "gpt-4o-mini",
			Provider: providers.KindOpenAI,
			Reason:   "Fast general purpose responses",
		},
		InferenceID: "inf-1",
	}
}

func TestHandleGenerate(t *testing.T) {
	logger := zap.NewNop()

	t.Run("successful batch", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		mockService.On("ExecuteBatch", mock.Anything, mock.MatchedBy(func(items []inference.Item) bool {
			return len(items) == 1 && items[0].Prompt == "Say hello"
		}), false).Return([]inference.ItemOutcome{{Index: 0, Result: sampleResult()}}, nil)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, GenerateRequest{
			Items: []inference.Item{{Prompt: "Say hello"}},
		}))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		results := response["data"].(map[string]interface{})["results"].([]interface{})
		require.Len(t, results, 1)

		first := results[0].(map[string]interface{})
		assert.Equal(t, "Hello!", first["content"])
		assert.Equal(t, "openai", first["provider"])
		assert.Equal(t, "generate", first["operation"])
		assert.Equal(t, "Say hello", first["original_prompt"])

		selected := first["selected_model"].(map[string]interface{})
		assert.Equal(t, "gpt-4o-mini", selected["model"])

		metadata := first["metadata"].(map[string]interface{})
		assert.Equal(t, float64(42), metadata["tokens_used"])

		mockService.AssertExpectations(t)
	})

	t.Run("continue on fail keeps error entries", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		mockService.On("ExecuteBatch", mock.Anything, mock.Anything, true).Return([]inference.ItemOutcome{
			{Index: 0, Error: &inference.ItemError{Index: 0, Code: "TIMEOUT", Message: "AI request failed: request timed out"}},
			{Index: 1, Result: sampleResult()},
		}, nil)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, GenerateRequest{
			Items:          []inference.Item{{Prompt: "a"}, {Prompt: "b"}},
			ContinueOnFail: true,
		}))

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

		results := response["data"].(map[string]interface{})["results"].([]interface{})
		require.Len(t, results, 2)

		failed := results[0].(map[string]interface{})
		assert.Equal(t, false, failed["success"])
		assert.Equal(t, "AI request failed: request timed out", failed["error"])
		assert.Equal(t, float64(0), failed["item_index"])

		mockService.AssertExpectations(t)
	})

	t.Run("aborting failure maps to bad gateway", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		itemErr := &inference.ItemError{
			Index:   1,
			Code:    "rate_limit_error",
			Message: "AI request failed: Rate limited",
			Err: services.NewDomainError(services.ErrorTypeExternal, "AI request failed", nil).
				WithDetail("item_index", 1),
		}
		mockService.On("ExecuteBatch", mock.Anything, mock.Anything, false).
			Return([]inference.ItemOutcome{{Index: 0, Result: sampleResult()}}, itemErr)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, GenerateRequest{
			Items: []inference.Item{{Prompt: "a"}, {Prompt: "b"}},
		}))

		assert.Equal(t, http.StatusBadGateway, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "AI request failed: Rate limited", response["message"])
		assert.Equal(t, float64(1), response["details"].(map[string]interface{})["item_index"])
	})

	t.Run("empty prompt maps to bad request", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		mockService.On("ExecuteBatch", mock.Anything, mock.Anything, false).Return([]inference.ItemOutcome{}, &inference.ItemError{
			Code:    inference.CodeValidation,
			Message: "Prompt is required",
			Err:     services.ErrEmptyPrompt,
		})

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, GenerateRequest{
			Items: []inference.Item{{Prompt: ""}},
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Prompt is required")
	})

	t.Run("invalid request body", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader("{not json"))
		w := httptest.NewRecorder()
		handler.HandleGenerate(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "ExecuteBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no items", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, map[string]interface{}{"items": []interface{}{}}))

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Validation failed", response["message"])
		assert.Contains(t, response["details"], "items")
		mockService.AssertNotCalled(t, "ExecuteBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid complexity", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, map[string]interface{}{
			"items": []map[string]string{{"prompt": "x", "complexity": "extreme"}},
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "items[0].complexity")
	})

	t.Run("too many items", func(t *testing.T) {
		mockService := new(MockInferenceService)
		handler := NewGenerateHandler(mockService, logger)

		items := make([]inference.Item, MaxBatchItems+1)
		for i := range items {
			items[i].Prompt = "p"
		}

		w := httptest.NewRecorder()
		handler.HandleGenerate(w, newGenerateRequest(t, GenerateRequest{Items: items}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// scriptedDispatcher echoes prompts, or waits for the request to end when
// the prompt is "block"
type scriptedDispatcher struct{}

func (scriptedDispatcher) CallModel(ctx context.Context, selection routing.ModelSelection, prompt string) *models.UnifiedResponse {
	if prompt == "block" {
		<-ctx.Done()
		return models.NewErrorResponse(selection.Model, selection.Provider.String(), 0, &models.ResponseError{
			Code:    providers.CodeTimeout,
			Message: "Request timed out",
		})
	}
	return models.NewSuccessResponse("echo: "+prompt, selection.Model, selection.Provider.String(), models.ResponseMetadata{})
}

func newScriptedGenerateHandler() *GenerateHandler {
	logger := zap.NewNop()
	service := inference.NewService(routing.NewDefaultModelRouter(), scriptedDispatcher{}, nil, inference.Config{}, nil, logger)
	return NewGenerateHandler(service, logger)
}

func TestHandleGenerate_AbortReportsItemIndex(t *testing.T) {
	handler := newScriptedGenerateHandler()

	w := httptest.NewRecorder()
	handler.HandleGenerate(w, newGenerateRequest(t, GenerateRequest{
		Items: []inference.Item{{Prompt: "hi"}, {Prompt: "hi"}, {Prompt: "  "}},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "bad_request", response["error"])
	assert.Equal(t, "Prompt is required", response["message"])

	details, ok := response["details"].(map[string]interface{})
	require.True(t, ok, "details missing: %v", response)
	assert.Equal(t, float64(2), details["item_index"])
	assert.Equal(t, inference.CodeValidation, details["code"])
}

func TestHandleGenerate_DeadlineReportsGatewayTimeout(t *testing.T) {
	handler := newScriptedGenerateHandler()

	req := newGenerateRequest(t, GenerateRequest{
		Items: []inference.Item{{Prompt: "hi"}, {Prompt: "block"}},
	})
	ctx, cancel := context.WithTimeout(req.Context(), 20*time.Millisecond)
	defer cancel()

	w := httptest.NewRecorder()
	handler.HandleGenerate(w, req.WithContext(ctx))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "gateway_timeout", response["error"])
	assert.Equal(t, "request timed out", response["message"])
	assert.Equal(t, float64(1), response["details"].(map[string]interface{})["item_index"])
}
