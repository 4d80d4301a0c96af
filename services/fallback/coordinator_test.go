package fallback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/llm-intent-router/models"
	"github.com/upb/llm-intent-router/services/providers"
	"github.com/upb/llm-intent-router/services/routing"
)

// MockDispatcher is a mock implementation of dispatch.Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) CallModel(ctx context.Context, selection routing.ModelSelection, prompt string) *models.UnifiedResponse {
	args := m.Called(ctx, selection, prompt)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.UnifiedResponse)
}

var (
	primary     = routing.ModelSelection{Model: "gpt-4o-mini", Provider: providers.KindOpenAI}
	geminiAlt   = routing.ModelSelection{Model: "gemini-pro", Provider: providers.KindGoogle}
	deepseekAlt = routing.ModelSelection{Model: "deepseek-chat", Provider: providers.KindDeepSeek}
)

func failedResponse() *models.UnifiedResponse {
	return models.NewErrorResponse(primary.Model, primary.Provider.String(), 10, &models.ResponseError{
		Code:    "TIMEOUT",
		Message: "Request timed out",
	})
}

func TestRecover_SuccessUnchanged(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	ok := models.NewSuccessResponse("hi", primary.Model, "openai", models.ResponseMetadata{})

	result := coordinator.Recover(context.Background(), ok, true, primary, []routing.ModelSelection{geminiAlt}, "p")

	assert.Same(t, ok, result)
	dispatcher.AssertNotCalled(t, "CallModel", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecover_Disabled(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	failed := failedResponse()

	result := coordinator.Recover(context.Background(), failed, false, primary, []routing.ModelSelection{geminiAlt}, "p")

	assert.Same(t, failed, result)
	assert.False(t, result.Success)
	dispatcher.AssertNotCalled(t, "CallModel", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecover_EmptyAlternates(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	failed := failedResponse()
	snapshot := *failed

	result := coordinator.Recover(context.Background(), failed, true, primary, nil, "p")

	assert.Same(t, failed, result)
	assert.Equal(t, snapshot, *result)
	dispatcher.AssertNotCalled(t, "CallModel", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecover_FirstSuccessWins(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	tokens := 9
	fbFailed := models.NewErrorResponse(geminiAlt.Model, "google", 5, &models.ResponseError{Code: "HTTP_ERROR", Message: "down"})
	fbOK := models.NewSuccessResponse("from deepseek", deepseekAlt.Model, "deepseek", models.ResponseMetadata{TokensUsed: &tokens, LatencyMs: 7})

	dispatcher.On("CallModel", mock.Anything, geminiAlt, "prompt").Return(fbFailed).Once()
	dispatcher.On("CallModel", mock.Anything, deepseekAlt, "prompt").Return(fbOK).Once()

	failed := failedResponse()

	result := coordinator.Recover(context.Background(), failed, true, primary, []routing.ModelSelection{geminiAlt, deepseekAlt}, "prompt")

	require.True(t, result.Success)
	assert.Same(t, failed, result)
	assert.Nil(t, result.Error)
	assert.Equal(t, "from deepseek", result.Data.Content)
	assert.Equal(t, "deepseek", result.Data.Provider)
	assert.Equal(t, "deepseek-chat", result.Data.Metadata.FallbackModel)
	assert.Equal(t, "gpt-4o-mini", result.Data.Metadata.OriginalModel)
	assert.Equal(t, &tokens, result.Data.Metadata.TokensUsed)

	dispatcher.AssertExpectations(t)
}

func TestRecover_StopsAfterSuccess(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	dispatcher.On("CallModel", mock.Anything, geminiAlt, "p").
		Return(models.NewSuccessResponse("ok", geminiAlt.Model, "google", models.ResponseMetadata{})).Once()

	result := coordinator.Recover(context.Background(), failedResponse(), true, primary, []routing.ModelSelection{geminiAlt, deepseekAlt}, "p")

	assert.True(t, result.Success)
	dispatcher.AssertNumberOfCalls(t, "CallModel", 1)
}

func TestRecover_Exhausted(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	dispatcher.On("CallModel", mock.Anything, mock.Anything, "p").
		Return(models.NewErrorResponse("x", "google", 1, &models.ResponseError{Code: "HTTP_ERROR", Message: "down"}))

	failed := failedResponse()

	result := coordinator.Recover(context.Background(), failed, true, primary, []routing.ModelSelection{geminiAlt, deepseekAlt}, "p")

	assert.Same(t, failed, result)
	assert.False(t, result.Success)
	assert.Equal(t, "TIMEOUT", result.Error.Code)
	assert.Empty(t, result.Data.Metadata.FallbackModel)
	dispatcher.AssertNumberOfCalls(t, "CallModel", 2)
}

func TestRecover_ContextCancelled(t *testing.T) {
	dispatcher := new(MockDispatcher)
	coordinator := NewCoordinator(dispatcher, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failed := failedResponse()

	result := coordinator.Recover(ctx, failed, true, primary, []routing.ModelSelection{geminiAlt, deepseekAlt}, "p")

	assert.False(t, result.Success)
	dispatcher.AssertNotCalled(t, "CallModel", mock.Anything, mock.Anything, mock.Anything)
}
