package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeInvalidParam:     http.StatusBadRequest,
		CodeTooManyRequests:  http.StatusTooManyRequests,
		CodeRetrievalFailed:  http.StatusServiceUnavailable,
		CodeCompletionFailed: http.StatusBadGateway,
		CodeTimeout:          http.StatusGatewayTimeout,
		CodeConfiguration:    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "x").HTTPStatus, "code %s", code)
	}
}

func TestWithDetailDoesNotMutatePredefined(t *testing.T) {
	e := ErrInvalidParam.WithDetail("question is required")
	assert.Equal(t, "question is required", e.Detail)
	assert.Empty(t, ErrInvalidParam.Detail)
}

func TestAsAppError_Unwraps(t *testing.T) {
	inner := Wrap(stderrors.New("dial tcp"), CodeVectorDBError, "milvus unavailable")
	wrapped := fmt.Errorf("search: %w", inner)

	assert.True(t, IsAppError(wrapped))
	assert.Same(t, inner, AsAppError(wrapped))

	plain := AsAppError(stderrors.New("plain"))
	assert.Equal(t, CodeUnknown, plain.Code)
	assert.Contains(t, plain.Error(), "plain")
}
