package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeRateLimit, "throttled", 412)
	assert.Equal(t, "rate_limit error (code 412): throttled", err.Error())
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorTypeAuth, TypeOf(New(ErrorTypeAuth, "nope", 401)))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeNotFound, TypeOf(fmt.Errorf("wrapped: %w", New(ErrorTypeNotFound, "gone", 404))))
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsRateLimited(New(ErrorTypeRateLimit, "", -412)))
	assert.False(t, IsRateLimited(New(ErrorTypeNetwork, "", 0)))

	assert.True(t, IsNotFound(New(ErrorTypeNotFound, "", -404)))
	assert.False(t, IsNotFound(stderrors.New("plain")))

	assert.True(t, IsTransient(New(ErrorTypeNetwork, "", 0)))
	assert.False(t, IsTransient(New(ErrorTypeServerError, "", 502)))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeAuth))
	assert.False(t, IsRetryable(ErrorTypeNotFound))
	assert.False(t, IsRetryable(ErrorTypeParsing))
}

func TestFromBilibiliCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{-412, ErrorTypeRateLimit},
		{-404, ErrorTypeNotFound},
		{62002, ErrorTypeNotFound},
		{62004, ErrorTypeNotFound},
		{-101, ErrorTypeAuth},
		{-401, ErrorTypeAuth},
		{61001, ErrorTypeAuth},
		{-400, ErrorTypeParsing},
		{-509, ErrorTypeServerError},
		{12345, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := FromBilibiliCode(tt.code, "msg")
		assert.Equal(t, tt.want, err.Type, "code %d", tt.code)
		assert.Equal(t, tt.code, err.Code)
	}

	err := FromBilibiliCode(-412, "")
	assert.Equal(t, "bilibili api error", err.Message, "empty message gets a placeholder")
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(412))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(404))
}
