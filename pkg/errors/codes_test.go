package errors

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, 500},
		{ErrCodeBadRequest, 400},
		{ErrCodeNotFound, 404},
		{ErrCodeValidation, 422},
		{ErrCodeEmptyCorpus, 422},
		{ErrCodeClassifierNotLoaded, 503},
		{ErrCodeLLMInvalidJSON, 502},
		{ErrorCode("NOPE_1"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), tt.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "no non-empty chunks to index", DefaultMessageForCode(ErrCodeEmptyCorpus))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_1")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "STR", ModuleForCode(ErrCodeClauseSplitFailed))
	assert.Equal(t, "IDX", ModuleForCode(ErrCodeEmptyCorpus))
	assert.Equal(t, "RET", ModuleForCode(ErrCodeLexicalFailed))
	assert.Equal(t, "ANA", ModuleForCode(ErrCodeChannelFailed))
	assert.Equal(t, "LLM", ModuleForCode(ErrCodeLLMRequestFailed))
	assert.Equal(t, "CLS", ModuleForCode(ErrCodeClassifierClosed))
	assert.Equal(t, "SNK", ModuleForCode(ErrCodeSinkWriteFailed))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("plain")))
}

func TestAllCodesHaveMessagesAndStatuses(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, pattern, string(code))
		_, ok := ErrorCodeMessage[code]
		assert.True(t, ok, "missing message for %s", code)
	}
	assert.Equal(t, len(ErrorCodeHTTPStatus), len(ErrorCodeMessage))
}

//Personal.AI order the ending
