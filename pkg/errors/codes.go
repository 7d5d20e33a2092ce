package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// Structurizer Error Codes
const (
	ErrCodeDocumentUnreadable    ErrorCode = "STR_001"
	ErrCodeDocumentUnsupported   ErrorCode = "STR_002"
	ErrCodeClauseSplitFailed     ErrorCode = "STR_003"
	ErrCodeMetadataExtractFailed ErrorCode = "STR_004"
)

// Index Error Codes
const (
	ErrCodeEmptyCorpus        ErrorCode = "IDX_001"
	ErrCodeIndexBuildFailed   ErrorCode = "IDX_002"
	ErrCodeIndexLoadFailed    ErrorCode = "IDX_003"
	ErrCodeIndexNotReady      ErrorCode = "IDX_004"
	ErrCodeDimensionMismatch  ErrorCode = "IDX_005"
	ErrCodeChunkStoreNotFound ErrorCode = "IDX_006"
	ErrCodeChunkStoreInvalid  ErrorCode = "IDX_007"
)

// Retrieval Error Codes
const (
	ErrCodeRetrievalFailed  ErrorCode = "RET_001"
	ErrCodeLexicalFailed    ErrorCode = "RET_002"
	ErrCodeVectorFailed     ErrorCode = "RET_003"
	ErrCodeIntentParseError ErrorCode = "RET_004"
)

// Analysis Error Codes
const (
	ErrCodeAnalysisFailed ErrorCode = "ANA_001"
	ErrCodeChannelFailed  ErrorCode = "ANA_002"
	ErrCodeNoInput        ErrorCode = "ANA_003"
)

// LLM Error Codes
const (
	ErrCodeLLMUnavailable    ErrorCode = "LLM_001"
	ErrCodeLLMRequestFailed  ErrorCode = "LLM_002"
	ErrCodeLLMEmptyResponse  ErrorCode = "LLM_003"
	ErrCodeLLMInvalidJSON    ErrorCode = "LLM_004"
	ErrCodeEmbeddingFailed   ErrorCode = "LLM_005"
	ErrCodeProviderUnknown   ErrorCode = "LLM_006"
	ErrCodeStreamInterrupted ErrorCode = "LLM_007"
)

// Classifier Error Codes
const (
	ErrCodeClassifierNotLoaded   ErrorCode = "CLS_001"
	ErrCodeClassifierUnavailable ErrorCode = "CLS_002"
	ErrCodeClassifierBadResponse ErrorCode = "CLS_003"
	ErrCodeClassifierClosed      ErrorCode = "CLS_004"
)

// Sink Error Codes
const (
	ErrCodeSinkWriteFailed   ErrorCode = "SNK_001"
	ErrCodeSinkPublishFailed ErrorCode = "SNK_002"
	ErrCodeEvalDatasetBad    ErrorCode = "SNK_003"
)

// Infrastructure aliases
const (
	CodeDatabaseError     = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeSearchError       = ErrCodeRetrievalFailed
	CodeMessageQueueError = ErrCodeSinkPublishFailed
	CodeStorageError      = ErrCodeSinkWriteFailed
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeDocumentUnreadable:    http.StatusBadRequest,
	ErrCodeDocumentUnsupported:   http.StatusUnsupportedMediaType,
	ErrCodeClauseSplitFailed:     http.StatusBadGateway,
	ErrCodeMetadataExtractFailed: http.StatusBadGateway,

	ErrCodeEmptyCorpus:        http.StatusUnprocessableEntity,
	ErrCodeIndexBuildFailed:   http.StatusInternalServerError,
	ErrCodeIndexLoadFailed:    http.StatusInternalServerError,
	ErrCodeIndexNotReady:      http.StatusServiceUnavailable,
	ErrCodeDimensionMismatch:  http.StatusInternalServerError,
	ErrCodeChunkStoreNotFound: http.StatusNotFound,
	ErrCodeChunkStoreInvalid:  http.StatusUnprocessableEntity,

	ErrCodeRetrievalFailed:  http.StatusInternalServerError,
	ErrCodeLexicalFailed:    http.StatusInternalServerError,
	ErrCodeVectorFailed:     http.StatusInternalServerError,
	ErrCodeIntentParseError: http.StatusBadGateway,

	ErrCodeAnalysisFailed: http.StatusInternalServerError,
	ErrCodeChannelFailed:  http.StatusInternalServerError,
	ErrCodeNoInput:        http.StatusBadRequest,

	ErrCodeLLMUnavailable:    http.StatusServiceUnavailable,
	ErrCodeLLMRequestFailed:  http.StatusBadGateway,
	ErrCodeLLMEmptyResponse:  http.StatusBadGateway,
	ErrCodeLLMInvalidJSON:    http.StatusBadGateway,
	ErrCodeEmbeddingFailed:   http.StatusBadGateway,
	ErrCodeProviderUnknown:   http.StatusBadRequest,
	ErrCodeStreamInterrupted: http.StatusBadGateway,

	ErrCodeClassifierNotLoaded:   http.StatusServiceUnavailable,
	ErrCodeClassifierUnavailable: http.StatusServiceUnavailable,
	ErrCodeClassifierBadResponse: http.StatusBadGateway,
	ErrCodeClassifierClosed:      http.StatusServiceUnavailable,

	ErrCodeSinkWriteFailed:   http.StatusInternalServerError,
	ErrCodeSinkPublishFailed: http.StatusInternalServerError,
	ErrCodeEvalDatasetBad:    http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeDocumentUnreadable:    "document could not be read",
	ErrCodeDocumentUnsupported:   "unsupported document format",
	ErrCodeClauseSplitFailed:     "clause split failed",
	ErrCodeMetadataExtractFailed: "metadata extraction failed",

	ErrCodeEmptyCorpus:        "no non-empty chunks to index",
	ErrCodeIndexBuildFailed:   "index build failed",
	ErrCodeIndexLoadFailed:    "index load failed",
	ErrCodeIndexNotReady:      "index not ready",
	ErrCodeDimensionMismatch:  "embedding dimension mismatch",
	ErrCodeChunkStoreNotFound: "chunk store not found",
	ErrCodeChunkStoreInvalid:  "chunk store is malformed",

	ErrCodeRetrievalFailed:  "retrieval failed",
	ErrCodeLexicalFailed:    "lexical retrieval failed",
	ErrCodeVectorFailed:     "vector retrieval failed",
	ErrCodeIntentParseError: "intent response could not be parsed",

	ErrCodeAnalysisFailed: "analysis failed",
	ErrCodeChannelFailed:  "analysis channel failed",
	ErrCodeNoInput:        "no analyzable input",

	ErrCodeLLMUnavailable:    "text generation service unavailable",
	ErrCodeLLMRequestFailed:  "text generation request failed",
	ErrCodeLLMEmptyResponse:  "text generation returned no content",
	ErrCodeLLMInvalidJSON:    "text generation returned invalid JSON",
	ErrCodeEmbeddingFailed:   "embedding request failed",
	ErrCodeProviderUnknown:   "unknown model provider",
	ErrCodeStreamInterrupted: "generation stream interrupted",

	ErrCodeClassifierNotLoaded:   "classifier not loaded",
	ErrCodeClassifierUnavailable: "classifier service unavailable",
	ErrCodeClassifierBadResponse: "classifier returned a malformed response",
	ErrCodeClassifierClosed:      "classifier closed",

	ErrCodeSinkWriteFailed:   "result artifact write failed",
	ErrCodeSinkPublishFailed: "result publish failed",
	ErrCodeEvalDatasetBad:    "evaluation dataset is malformed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
