package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal", errors.ErrCodeInternal, "unexpected failure"},
		{"empty corpus", errors.ErrCodeEmptyCorpus, "0 chunks after filtering"},
		{"classifier", errors.ErrCodeClassifierNotLoaded, "predict before load"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
			assert.NotEmpty(t, ae.Stack)
		})
	}
}

func TestNewf_FormatsMessage(t *testing.T) {
	ae := errors.Newf(errors.ErrCodeRetrievalFailed, "status %d", 503)
	assert.Equal(t, "status 503", ae.Message)
	assert.Equal(t, errors.ErrCodeRetrievalFailed, ae.Code)
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeChunkStoreInvalid, "bad json")
	assert.Equal(t, "[IDX_007] bad json", ae.Error())

	withDetail := ae.WithDetail("chunks.json")
	assert.Equal(t, "[IDX_007] bad json: chunks.json", withDetail.Error())
	assert.Empty(t, ae.Detail, "WithDetail must not mutate the receiver")

	wrapped := errors.Wrap(stderrors.New("EOF"), errors.ErrCodeChunkStoreInvalid, "decode")
	assert.Equal(t, "[IDX_007] decode: EOF", wrapped.Error())
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.ErrCodeInternal, "x"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	sentinel := stderrors.New("connection refused")
	ae := errors.Wrap(sentinel, errors.ErrCodeLLMRequestFailed, "chat completion")
	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, sentinel))
	assert.True(t, errors.Is(ae, sentinel))

	outer := fmt.Errorf("analyze: %w", ae)
	var target *errors.AppError
	require.True(t, errors.As(outer, &target))
	assert.Equal(t, errors.ErrCodeLLMRequestFailed, target.Code)
}

func TestWrap_UnknownKeepsInnerCode(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeEmptyCorpus, "nothing to index")
	outer := errors.Wrap(inner, errors.CodeUnknown, "build bm25")
	assert.Equal(t, errors.ErrCodeEmptyCorpus, outer.Code)
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeClassifierNotLoaded, "not loaded")
	outer := errors.Wrap(inner, errors.ErrCodeChannelFailed, "classifier channel")
	assert.True(t, errors.IsCode(outer, errors.ErrCodeChannelFailed))
	assert.True(t, errors.IsCode(outer, errors.ErrCodeClassifierNotLoaded))
	assert.False(t, errors.IsCode(outer, errors.ErrCodeEmptyCorpus))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeEmptyCorpus))
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
	assert.True(t, errors.IsNotFound(errors.New(errors.ErrCodeChunkStoreNotFound, "missing")))
	assert.True(t, errors.IsNotFound(fmt.Errorf("load: %w", errors.NotFound("x"))))
	assert.False(t, errors.IsNotFound(errors.New(errors.ErrCodeInternal, "x")))
	assert.False(t, errors.IsNotFound(stderrors.New("plain")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(errors.New(errors.ErrCodeValidation, "bad")))
}

func TestWithCause_NilSafe(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
	assert.Nil(t, ae.WithDetail("x"))
}

//Personal.AI order the ending
