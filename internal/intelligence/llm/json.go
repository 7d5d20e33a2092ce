package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

var (
	// fencePattern matches a whole response wrapped in a markdown code block.
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// StripFences removes a surrounding ```json ... ``` block and trims the
// result. Text without a fence is only trimmed.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return s
}

// JSONResult is the outcome of decoding a model response. Exactly one of the
// two states holds: Ok with the decoded Value, or a fallback where Value is
// the caller's default and Err says why decoding failed.
type JSONResult[T any] struct {
	Value T
	Ok    bool
	Raw   string
	Err   error
}

// Ok wraps a successfully decoded value.
func Ok[T any](v T, raw string) JSONResult[T] {
	return JSONResult[T]{Value: v, Ok: true, Raw: raw}
}

// Fallback wraps a default value used because decoding failed.
func Fallback[T any](def T, raw string, err error) JSONResult[T] {
	return JSONResult[T]{Value: def, Raw: raw, Err: err}
}

// ParseJSON decodes a model response into T after removing code fences and
// trailing commas. On failure it returns def as a fallback result.
func ParseJSON[T any](raw string, def T) JSONResult[T] {
	body := trailingCommaPattern.ReplaceAllString(StripFences(raw), "$1")
	if body == "" {
		return Fallback(def, raw, errors.New(errors.ErrCodeLLMEmptyResponse, "llm: empty response"))
	}
	var v T
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return Fallback(def, raw, errors.Wrap(err, errors.ErrCodeLLMInvalidJSON, "llm: response is not valid JSON"))
	}
	return Ok(v, raw)
}

// ParseObjectOrArray decodes either a JSON array of T or a single T object,
// which is wrapped into a one-element slice.
func ParseObjectOrArray[T any](raw string) JSONResult[[]T] {
	body := trailingCommaPattern.ReplaceAllString(StripFences(raw), "$1")
	if strings.HasPrefix(body, "{") {
		single := ParseJSON[T](body, *new(T))
		if !single.Ok {
			return Fallback[[]T](nil, raw, single.Err)
		}
		return Ok([]T{single.Value}, raw)
	}
	res := ParseJSON[[]T](body, nil)
	res.Raw = raw
	return res
}

//Personal.AI order the ending
