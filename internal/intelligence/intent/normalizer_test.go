package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/internal/testutil"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

func generatorReturning(resp string, err error) *llm.MockGenerator {
	return &llm.MockGenerator{
		ChatFunc: func(context.Context, []llm.Message) (string, error) { return resp, err },
	}
}

func TestBuildPrompt_EmbedsQuery(t *testing.T) {
	p := BuildPrompt("项目经理需近三个月本地社保")
	assert.Contains(t, p, "输入：项目经理需近三个月本地社保")
	assert.Contains(t, p, `"possible_matched_rules"`)
	assert.NotContains(t, p, "{{query}}")
}

func TestNormalize_WellFormed(t *testing.T) {
	gen := generatorReturning("```json\n"+`{
		"normalized_query": "将本地社保缴纳作为投标准入条件，限制外地经营者参与招标投标",
		"keywords": ["社保缴纳", "准入条件", "招标投标", "限制经营者", "地域限制", "本地业绩"],
		"chapter_hints": ["要求本地缴纳社保", "限定投标人所在地", "设置不必要准入条件", "歧视性资质要求"],
		"possible_matched_rules": ["28"]
	}`+"\n```", nil)
	n := NewLLMNormalizer(gen, nil, nil)

	got := n.Normalize(context.Background(), "项目经理需近三个月社保")
	assert.Equal(t, "将本地社保缴纳作为投标准入条件，限制外地经营者参与招标投标", got.NormalizedQuery)
	assert.Equal(t, []string{"社保缴纳", "准入条件", "招标投标", "限制经营者", "地域限制"}, got.Keywords)
	assert.Len(t, got.ChapterHints, MaxChapterHints)

	calls := gen.Calls()
	require.Len(t, calls, 1)
	assert.True(t, strings.Contains(calls[0][0].Content, "项目经理需近三个月社保"))
}

func TestNormalize_InvalidJSONFallsBack(t *testing.T) {
	metrics, collector := testutil.NewTestMetrics(t)
	logger := testutil.NewMockLogger()
	n := NewLLMNormalizer(generatorReturning("我认为这句话涉及地域限制", nil), logger, metrics)

	got := n.Normalize(context.Background(), "限定本地企业")
	assert.Equal(t, review.FallbackIntent("限定本地企业"), got)
	assert.True(t, logger.HasMessageContaining("error", "not a JSON object"))
	assert.Contains(t, testutil.ScrapeMetrics(t, collector), `operation="intent"`)
}

func TestNormalize_GenerationErrorFallsBack(t *testing.T) {
	n := NewLLMNormalizer(generatorReturning("", errors.New("timeout")), nil, nil)

	res := n.Translate(context.Background(), "q")
	assert.False(t, res.Ok)
	assert.Error(t, res.Err)
	assert.Equal(t, review.FallbackIntent("q"), res.Value)
}

func TestDecode_PerFieldResolution(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want review.IntentResult
		ok   bool
	}{
		{
			name: "array is not an object",
			raw:  `["a"]`,
			want: review.FallbackIntent("q"),
		},
		{
			name: "null",
			raw:  `null`,
			want: review.FallbackIntent("q"),
		},
		{
			name: "blank normalized query",
			raw:  `{"normalized_query": "  ", "keywords": ["本地落户"]}`,
			want: review.IntentResult{NormalizedQuery: "q", Keywords: []string{"本地落户"}, ChapterHints: []string{}},
			ok:   true,
		},
		{
			name: "non-list fields",
			raw:  `{"normalized_query": "n", "keywords": "本地", "chapter_hints": {"a": 1}}`,
			want: review.IntentResult{NormalizedQuery: "n", Keywords: []string{}, ChapterHints: []string{}},
			ok:   true,
		},
		{
			name: "non-string entries dropped",
			raw:  `{"normalized_query": "n", "keywords": ["a", 3, null, "b"], "chapter_hints": [true, "c"]}`,
			want: review.IntentResult{NormalizedQuery: "n", Keywords: []string{"a", "b"}, ChapterHints: []string{"c"}},
			ok:   true,
		},
		{
			name: "trailing comma tolerated",
			raw:  `{"normalized_query": "n", "keywords": ["a",],}`,
			want: review.IntentResult{NormalizedQuery: "n", Keywords: []string{"a"}, ChapterHints: []string{}},
			ok:   true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decode("q", tc.raw)
			assert.Equal(t, tc.ok, got.Ok)
			assert.Equal(t, tc.want, got.Value)
		})
	}
}

func TestHintsFrom(t *testing.T) {
	r := review.IntentResult{NormalizedQuery: "n", Keywords: []string{"本地落户"}, ChapterHints: []string{"限定特定经营者"}}

	h := HintsFrom(r, false)
	assert.Equal(t, []string{"本地落户"}, h.Keywords)
	assert.False(t, h.NeedChapterFilter)
	assert.Empty(t, h.TargetChapters)

	h = HintsFrom(r, true)
	assert.True(t, h.NeedChapterFilter)
	assert.Equal(t, []string{"限定特定经营者"}, h.TargetChapters)

	h = HintsFrom(review.FallbackIntent("q"), true)
	assert.False(t, h.NeedChapterFilter)
}

//Personal.AI order the ending
