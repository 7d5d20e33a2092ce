package review

import (
	"testing"

	"github.com/stretchr/testify/assert"

	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("第一句话内容很长。短句！第三句话也很长；Is this long?  ok", DefaultMinSentenceRunes)
	assert.Equal(t, []string{"第一句话内容很长", "第三句话也很长", "Is this long"}, got)
	assert.Empty(t, SplitSentences("。。；", DefaultMinSentenceRunes))
}

func TestStripSentence(t *testing.T) {
	assert.Equal(t, "投标人须在本地注册abc123", StripSentence(" 投标人，须在「本地」注册! abc-123。"))
}

func TestMerge_FirstOccurrenceWins(t *testing.T) {
	a := types.ViolationFinding{ViolationSentence: "限定本地企业。", ViolationType: "类型A", Source: types.SourceClassifier}
	b := types.ViolationFinding{ViolationSentence: "限定 本地企业", ViolationType: " 类型A ", Source: types.SourceJudge}
	c := types.ViolationFinding{ViolationSentence: "限定本地企业", ViolationType: "类型B", Source: types.SourceJudge}

	got := Merge([]types.ViolationFinding{a}, []types.ViolationFinding{b, c, b})
	assert.Equal(t, []types.ViolationFinding{a, c}, got)

	got = Merge(nil, []types.ViolationFinding{b, a})
	assert.Equal(t, []types.ViolationFinding{b}, got)
}

func TestCountViolatingSentences(t *testing.T) {
	findings := []types.ViolationFinding{
		{ViolationSentence: "甲句。"},
		{ViolationSentence: "甲句"},
		{ViolationSentence: "乙句"},
		{ViolationSentence: "……"},
	}
	assert.Equal(t, 2, CountViolatingSentences(findings, 10))
	assert.Equal(t, 1, CountViolatingSentences(findings, 1))
}

func TestBuildTasks(t *testing.T) {
	tasks := BuildTasks([]types.Chunk{{Content: "  第一句话内容很长。短。  "}, {Content: "\n"}}, DefaultMinSentenceRunes, nil)
	assert.Len(t, tasks, 1)
	assert.Equal(t, "第一句话内容很长。短。", tasks[0].Paragraph)
	assert.Equal(t, []string{"第一句话内容很长"}, tasks[0].Sentences)
}

//Personal.AI order the ending
