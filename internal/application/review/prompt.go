package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

const (
	intentQueryPrefix  = "分析段落是否存在公平竞争违规："
	intentQueryRunes   = 200
	basisContentRunes  = 300
	contextRunes       = 100
	noBasisPlaceholder = "无相关条款"
)

const judgeTemplate = `你是公平竞争审查专家，请基于以下信息分析段落的违规情况，只输出 JSON 数组，不要多余文字：
1. 【核心逻辑优先】：若条款禁止“将本地投资、落户或设立分支机构作为参与某类活动的必要条件”，无论活动是政府采购、招标投标、评优评奖、补贴申请还是其他类似活动，都属于同类违规；
2. 【违规类型灵活】：若规则表中没有完全匹配的类型，可按核心逻辑自行概括类型（如“将本地落户作为评优评奖必要条件，排斥外地经营者”）；
3. 【依据引用宽松】：依据可以引用条款的核心禁止逻辑，不必严格匹配条款字面场景；
4. 【无违规的唯一条件】：只有当段落与所有条款的核心逻辑都无关时，才返回空数组。

【待分析段落】
%s

【参考条款】
%s

【输出格式】
[
  {
    "violation_sentence": "完整违规句子",
    "violation_type": "按核心逻辑定义的违规类型",
    "confidence": 0.0-1.0（逻辑越接近，置信度越高）,
    "basis": "引用条款核心逻辑+原文片段",
    "suggestion": "删除“本地落户”要求，允许所有符合条件的企业参与",
    "source": "` + types.SourceJudge + `"
  }
]`

// IntentQuery is the retrieval question asked for a paragraph.
func IntentQuery(paragraph string) string {
	return intentQueryPrefix + truncateRunes(paragraph, intentQueryRunes) + "..."
}

// BasisText renders retrieved clauses as numbered reference lines.
func BasisText(basis []types.ScoredChunk) string {
	var sb strings.Builder
	for i, b := range basis {
		content := b.Chunk.Content
		if utf8.RuneCountInString(content) > basisContentRunes {
			content = truncateRunes(content, basisContentRunes) + "..."
		}
		fmt.Fprintf(&sb, "条款%d（来源：%s - %s，相似度：%.3f）：%s\n",
			i+1,
			orDefault(b.Chunk.Metadata.FileName, types.UnknownFile),
			orDefault(b.Chunk.Metadata.ParentChapterTitle, types.UnknownChapter),
			b.Score,
			content)
	}
	return sb.String()
}

// JudgePrompt embeds the paragraph and its reference clauses.
func JudgePrompt(paragraph string, basis []types.ScoredChunk) string {
	text := BasisText(basis)
	if text == "" {
		text = noBasisPlaceholder
	}
	return fmt.Sprintf(judgeTemplate, paragraph, text)
}

//Personal.AI order the ending
