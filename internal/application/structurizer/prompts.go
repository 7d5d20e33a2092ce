package structurizer

import (
	"github.com/turtacn/FairReview-Intelligence/internal/intelligence/llm"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

const clauseSplitExample = `示例：
章节文本："第一条 为规范公平竞争审查，制定本办法。第二条 本办法适用于行政机关。"
拆分结果：
["第一条 为规范公平竞争审查，制定本办法。", "第二条 本办法适用于行政机关。"]`

const clauseSplitSystem = `你是政策文档拆分专家，需要把章节文本拆分为最小逻辑单位（一条条款或一个独立规定），规则如下：
1. 每个块必须是完整的最小逻辑单元（如“第一条……”“（一）……”），不要拆到句子级；
2. 只输出拆分后的纯文本列表（JSON 数组），不要任何解释、标题或格式标记；
3. 完整保留原文，不增加、不删除、不修改任何文字；
4. 参考示例：
` + clauseSplitExample + `

如果章节本身已是最小单位（例如只有一条条款），直接返回只含该文本的列表。`

const metadataSystem = `你是公平竞争审查领域的政策结构化专家，需要提取章节的核心元数据：
- document_type：文档类型（如部门规章、地方性法规）
- chapter：章节标题（严格使用输入的章节标题）
- clause：章节内全部条款号，用逗号分隔
- effective_date：章节内的生效日期，没有则填“无”
- authority：制定部门，没有则填“无”
- exception：例外情况，没有则填“无”
只返回 JSON 对象，不要其他文字，缺失字段填“无”。`

func chapterInput(ch review.ChapterBoundary) string {
	return "章节标题：" + ch.Title + "\n章节文本：" + ch.Text
}

func clauseSplitMessages(ch review.ChapterBoundary) []llm.Message {
	return []llm.Message{
		llm.System(clauseSplitSystem),
		llm.User("章节标题：" + ch.Title + "\n需拆分的章节文本：" + ch.Text),
	}
}

func metadataMessages(ch review.ChapterBoundary) []llm.Message {
	return []llm.Message{
		llm.System(metadataSystem),
		llm.User(chapterInput(ch)),
	}
}

//Personal.AI order the ending
