package reporting

import (
	"bytes"
	"strconv"
	"text/template"
	"time"

	types "github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// TimestampLayout names the artifacts of one run.
const TimestampLayout = "20060102150405"

const reportTemplate = `# 公平竞争审查违规分析报告
生成时间：{{ .GeneratedAt }}
总结果条数：{{ .Total }}
分析来源：{{ .Source }}
风险等级：{{ .RiskLevel }}
运行ID：{{ .RunID }}

{{ range .Groups -}}
## 文件：{{ .FileName }}
文件路径：{{ .FilePath }}
章节：{{ .Chapter }}
结果条数：{{ len .Findings }}

{{ range $i, $f := .Findings -}}
### 结果 {{ inc $i }}
- 违规句子：{{ $f.ViolationSentence }}
- 违规类型：{{ $f.ViolationType }}
- 置信度：{{ confidence $f.Confidence }}
- 依据：{{ $f.Basis }}
- 修改建议：{{ $f.Suggestion }}
- 分析来源：{{ $f.Source }}

{{ end -}}
{{ end -}}
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":        func(i int) int { return i + 1 },
	"confidence": FormatConfidence,
}).Parse(reportTemplate))

// FileGroup is the findings of one source file. Path and chapter are taken
// from the group's first finding.
type FileGroup struct {
	FileName string
	FilePath string
	Chapter  string
	Findings []types.ViolationFinding
}

// GroupByFile groups findings by file name in order of first appearance.
func GroupByFile(findings []types.ViolationFinding) []FileGroup {
	index := make(map[string]int)
	var groups []FileGroup
	for _, f := range findings {
		i, ok := index[f.FileName]
		if !ok {
			i = len(groups)
			index[f.FileName] = i
			groups = append(groups, FileGroup{FileName: f.FileName, FilePath: f.FilePath, Chapter: f.ParentChapter})
		}
		groups[i].Findings = append(groups[i].Findings, f)
	}
	return groups
}

// FormatConfidence prints whole numbers with one decimal ("1.0") and
// everything else in its shortest form ("0.81").
func FormatConfidence(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == float64(int64(v)) {
		s += ".0"
	}
	return s
}

// RenderText renders the human-readable report.
func RenderText(report types.ReviewReport, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, map[string]interface{}{
		"GeneratedAt": generatedAt.Format("2006-01-02 15:04:05"),
		"Total":       len(report.Findings),
		"Source":      types.SourceSummary,
		"RiskLevel":   report.RiskLevel,
		"RunID":       report.RunID,
		"Groups":      GroupByFile(report.Findings),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

//Personal.AI order the ending
