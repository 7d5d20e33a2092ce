package evaluation

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// Default column headers of the evaluation workbook.
const (
	DefaultTextColumn  = "text"
	DefaultLabelColumn = "label"
)

// Sample is one labelled sentence. Row is the 1-based spreadsheet row.
type Sample struct {
	Row   int
	Text  string
	Label int
}

// LoadSamples reads the first sheet of an xlsx workbook whose header row
// names textCol and labelCol. Rows with blank text are skipped; limit > 0
// keeps only the first limit data rows, counted before skipping.
func LoadSamples(path, textCol, labelCol string, limit int) ([]Sample, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "evaluation: open workbook").WithDetail(path)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "evaluation: workbook has no sheet").WithDetail(path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "evaluation: read rows").WithDetail(sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "evaluation: sheet is empty").WithDetail(sheets[0])
	}

	textIdx, labelIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case textCol:
			textIdx = i
		case labelCol:
			labelIdx = i
		}
	}
	if textIdx < 0 || labelIdx < 0 {
		return nil, errors.Newf(errors.ErrCodeValidation, "evaluation: workbook must contain columns %s, %s", textCol, labelCol)
	}

	data := rows[1:]
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	out := make([]Sample, 0, len(data))
	for i, row := range data {
		text := strings.TrimSpace(cell(row, textIdx))
		if text == "" {
			continue
		}
		label, err := parseLabel(cell(row, labelIdx))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "evaluation: invalid label").WithDetail("row " + strconv.Itoa(i+2))
		}
		out = append(out, Sample{Row: i + 2, Text: text, Label: label})
	}
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// parseLabel accepts integral values written as "7" or "7.0".
func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

//Personal.AI order the ending
