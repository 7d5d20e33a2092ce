package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

func TestFindingRows(t *testing.T) {
	label := 28
	rows := FindingRows("run-1", []review.ViolationFinding{
		{ViolationSentence: "甲", ViolationType: "类型", Confidence: 0.81, Source: review.SourceClassifier, LabelID: &label},
		{ViolationSentence: "乙", Source: review.SourceJudge},
	})

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Len(t, row, len(findingColumns))
	}
	assert.Equal(t, "run-1", rows[0][0])
	assert.Equal(t, int32(0), rows[0][1])
	assert.Equal(t, int32(1), rows[1][1])
	assert.Equal(t, 0.81, rows[0][4])
	assert.Equal(t, int32(28), rows[0][12])
	assert.Nil(t, rows[1][12])
}

//Personal.AI order the ending
