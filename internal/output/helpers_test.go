package output

import (
	"errors"
	"testing"

	"github.com/dotcommander/assess/internal/assessment"
	"github.com/dotcommander/assess/internal/batch"
	"github.com/dotcommander/assess/internal/cue"
)

func uniform(n int, value any) assessment.Response {
	resp := make(assessment.Response, n)
	for i := 1; i <= n; i++ {
		resp[itoa(i)] = value
	}
	return resp
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}

func scoredItem(t *testing.T, file, assessmentType string, resp assessment.Response) batch.Item {
	t.Helper()
	ev := assessment.NewEngine().Evaluate(assessmentType, resp)
	return batch.Item{File: file, AssessmentType: assessmentType, Evaluation: &ev}
}

func sampleSummary(t *testing.T) *batch.Summary {
	t.Helper()
	winter := uniform(12, 1)
	winter["10"], winter["11"], winter["12"] = 5, 5, 4

	degraded := scoredItem(t, "partial.yaml", assessment.TypeSpiritualGifts, assessment.Response{"1": 5})
	degraded.Issues = []cue.ValidationError{{
		File:     "partial.yaml",
		Path:     "responses.99",
		Message:  "question 99 is not part of spiritual-gifts",
		Severity: "warning",
	}}

	return batch.NewSummary(
		scoredItem(t, "full.json", assessment.TypeSpiritualGifts, uniform(20, 5)),
		scoredItem(t, "winter.yaml", assessment.TypeSeasonal, winter),
		degraded,
		batch.Item{File: "broken.json", Err: errors.New("error parsing broken.json: unexpected EOF")},
	)
}
