package assessment

import (
	"fmt"
	"math"
)

// Aggregate computes one normalized score per category of def, in declared order.
// Each category's raw sum is divided by its fixed divisor and multiplied by the
// table's scale, then rounded. The divisor is a per-category constant from the
// table, so a one-question category reaches 100 as easily as a four-question one.
//
// Missing, non-numeric and out-of-range answers never fail the calculation. Missing
// and non-numeric answers count as 0, out-of-range answers count as given, and each
// is reported as a diagnostic.
func Aggregate(def *Definition, resp Response) (ScoreSet, []Diagnostic) {
	scores := make(ScoreSet, 0, len(def.Categories))
	var diags []Diagnostic
	reported := make(map[string]bool)

	for _, cat := range def.Categories {
		var raw float64
		for _, id := range cat.Questions {
			v, code := coerceAnswer(resp, id, def.LikertMax)
			raw += v
			if code != "" && !reported[id] {
				reported[id] = true
				diags = append(diags, answerDiagnostic(code, id, resp[id], def.LikertMax))
			}
		}
		scores = append(scores, CategoryScore{
			Name:      cat.Name,
			Score:     normalize(raw, cat.Divisor, def.Scale),
			Raw:       raw,
			Questions: len(cat.Questions),
		})
	}
	return scores, diags
}

func normalize(raw, divisor, scale float64) int {
	if divisor <= 0 {
		return 0
	}
	score := math.Round((raw / divisor) * scale)
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return int(score)
}

func answerDiagnostic(code, id string, raw any, max float64) Diagnostic {
	d := Diagnostic{Code: code, Subject: id}
	switch code {
	case CodeMissingAnswer:
		d.Message = fmt.Sprintf("question %s has no answer; scored as 0", id)
	case CodeInvalidAnswer:
		d.Message = fmt.Sprintf("question %s answer %v is not numeric; scored as 0", id, raw)
	case CodeOutOfRange:
		d.Message = fmt.Sprintf("question %s answer %v is outside 0-%v; scored as given", id, raw, max)
	}
	return d
}
