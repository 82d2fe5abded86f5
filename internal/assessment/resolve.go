package assessment

import "fmt"

// Resolve builds the result from ranked categories. The primary category supplies
// the full narrative; secondary and tertiary supply only their titles. A ranked name
// without a narrative entry is replaced by the table's default category.
func Resolve(def *Definition, ranked []CategoryScore, scores ScoreSet) (Result, []Diagnostic) {
	res := Result{
		AssessmentType: def.Type,
		Scores:         scores,
	}
	var diags []Diagnostic

	slots := []*string{&res.PrimaryResult, &res.SecondaryResult, &res.TertiaryResult}
	titles := []*string{nil, &res.SecondaryTitle, &res.TertiaryTitle}

	for i := 0; i < len(slots) && i < len(ranked); i++ {
		name := ranked[i].Name
		cat, ok := def.Category(name)
		if !ok {
			diags = append(diags, Diagnostic{
				Code:    CodeMissingNarrative,
				Subject: name,
				Message: fmt.Sprintf("category %q has no narrative; using %q", name, def.DefaultCategory),
			})
			name = def.DefaultCategory
			cat, _ = def.Category(name)
		}
		*slots[i] = name
		if i == 0 {
			applyNarrative(&res, cat.Narrative)
			continue
		}
		*titles[i] = cat.Narrative.Title
	}

	if res.PrimaryResult == "" {
		// Nothing ranked at all; still return the default category's content.
		cat, _ := def.Category(def.DefaultCategory)
		res.PrimaryResult = cat.Name
		applyNarrative(&res, cat.Narrative)
	}
	return res, diags
}

func applyNarrative(res *Result, n Narrative) {
	n = n.clone()
	res.Title = n.Title
	res.Description = n.Description
	res.Strengths = n.Strengths
	res.GrowthAreas = n.GrowthAreas
	res.MinistryRecommendations = n.MinistryRecommendations
	res.ScriptureReferences = n.ScriptureReferences
	res.NextSteps = n.NextSteps
}
