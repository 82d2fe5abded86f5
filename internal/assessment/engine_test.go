package assessment

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// sampleResponses produces a fixed spread of inputs covering empty, uniform,
// patterned and malformed submissions.
func sampleResponses() map[string]Response {
	samples := map[string]Response{
		"empty":      {},
		"all max":    uniformResponse(20, 5),
		"all min":    uniformResponse(20, 1),
		"all zero":   uniformResponse(20, 0),
		"too high":   uniformResponse(20, 11),
		"negative":   uniformResponse(20, -3),
		"strings":    uniformResponse(20, "4"),
		"junk":       uniformResponse(20, "n/a"),
		"half":       uniformResponse(10, 5),
		"fractional": uniformResponse(20, 2.7),
	}
	patterned := Response{}
	for i := 1; i <= 20; i++ {
		patterned[fmt.Sprint(i)] = (i * 7) % 6 // 0..5
	}
	samples["patterned"] = patterned
	return samples
}

func TestEngine_Deterministic(t *testing.T) {
	e := NewEngine()
	for _, typ := range e.Catalog().Types() {
		for name, resp := range sampleResponses() {
			t.Run(typ+"/"+name, func(t *testing.T) {
				first, err := json.Marshal(e.Calculate(typ, resp))
				if err != nil {
					t.Fatalf("marshal: %v", err)
				}
				for i := 0; i < 5; i++ {
					again, _ := json.Marshal(e.Calculate(typ, resp))
					if string(again) != string(first) {
						t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
					}
				}
			})
		}
	}
}

func TestEngine_ScoreBoundsAndRanking(t *testing.T) {
	e := NewEngine()
	for _, typ := range e.Catalog().Types() {
		def, _ := e.Catalog().Lookup(typ)
		for name, resp := range sampleResponses() {
			t.Run(typ+"/"+name, func(t *testing.T) {
				res := e.Calculate(typ, resp)

				if len(res.Scores) != len(def.Categories) {
					t.Fatalf("got %d scores, want one per category (%d)", len(res.Scores), len(def.Categories))
				}
				for i, cs := range res.Scores {
					if cs.Name != def.Categories[i].Name {
						t.Errorf("score %d is %q, want declared order %q", i, cs.Name, def.Categories[i].Name)
					}
					if cs.Score < 0 || cs.Score > 100 {
						t.Errorf("%s = %d, out of [0,100]", cs.Name, cs.Score)
					}
				}

				primary, _ := res.Scores.Get(res.PrimaryResult)
				secondary, _ := res.Scores.Get(res.SecondaryResult)
				tertiary, _ := res.Scores.Get(res.TertiaryResult)
				if primary < secondary || secondary < tertiary {
					t.Errorf("ranking not descending: %d, %d, %d", primary, secondary, tertiary)
				}
				for _, cs := range res.Scores {
					if cs.Score > primary {
						t.Errorf("%s (%d) outranks primary %s (%d)", cs.Name, cs.Score, res.PrimaryResult, primary)
					}
				}
			})
		}
	}
}

func TestEngine_EmptyResponses(t *testing.T) {
	e := NewEngine()
	for _, typ := range e.Catalog().Types() {
		t.Run(typ, func(t *testing.T) {
			ev := e.Evaluate(typ, Response{})
			for _, cs := range ev.Result.Scores {
				if cs.Score != 0 {
					t.Errorf("%s = %d, want 0", cs.Name, cs.Score)
				}
			}
			if ev.Result.PrimaryResult == "" || ev.Result.Title == "" {
				t.Errorf("result not populated: %+v", ev.Result)
			}
			if ev.Valid {
				t.Error("Valid = true for a submission with no answers")
			}
			if !ev.HasDiagnostic(CodeMissingAnswer) {
				t.Error("missing_answer diagnostic not recorded")
			}
		})
	}
}

func TestEngine_UnknownTypeFallsBackToDefault(t *testing.T) {
	e := NewEngine()
	for name, resp := range sampleResponses() {
		t.Run(name, func(t *testing.T) {
			got := e.Calculate("nonexistent-type", resp)
			want := e.Calculate(DefaultType, resp)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("unknown type result mismatch (-want +got):\n%s", diff)
			}
		})
	}

	ev := e.Evaluate("nonexistent-type", uniformResponse(20, 3))
	if ev.Valid || !ev.HasDiagnostic(CodeUnknownType) {
		t.Errorf("unknown type not flagged: valid=%v diagnostics=%v", ev.Valid, ev.Diagnostics)
	}
	if ev.RequestedType != "nonexistent-type" || ev.Result.AssessmentType != DefaultType {
		t.Errorf("types = requested %q scored %q", ev.RequestedType, ev.Result.AssessmentType)
	}
}

func TestEngine_SpiritualGiftsUniformMaximum(t *testing.T) {
	ev := NewEngine().Evaluate(TypeSpiritualGifts, uniformResponse(20, 5))
	res := ev.Result

	if !ev.Valid {
		t.Errorf("Valid = false, diagnostics = %v", ev.Diagnostics)
	}

	admin, _ := res.Scores.Get("administration")
	faith, _ := res.Scores.Get("faith")
	if admin != 100 {
		t.Errorf("administration = %d, want round((10/2)*20) = 100", admin)
	}
	if faith != 100 {
		t.Errorf("faith = %d, want round((5/1)*20) = 100", faith)
	}
	// Current behavior: the one-question category is not advantaged over a
	// two-question one at uniform answers; both saturate at 100.
	if faith != admin {
		t.Errorf("faith (%d) and administration (%d) differ at uniform maximum", faith, admin)
	}

	// Every gift ties at 100, so declared table order decides the top three.
	got := []string{res.PrimaryResult, res.SecondaryResult, res.TertiaryResult}
	want := []string{"administration", "teaching", "evangelism"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top three (-want +got):\n%s", diff)
	}
	if res.Title != "Administration" || res.SecondaryTitle != "Teaching" || res.TertiaryTitle != "Evangelism" {
		t.Errorf("titles = %q, %q, %q", res.Title, res.SecondaryTitle, res.TertiaryTitle)
	}
}

func TestEngine_SpiritualGiftsDistinctWinner(t *testing.T) {
	resp := uniformResponse(20, 2)
	resp["7"], resp["8"] = 5, 5   // mercy 100
	resp["20"] = 4                // wisdom 80
	resp["11"], resp["12"] = 4, 3 // giving 70

	res := Calculate(TypeSpiritualGifts, resp)
	got := []string{res.PrimaryResult, res.SecondaryResult, res.TertiaryResult}
	want := []string{"mercy", "wisdom", "giving"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("top three (-want +got):\n%s", diff)
	}
	if res.Title != "Mercy" {
		t.Errorf("Title = %q, want Mercy", res.Title)
	}
}

func TestEngine_SeasonalEmptyTieBreak(t *testing.T) {
	res := NewEngine().Calculate(TypeSeasonal, Response{})

	want := map[string]int{"spring": 0, "summer": 0, "fall": 0, "winter": 0}
	if diff := cmp.Diff(want, res.Scores.Map()); diff != "" {
		t.Errorf("scores (-want +got):\n%s", diff)
	}
	if res.PrimaryResult != "spring" {
		t.Errorf("PrimaryResult = %q, want spring (first in table order)", res.PrimaryResult)
	}
	if res.SecondaryResult != "summer" || res.TertiaryResult != "fall" {
		t.Errorf("secondary/tertiary = %q/%q, want summer/fall", res.SecondaryResult, res.TertiaryResult)
	}
}

func TestEngine_SeasonalWinter(t *testing.T) {
	resp := Response{"10": 5, "11": 4, "12": 5, "7": 3, "8": 3, "9": 3, "1": 1}
	res := Calculate(TypeSeasonal, resp)

	if res.PrimaryResult != "winter" || res.SecondaryResult != "fall" || res.TertiaryResult != "spring" {
		t.Errorf("ranked = %v, want [winter fall spring]", res.Ranked())
	}
	if winter, _ := res.Scores.Get("winter"); winter != 93 {
		t.Errorf("winter = %d, want round((14/3)*20) = 93", winter)
	}
}

func TestEngine_OutOfRangeAnswerCanWin(t *testing.T) {
	ev := NewEngine().Evaluate(TypeSeasonal, Response{"1": 10, "4": 5})

	if ev.Result.PrimaryResult != "spring" || ev.Result.SecondaryResult != "summer" {
		t.Errorf("ranked = %v, want spring then summer", ev.Result.Ranked())
	}
	if spring, _ := ev.Result.Scores.Get("spring"); spring != 67 {
		t.Errorf("spring = %d, want 67", spring)
	}
	if !ev.HasDiagnostic(CodeOutOfRange) {
		t.Errorf("diagnostics = %v, want out_of_range", ev.Diagnostics)
	}
}

func TestEngine_LogsDegradedResults(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := NewEngine(WithLogger(zap.New(core)))

	e.Calculate(TypeSeasonal, uniformResponse(12, 3))
	e.Calculate("bogus", Response{"1": "x"})

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}
	if entries[0].Level != zap.DebugLevel {
		t.Errorf("clean result logged at %v, want debug", entries[0].Level)
	}
	warn := entries[1]
	if warn.Level != zap.WarnLevel {
		t.Errorf("degraded result logged at %v, want warn", warn.Level)
	}
	fields := warn.ContextMap()
	if fields["requested_type"] != "bogus" {
		t.Errorf("requested_type = %v", fields["requested_type"])
	}
	if fields[CodeUnknownType] != int64(1) || fields[CodeInvalidAnswer] != int64(1) {
		t.Errorf("code counts = %v", fields)
	}
}

func TestEngine_DefaultTypeOption(t *testing.T) {
	e := NewEngine(WithDefaultType(TypeSeasonal))
	if e.DefaultType() != TypeSeasonal {
		t.Fatalf("DefaultType() = %q", e.DefaultType())
	}
	if res := e.Calculate("unknown", Response{}); res.AssessmentType != TypeSeasonal {
		t.Errorf("fallback type = %q, want seasonal", res.AssessmentType)
	}

	e = NewEngine(WithDefaultType("missing"))
	if e.DefaultType() != TypeSpiritualGifts {
		t.Errorf("unknown default not replaced: %q", e.DefaultType())
	}
}

func TestEngine_CustomCatalog(t *testing.T) {
	cat, err := NewCatalog(Definition{
		Type:      "pair",
		LikertMax: 4,
		Scale:     25,
		Categories: []Category{
			{Name: "left", Questions: []string{"a"}, Divisor: 1, Narrative: Narrative{Title: "Left"}},
			{Name: "right", Questions: []string{"b", "c"}, Divisor: 2, Narrative: Narrative{Title: "Right"}},
		},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	e := NewEngine(WithCatalog(cat))
	if e.DefaultType() != "pair" {
		t.Fatalf("DefaultType() = %q, want pair", e.DefaultType())
	}

	res := e.Calculate("pair", Response{"a": 2, "b": 4, "c": 4})
	if res.PrimaryResult != "right" || res.SecondaryTitle != "Left" || res.TertiaryResult != "" {
		t.Errorf("result = %+v", res)
	}
	if right, _ := res.Scores.Get("right"); right != 100 {
		t.Errorf("right = %d, want 100", right)
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := NewEngine()
	want := e.Calculate(TypeSpiritualGifts, uniformResponse(20, 4))

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := e.Calculate(TypeSpiritualGifts, uniformResponse(20, 4))
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- diff
			}
		}()
	}
	wg.Wait()
	close(errs)
	for diff := range errs {
		t.Errorf("concurrent result differs:\n%s", diff)
	}
}

func TestResult_JSONShape(t *testing.T) {
	res := Calculate(TypeSeasonal, Response{"4": 5, "5": 5, "6": 5})
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{
		"primary_result", "secondary_result", "tertiary_result", "scores", "title",
		"description", "strengths", "growth_areas", "ministry_recommendations",
		"scripture_references", "next_steps",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	scores, ok := decoded["scores"].(map[string]any)
	if !ok || scores["summer"] != float64(100) {
		t.Errorf("scores = %v", decoded["scores"])
	}

	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal(Result) error = %v", err)
	}
	if got := names(back.Scores); got != "spring,summer,fall,winter" {
		t.Errorf("decoded score order = %s", got)
	}
}
