package baseline

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dotcommander/assess/internal/batch"
)

// Version of the snapshot file format
const Version = "1.0"

// Baseline is a snapshot of scoring outcomes keyed by submission path. Comparing a
// later run against it shows which submissions now score differently, for
// example after a catalog table was edited.
type Baseline struct {
	Version   string           `json:"version"`
	CreatedAt string           `json:"created_at"`
	Entries   map[string]Entry `json:"entries"`
}

// Entry is the recorded outcome of one submission.
type Entry struct {
	AssessmentType string `json:"assessment_type"`
	Ranked         string `json:"ranked"`
	Fingerprint    string `json:"fingerprint"`
}

// Drift kinds
const (
	DriftAdded   = "added"
	DriftRemoved = "removed"
	DriftChanged = "changed"
)

// Drift describes one submission whose outcome differs from the baseline.
type Drift struct {
	File string `json:"file"`
	Kind string `json:"kind"`
	Was  string `json:"was,omitempty"`
	Now  string `json:"now,omitempty"`
}

func (d Drift) String() string {
	switch d.Kind {
	case DriftAdded:
		return fmt.Sprintf("%s: new result %s", d.File, d.Now)
	case DriftRemoved:
		return fmt.Sprintf("%s: no longer scored (was %s)", d.File, d.Was)
	default:
		return fmt.Sprintf("%s: %s -> %s", d.File, d.Was, d.Now)
	}
}

// CreateBaseline snapshots every scored item of a run. Failed items are left out.
func CreateBaseline(summary *batch.Summary) *Baseline {
	b := &Baseline{
		Version:   Version,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Entries:   make(map[string]Entry, len(summary.Items)),
	}
	for _, item := range summary.Items {
		if entry, ok := entryFor(item); ok {
			b.Entries[item.File] = entry
		}
	}
	return b
}

// LoadBaseline loads a baseline from a JSON file
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}
	if b.Entries == nil {
		b.Entries = make(map[string]Entry)
	}
	return &b, nil
}

// SaveBaseline saves the baseline to a JSON file
func (b *Baseline) SaveBaseline(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}

	return nil
}

// Compare reports every submission whose outcome differs from the baseline,
// sorted by file.
func (b *Baseline) Compare(summary *batch.Summary) []Drift {
	var drifts []Drift
	seen := make(map[string]bool, len(summary.Items))

	for _, item := range summary.Items {
		seen[item.File] = true
		now, scored := entryFor(item)
		was, known := b.Entries[item.File]
		switch {
		case scored && !known:
			drifts = append(drifts, Drift{File: item.File, Kind: DriftAdded, Now: now.describe()})
		case !scored && known:
			drifts = append(drifts, Drift{File: item.File, Kind: DriftRemoved, Was: was.describe()})
		case scored && known && now.Fingerprint != was.Fingerprint:
			drifts = append(drifts, Drift{File: item.File, Kind: DriftChanged, Was: was.describe(), Now: now.describe()})
		}
	}
	for file, was := range b.Entries {
		if !seen[file] {
			drifts = append(drifts, Drift{File: file, Kind: DriftRemoved, Was: was.describe()})
		}
	}

	sort.Slice(drifts, func(i, j int) bool {
		return drifts[i].File < drifts[j].File
	})
	return drifts
}

func (e Entry) describe() string {
	return e.AssessmentType + ":" + e.Ranked
}

func entryFor(item batch.Item) (Entry, bool) {
	if item.Failed() {
		return Entry{}, false
	}
	res := item.Evaluation.Result
	return Entry{
		AssessmentType: res.AssessmentType,
		Ranked:         strings.Join(res.Ranked(), ","),
		Fingerprint:    fingerprint(item),
	}, true
}

// fingerprint hashes the resolved type, ranking and every category score, so any
// change in outcome shows up even when the top three stay the same.
func fingerprint(item batch.Item) string {
	res := item.Evaluation.Result
	var sb strings.Builder
	sb.WriteString(res.AssessmentType)
	sb.WriteByte('|')
	sb.WriteString(strings.Join(res.Ranked(), ","))
	for _, cs := range res.Scores {
		fmt.Fprintf(&sb, "|%s=%d", cs.Name, cs.Score)
	}
	hash := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", hash)
}
