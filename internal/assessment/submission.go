package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeSubmission parses a submission document. JSON is used for names ending in
// .json; everything else is read as YAML.
func DecodeSubmission(name string, data []byte) (Submission, error) {
	var sub Submission
	if strings.EqualFold(filepath.Ext(name), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&sub); err != nil {
			return Submission{}, fmt.Errorf("error parsing %s: %w", name, err)
		}
	} else if err := yaml.Unmarshal(data, &sub); err != nil {
		return Submission{}, fmt.Errorf("error parsing %s: %w", name, err)
	}
	if sub.Responses == nil {
		sub.Responses = Response{}
	}
	return sub, nil
}

// Document returns the submission as generic data for schema validation.
func (s Submission) Document() map[string]any {
	responses := make(map[string]any, len(s.Responses))
	for id, v := range s.Responses {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				v = i
			} else {
				v = Number(n)
			}
		}
		responses[id] = v
	}
	return map[string]any{
		"assessmentType": s.AssessmentType,
		"responses":      responses,
	}
}
