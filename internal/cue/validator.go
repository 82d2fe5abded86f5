package cue

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/dotcommander/assess/internal/assessment"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Schema names
const (
	SchemaSubmission = "submission"
	SchemaCatalog    = "catalog"
)

// Rule source constants
const (
	SourceSchema  = "schema"  // CUE schema constraint
	SourceCatalog = "catalog" // cross-check against the assessment tables
)

// ValidationError represents a validation error
type ValidationError struct {
	File     string `json:"file"`
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
	Source   string `json:"source"`
}

func (e ValidationError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Validator handles CUE validation
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	catalog *assessment.Catalog
}

// NewValidator creates a new Validator instance
func NewValidator(catalog *assessment.Catalog) *Validator {
	if catalog == nil {
		catalog = assessment.Builtin()
	}
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
		catalog: catalog,
	}
}

// LoadSchemas compiles the embedded CUE schema files
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("could not read embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return fmt.Errorf("could not read schema %s: %w", entry.Name(), err)
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if instErr := inst.Err(); instErr != nil {
			return fmt.Errorf("could not compile schema %s: %w", entry.Name(), instErr)
		}

		// submission.cue -> submission
		schemaName := strings.TrimSuffix(entry.Name(), ".cue")
		v.schemas[schemaName] = inst.Value()
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas loaded")
	}

	return nil
}

// Schemas lists the loaded schema names
func (v *Validator) Schemas() []string {
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateSubmission checks a submission against the schema and the catalog.
// An unknown assessment type or unmapped question id is a warning, since the
// engine still produces a result for it.
func (v *Validator) ValidateSubmission(file string, sub assessment.Submission) ([]ValidationError, error) {
	errs, err := v.validateAgainstSchema(SchemaSubmission, sub.Document())
	if err != nil {
		return nil, err
	}
	for i := range errs {
		errs[i].File = file
	}

	def, ok := v.catalog.Lookup(sub.AssessmentType)
	if !ok {
		errs = append(errs, ValidationError{
			File:     file,
			Path:     "assessmentType",
			Message:  fmt.Sprintf("unknown assessment type %q; it will be scored as the default type", sub.AssessmentType),
			Severity: "warning",
			Source:   SourceCatalog,
		})
		return errs, nil
	}

	known := make(map[string]bool)
	for _, id := range def.QuestionIDs() {
		known[id] = true
	}
	ids := make([]string, 0, len(sub.Responses))
	for id := range sub.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !known[id] {
			errs = append(errs, ValidationError{
				File:     file,
				Path:     "responses." + id,
				Message:  fmt.Sprintf("question %s is not used by %s", id, def.Type),
				Severity: "warning",
				Source:   SourceCatalog,
			})
		}
	}
	return errs, nil
}

// ValidateCatalogTable checks one raw YAML assessment table against the schema.
func (v *Validator) ValidateCatalogTable(file string, content []byte) ([]ValidationError, error) {
	var data map[string]any
	if err := yamlv3.Unmarshal(content, &data); err != nil {
		return []ValidationError{{
			File:     file,
			Message:  fmt.Sprintf("error parsing table: %v", err),
			Severity: "error",
			Source:   SourceSchema,
		}}, nil
	}
	errs, err := v.validateAgainstSchema(SchemaCatalog, data)
	if err != nil {
		return nil, err
	}
	for i := range errs {
		errs[i].File = file
	}
	return errs, nil
}

// ValidateEmbeddedCatalog validates every compiled-in assessment table.
func (v *Validator) ValidateEmbeddedCatalog() ([]ValidationError, error) {
	tables, err := assessment.EmbeddedTables()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var all []ValidationError
	for _, name := range names {
		errs, err := v.ValidateCatalogTable(name, tables[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		all = append(all, errs...)
	}
	return all, nil
}

// validateAgainstSchema validates data against a CUE schema definition
func (v *Validator) validateAgainstSchema(schemaName string, data map[string]any) ([]ValidationError, error) {
	schema, ok := v.schemas[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %q not loaded", schemaName)
	}

	dataValue := v.ctx.Encode(data)
	if encErr := dataValue.Err(); encErr != nil {
		return nil, fmt.Errorf("error encoding data: %w", encErr)
	}

	// submission -> #Submission
	defPath := cue.ParsePath("#" + strings.ToUpper(schemaName[:1]) + schemaName[1:])
	def := schema.LookupPath(defPath)
	if !def.Exists() {
		return nil, fmt.Errorf("schema %q has no definition %s", schemaName, defPath)
	}

	unified := def.Unify(dataValue)
	if err := unified.Err(); err != nil {
		return extractErrorsFromCUE(err), nil
	}

	// Concreteness catches required fields that are absent
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return extractErrorsFromCUE(err), nil
	}

	return nil, nil
}

// extractErrorsFromCUE splits a CUE error into one ValidationError per failing path.
// Disjunction failures expand into several messages for the same path; the first wins.
func extractErrorsFromCUE(err error) []ValidationError {
	var out []ValidationError
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		p := fieldPath(e.Path())
		if seen[p] {
			continue
		}
		seen[p] = true

		format, args := e.Msg()
		out = append(out, ValidationError{
			Path:     p,
			Message:  fmt.Sprintf(format, args...),
			Severity: "error",
			Source:   SourceSchema,
		})
	}
	if len(out) == 0 {
		out = append(out, ValidationError{
			Message:  fmt.Sprintf("schema validation failed: %v", err),
			Severity: "error",
			Source:   SourceSchema,
		})
	}
	return out
}

// fieldPath joins CUE selectors, dropping the quotes around non-identifier labels
func fieldPath(selectors []string) string {
	parts := make([]string, len(selectors))
	for i, s := range selectors {
		parts[i] = strings.Trim(s, `"`)
	}
	return strings.Join(parts, ".")
}

// HasErrors reports whether any entry has error severity
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}
