package assessment

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// Assessment type identifiers shipped with the engine
const (
	TypeSpiritualGifts = "spiritual-gifts"
	TypeSeasonal       = "seasonal"

	// DefaultType is used when a caller names a type the catalog does not know.
	DefaultType = TypeSpiritualGifts
)

// Category maps a scoring bucket to the questions that feed it.
type Category struct {
	Name      string    `yaml:"name" json:"name"`
	Questions []string  `yaml:"questions" json:"questions"`
	Divisor   float64   `yaml:"divisor" json:"divisor"`
	Narrative Narrative `yaml:"narrative" json:"narrative"`
}

// Definition is the static table for one assessment type.
type Definition struct {
	Type            string     `yaml:"type" json:"type"`
	Name            string     `yaml:"name" json:"name"`
	Order           int        `yaml:"order" json:"order"`
	DefaultCategory string     `yaml:"default_category" json:"default_category"`
	LikertMax       float64    `yaml:"likert_max" json:"likert_max"`
	Scale           float64    `yaml:"scale" json:"scale"`
	Categories      []Category `yaml:"categories" json:"categories"`
}

// Category returns the named category.
func (d *Definition) Category(name string) (Category, bool) {
	for _, c := range d.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryNames lists category names in declared order.
func (d *Definition) CategoryNames() []string {
	names := make([]string, len(d.Categories))
	for i, c := range d.Categories {
		names[i] = c.Name
	}
	return names
}

// QuestionIDs lists every question id the definition reads, in first-seen order.
func (d *Definition) QuestionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range d.Categories {
		for _, q := range c.Questions {
			if !seen[q] {
				seen[q] = true
				ids = append(ids, q)
			}
		}
	}
	return ids
}

// Catalog holds the immutable assessment tables.
type Catalog struct {
	defs  map[string]*Definition
	order []string
}

// NewCatalog builds a catalog from definitions, checking each for consistency.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("catalog has no assessment types")
	}
	c := &Catalog{defs: make(map[string]*Definition, len(defs))}
	for i := range defs {
		def := defs[i]
		if err := checkDefinition(&def); err != nil {
			return nil, err
		}
		if _, dup := c.defs[def.Type]; dup {
			return nil, fmt.Errorf("duplicate assessment type %q", def.Type)
		}
		c.defs[def.Type] = &def
		c.order = append(c.order, def.Type)
	}
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.defs[c.order[i]].Order < c.defs[c.order[j]].Order
	})
	return c, nil
}

// ParseDefinition decodes one YAML table.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("error parsing assessment table: %w", err)
	}
	return def, nil
}

func checkDefinition(def *Definition) error {
	if def.Type == "" {
		return fmt.Errorf("assessment table has no type")
	}
	if len(def.Categories) == 0 {
		return fmt.Errorf("%s: no categories", def.Type)
	}
	if def.LikertMax <= 0 {
		return fmt.Errorf("%s: likert_max must be positive", def.Type)
	}
	if def.Scale <= 0 {
		return fmt.Errorf("%s: scale must be positive", def.Type)
	}
	names := make(map[string]bool, len(def.Categories))
	for _, cat := range def.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%s: category with no name", def.Type)
		}
		if names[cat.Name] {
			return fmt.Errorf("%s: duplicate category %q", def.Type, cat.Name)
		}
		names[cat.Name] = true
		if cat.Divisor <= 0 {
			return fmt.Errorf("%s/%s: divisor must be positive", def.Type, cat.Name)
		}
		if len(cat.Questions) == 0 {
			return fmt.Errorf("%s/%s: no questions", def.Type, cat.Name)
		}
		// A divisor below the question count would let the score pass 100.
		if cat.Divisor < float64(len(cat.Questions)) {
			return fmt.Errorf("%s/%s: divisor %v is less than question count %d", def.Type, cat.Name, cat.Divisor, len(cat.Questions))
		}
	}
	if def.DefaultCategory == "" {
		def.DefaultCategory = def.Categories[0].Name
	}
	if !names[def.DefaultCategory] {
		return fmt.Errorf("%s: default category %q not defined", def.Type, def.DefaultCategory)
	}
	return nil
}

// Types returns the known type identifiers in catalog order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether the type is defined.
func (c *Catalog) Has(assessmentType string) bool {
	_, ok := c.defs[assessmentType]
	return ok
}

// Lookup returns a copy of the definition for a type.
func (c *Catalog) Lookup(assessmentType string) (Definition, bool) {
	def, ok := c.defs[assessmentType]
	if !ok {
		return Definition{}, false
	}
	return def.clone(), true
}

// definition returns the shared table; callers must not mutate it.
func (c *Catalog) definition(assessmentType string) (*Definition, bool) {
	def, ok := c.defs[assessmentType]
	return def, ok
}

func (d *Definition) clone() Definition {
	out := *d
	out.Categories = make([]Category, len(d.Categories))
	for i, cat := range d.Categories {
		out.Categories[i] = Category{
			Name:      cat.Name,
			Questions: cloneStrings(cat.Questions),
			Divisor:   cat.Divisor,
			Narrative: cat.Narrative.clone(),
		}
	}
	return out
}

var (
	builtinOnce    sync.Once
	builtinCatalog *Catalog
	builtinErr     error
)

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		builtinCatalog, builtinErr = loadEmbedded()
	})
	if builtinErr != nil {
		panic(fmt.Sprintf("assessment: embedded catalog is invalid: %v", builtinErr))
	}
	return builtinCatalog
}

// EmbeddedTables returns the raw YAML of each compiled-in table keyed by file name.
func EmbeddedTables() (map[string][]byte, error) {
	entries, err := catalogFS.ReadDir("catalog")
	if err != nil {
		return nil, fmt.Errorf("error reading embedded catalog: %w", err)
	}
	out := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := catalogFS.ReadFile(path.Join("catalog", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", entry.Name(), err)
		}
		out[entry.Name()] = data
	}
	return out, nil
}

func loadEmbedded() (*Catalog, error) {
	tables, err := EmbeddedTables()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		def, err := ParseDefinition(tables[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		defs = append(defs, def)
	}
	return NewCatalog(defs...)
}
