package services

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"monotributo-dashboard/internal/models"
)

// CategoryTable maps regime categories to their annual billing ceilings.
// Ceilings are strictly increasing in table order. A table never changes
// after construction.
type CategoryTable struct {
	bands   []models.CategoryBand
	byLabel map[string]int
}

var defaultBands = []struct {
	label   string
	ceiling string
}{
	{"A", "7813063.45"},
	{"B", "11447046.44"},
	{"C", "16050091.57"},
	{"D", "19926340.10"},
	{"E", "23439190.34"},
	{"F", "29374695.90"},
	{"G", "35128502.31"},
	{"H", "53298417.30"},
	{"I", "59657887.55"},
	{"J", "68318880.36"},
	{"K", "82370281.28"},
}

func DefaultCategoryTable() *CategoryTable {
	bands := make([]models.CategoryBand, 0, len(defaultBands))
	for _, b := range defaultBands {
		bands = append(bands, models.CategoryBand{Label: b.label, Ceiling: decimal.RequireFromString(b.ceiling)})
	}
	table, err := NewCategoryTable(bands)
	if err != nil {
		panic(err)
	}
	return table
}

func NewCategoryTable(bands []models.CategoryBand) (*CategoryTable, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	t := &CategoryTable{
		bands:   make([]models.CategoryBand, len(bands)),
		byLabel: make(map[string]int, len(bands)),
	}
	copy(t.bands, bands)

	for i, b := range t.bands {
		if b.Label == "" {
			return nil, fmt.Errorf("category %d has no label", i)
		}
		if _, dup := t.byLabel[b.Label]; dup {
			return nil, fmt.Errorf("category %q defined twice", b.Label)
		}
		if b.Ceiling.IsNegative() {
			return nil, fmt.Errorf("category %q has negative ceiling %s", b.Label, b.Ceiling)
		}
		if i > 0 && !b.Ceiling.GreaterThan(t.bands[i-1].Ceiling) {
			return nil, fmt.Errorf("category %q ceiling %s must exceed %q ceiling %s",
				b.Label, b.Ceiling, t.bands[i-1].Label, t.bands[i-1].Ceiling)
		}
		t.byLabel[b.Label] = i
	}
	return t, nil
}

type categoryFile struct {
	Categories []struct {
		Label   string `yaml:"label"`
		Ceiling string `yaml:"ceiling"`
	} `yaml:"categories"`
}

// LoadCategoryTable reads a YAML ceiling table, used when the regime
// publishes new ceilings before a release ships them.
func LoadCategoryTable(path string) (*CategoryTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category file: %w", err)
	}
	return ParseCategoryTable(data)
}

func ParseCategoryTable(data []byte) (*CategoryTable, error) {
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode category file: %w", err)
	}

	bands := make([]models.CategoryBand, 0, len(f.Categories))
	for _, c := range f.Categories {
		ceiling, err := decimal.NewFromString(c.Ceiling)
		if err != nil {
			return nil, fmt.Errorf("category %q ceiling %q: %w", c.Label, c.Ceiling, err)
		}
		bands = append(bands, models.CategoryBand{Label: c.Label, Ceiling: ceiling})
	}
	return NewCategoryTable(bands)
}

func (t *CategoryTable) Bands() []models.CategoryBand {
	out := make([]models.CategoryBand, len(t.bands))
	copy(out, t.bands)
	return out
}

func (t *CategoryTable) Labels() []string {
	labels := make([]string, len(t.bands))
	for i, b := range t.bands {
		labels[i] = b.Label
	}
	return labels
}

func (t *CategoryTable) Ceiling(label string) (decimal.Decimal, bool) {
	i, ok := t.byLabel[label]
	if !ok {
		return decimal.Zero, false
	}
	return t.bands[i].Ceiling, true
}

// EvaluateCategory compares accumulated billing with the ceiling of the
// current category. When the ceiling is exceeded the first band, in
// ascending order, whose ceiling covers the accumulated amount is the new
// category; if none does, NoHigherCategory is set.
func EvaluateCategory(accumulated decimal.Decimal, current string, table *CategoryTable) (models.CategoryStatus, error) {
	ceiling, ok := table.Ceiling(current)
	if !ok {
		return models.CategoryStatus{}, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", current)}
	}

	status := models.CategoryStatus{
		Current:     current,
		Ceiling:     ceiling,
		Accumulated: accumulated,
		Margin:      decimal.Max(decimal.Zero, ceiling.Sub(accumulated)),
		Excess:      decimal.Max(decimal.Zero, accumulated.Sub(ceiling)),
	}
	if !status.Excess.IsPositive() {
		return status, nil
	}

	status.Exceeded = true
	for _, b := range table.bands {
		if accumulated.LessThanOrEqual(b.Ceiling) {
			status.Recategorized = b.Label
			return status, nil
		}
	}
	status.NoHigherCategory = true
	return status, nil
}
