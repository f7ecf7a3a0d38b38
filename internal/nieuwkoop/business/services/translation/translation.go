package translation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindCategory    Kind = "categories"
	KindSubcategory Kind = "subcategories"
	KindMaterial    Kind = "materials"
	KindCountry     Kind = "countries"
)

//go:embed translations.yaml
var defaultTable []byte

// Lookup переводит значение поставщика; неизвестное значение возвращается как есть.
type Lookup interface {
	Lookup(kind Kind, english string) string
}

type Table struct {
	Categories    map[string]string `yaml:"categories"`
	Subcategories map[string]string `yaml:"subcategories"`
	Materials     map[string]string `yaml:"materials"`
	Countries     map[string]string `yaml:"countries"`

	index map[Kind]map[string]string
}

func Default() *Table {
	t, err := Parse(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded translation table is invalid: %v", err))
	}
	return t
}

// Load читает таблицу из файла; пустой путь означает встроенную таблицу.
// Записи файла дополняют и перекрывают встроенные.
func Load(path string) (*Table, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read translations file: %w", err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	base.merge(override)
	return base, nil
}

func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse translations: %w", err)
	}
	t.reindex()
	return &t, nil
}

func (t *Table) Lookup(kind Kind, english string) string {
	key := normalize(english)
	if key == "" {
		return english
	}
	if translated, ok := t.index[kind][key]; ok {
		return translated
	}
	return english
}

func (t *Table) merge(other *Table) {
	t.Categories = mergeMap(t.Categories, other.Categories)
	t.Subcategories = mergeMap(t.Subcategories, other.Subcategories)
	t.Materials = mergeMap(t.Materials, other.Materials)
	t.Countries = mergeMap(t.Countries, other.Countries)
	t.reindex()
}

func (t *Table) reindex() {
	t.index = map[Kind]map[string]string{
		KindCategory:    lowerKeys(t.Categories),
		KindSubcategory: lowerKeys(t.Subcategories),
		KindMaterial:    lowerKeys(t.Materials),
		KindCountry:     lowerKeys(t.Countries),
	}
}

func mergeMap(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalize(k)] = v
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
