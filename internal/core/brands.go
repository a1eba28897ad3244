package core

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// DefaultBrandColor is used for names missing from the brand table.
const DefaultBrandColor = "#6B7280"

// Brand holds the presentation defaults for a known subscription name.
type Brand struct {
	Color   string `yaml:"color" json:"color"`
	Initial string `yaml:"initial" json:"initial"`
}

//go:embed brands.yaml
var brandsYAML []byte

// brands is loaded once at init and never mutated.
var brands = mustLoadBrands(brandsYAML)

func mustLoadBrands(raw []byte) map[string]Brand {
	m, err := loadBrands(raw)
	if err != nil {
		panic(fmt.Sprintf("core: load brand table: %v", err))
	}
	return m
}

func loadBrands(raw []byte) (map[string]Brand, error) {
	var m map[string]Brand
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(map[string]Brand, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out, nil
}

// LookupBrand returns the display defaults for name. Unknown names get the
// default color and their upper-cased first letter ("?" when empty).
func LookupBrand(name string) Brand {
	if b, ok := brands[strings.ToLower(strings.TrimSpace(name))]; ok {
		return b
	}
	return Brand{Color: DefaultBrandColor, Initial: fallbackInitial(name)}
}

// IsKnownBrand reports whether name has an entry in the brand table.
func IsKnownBrand(name string) bool {
	_, ok := brands[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func fallbackInitial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
