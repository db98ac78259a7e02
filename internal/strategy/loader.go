package strategy

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// file is the YAML layout of a catalog override
type file struct {
	Strategies []Definition `yaml:"strategies"`
}

// LoadFile reads a YAML catalog
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML catalog from memory
func Parse(data []byte) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode strategy file: %w", err)
	}

	for i := range f.Strategies {
		for j := range f.Strategies[i].Predicates {
			f.Strategies[i].Predicates[j].normalize()
		}
	}

	return NewCatalog(f.Strategies)
}
