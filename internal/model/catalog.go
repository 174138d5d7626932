package model

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// catalogFile is the on-disk layout of a model catalog.
type catalogFile struct {
	Models []catalogModel `toml:"model"`
}

type catalogModel struct {
	Name      string  `toml:"name"`
	Table     string  `toml:"table"`
	KeyColumn string  `toml:"key_column"`
	Fields    []Field `toml:"field"`
}

// LoadCatalog reads additional models from a TOML catalog file.
func LoadCatalog(path string) ([]*Model, error) {
	var cf catalogFile
	md, err := toml.DecodeFile(path, &cf)
	if err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog %s: unknown keys %v", path, undecoded)
	}
	return catalogModels(cf), nil
}

// ParseCatalog reads additional models from TOML text.
func ParseCatalog(data string) ([]*Model, error) {
	var cf catalogFile
	if _, err := toml.Decode(data, &cf); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return catalogModels(cf), nil
}

func catalogModels(cf catalogFile) []*Model {
	models := make([]*Model, 0, len(cf.Models))
	for _, cm := range cf.Models {
		models = append(models, &Model{
			Name:      cm.Name,
			Table:     cm.Table,
			KeyColumn: cm.KeyColumn,
			Fields:    cm.Fields,
		})
	}
	return models
}

// LoadRegistry builds the registry of built-in models plus those in the
// catalog at path. An empty path loads the built-ins only.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewBuiltinRegistry()
	}
	extra, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return NewBuiltinRegistry(extra...)
}
