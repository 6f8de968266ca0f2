// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/goccy/go-yaml"
)

// optionDef is one [[option]] entry of a registry file.
type optionDef struct {
	Number     uint16 `toml:"number"     yaml:"number"`
	Name       string `toml:"name"       yaml:"name"`
	Format     string `toml:"format"     yaml:"format"`
	Repeatable bool   `toml:"repeatable" yaml:"repeatable"`
	MinLen     int    `toml:"min_len"    yaml:"min_len"`
	MaxLen     int    `toml:"max_len"    yaml:"max_len"`
}

type registryFile struct {
	Options []optionDef `toml:"option" yaml:"option"`
}

// LoadRegistry reads other-option definitions from a .toml, .yaml or .yml
// file. An empty path yields a nil registry, which knows the registered
// options only.
func LoadRegistry(path string) (*option.Registry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f registryFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidInput, path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: %s: unknown key %q", errors.ErrInvalidInput, path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data), yaml.Strict())
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidInput, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported registry file extension %q", errors.ErrInvalidInput, ext)
	}

	defs := make([]option.Def, 0, len(f.Options))
	for _, d := range f.Options {
		format, err := option.ParseFormat(d.Format)
		if err != nil {
			return nil, fmt.Errorf("%s: option %d: %w", path, d.Number, err)
		}
		if d.MinLen < 0 || d.MaxLen < 0 || (d.MaxLen > 0 && d.MinLen > d.MaxLen) {
			return nil, fmt.Errorf("%w: %s: option %d has invalid length bounds", errors.ErrInvalidInput, path, d.Number)
		}
		defs = append(defs, option.Def{
			Number:     option.Number(d.Number),
			Name:       strings.TrimSpace(d.Name),
			Format:     format,
			Repeatable: d.Repeatable,
			MinLen:     d.MinLen,
			MaxLen:     d.MaxLen,
		})
	}
	return option.NewRegistry(defs...)
}
