// SPDX-License-Identifier: MPL-2.0

// Package manifest loads the optional spm.toml that a module archive may carry
// next to its project.json to declare its identity:
//
//	[module]
//	name = "jump"
//	version = "1.2.0"
//	description = "Platformer jump helpers"
//	sprite = "Main"
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/types"
)

// FileName is the manifest file name inside a module archive.
const FileName = "spm.toml"

type (
	// Manifest is the parsed spm.toml.
	Manifest struct {
		Module Module `toml:"module"`
	}

	// Module is the [module] table. Every field is optional.
	Module struct {
		Name        namespace.ModuleName  `toml:"name"`
		Version     types.SemVer          `toml:"version"`
		Description types.DescriptionText `toml:"description"`
		// Sprite names the target that holds the module's scripts.
		Sprite string `toml:"sprite"`
	}
)

// Load reads dir/spm.toml. A missing file yields a nil manifest and no error.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest content. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, &project.InputFormatError{Resource: FileName, Reason: describe(err), Err: err}
	}
	if err := m.Validate(); err != nil {
		return nil, &project.InputFormatError{Resource: FileName, Reason: "invalid [module] table", Err: err}
	}
	return &m, nil
}

// Validate checks the fields that are set.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Module.Name != "" {
		if err := m.Module.Name.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.Module.Version != "" {
		if ok, verrs := m.Module.Version.IsValid(); !ok {
			errs = append(errs, verrs...)
		}
	}
	if m.Module.Description != "" {
		if ok, derrs := m.Module.Description.IsValid(); !ok {
			errs = append(errs, derrs...)
		}
	}
	return errors.Join(errs...)
}

func describe(err error) string {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Sprintf("syntax error at line %d, column %d", row, col)
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) {
		return "unknown keys"
	}
	return "cannot decode"
}
