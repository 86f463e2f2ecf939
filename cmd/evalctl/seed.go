package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/godilite/wellness-eval/internal/catalog"
)

type seedFile struct {
	Entities []catalog.Entity `yaml:"entities"`
}

// loadSeedFile reads an `entities:` list. Unknown keys are rejected.
func loadSeedFile(path string) ([]catalog.Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parse %s: %v", catalog.ErrMalformedInput, path, err)
	}
	if len(f.Entities) == 0 {
		return nil, fmt.Errorf("%w: %s has no entities", catalog.ErrMalformedInput, path)
	}
	// Nothing is written unless the whole file is valid.
	for i, e := range f.Entities {
		if err := catalog.Validate(e); err != nil {
			return nil, fmt.Errorf("entities[%d]: %w", i, err)
		}
	}
	return f.Entities, nil
}
