package edition

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed edition.schema.json
var schemaJSON string

const schemaURL = "https://majestic.schemas.local/edition.schema.json"

// ErrInvalidDocument indicates the document does not have the shape of an
// edition record.
var ErrInvalidDocument = errors.New("invalid edition document")

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load edition schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Decode checks data against the edition schema and decodes it.
func Decode(data []byte) (*Edition, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalidDocument, err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var e Edition
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidDocument, err)
	}
	return &e, nil
}

// Encode renders e as an indented document. External references are sorted
// by (source, id); e itself is not modified.
func Encode(e *Edition) ([]byte, error) {
	if e == nil {
		return nil, errors.New("edition is nil")
	}
	out := *e
	if len(e.ExternalRefs) > 0 {
		out.ExternalRefs = append([]ExternalRef(nil), e.ExternalRefs...)
		sort.SliceStable(out.ExternalRefs, func(i, j int) bool {
			a, b := out.ExternalRefs[i], out.ExternalRefs[j]
			if a.Source != b.Source {
				return a.Source < b.Source
			}
			return a.ID < b.ID
		})
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal edition: %w", err)
	}
	return append(data, '\n'), nil
}
