// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package providers knows where provider datasets live and how to fetch them.
package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jcodagnone/cajero/locator"
	"github.com/jcodagnone/cajero/utils/textutils"
)

var (
	errMultipleMatches  = errors.New("multiple matches")
	errProviderNotFound = errors.New("provider dataset not found")
)

// Reference describes one provider dataset.
type Reference struct {
	Name     string            `json:"name"`              // Name of the dataset, unique in a registry
	Provider string            `json:"provider"`          // Institution the records belong to
	Schema   string            `json:"schema,omitempty"`  // Built-in schema used to read records
	Source   string            `json:"source"`            // file path, http(s)://, s3:// or postgres:// URI
	Type     string            `json:"type,omitempty"`    // Type code of every record, when the dataset has one type
	Headers  map[string]string `json:"headers,omitempty"` // Extra request headers of http sources
}

// Validate checks the reference is complete and its schema exists.
func (r *Reference) Validate() error {
	if r.Name == "" {
		return errors.New("provider reference: name must not be empty")
	}

	if r.Source == "" {
		return fmt.Errorf("provider reference %q: source must not be empty", r.Name)
	}

	if r.Provider == "" && r.Schema != locator.LegacySchema.Name {
		return fmt.Errorf("provider reference %q: provider must not be empty", r.Name)
	}

	if _, err := locator.SchemaByName(r.Schema); err != nil {
		return fmt.Errorf("provider reference %q: %w", r.Name, err)
	}

	return nil
}

// LocatorSchema returns the schema records of this dataset are read with.
func (r *Reference) LocatorSchema() (locator.Schema, error) {
	schema, err := locator.SchemaByName(r.Schema)
	if err != nil {
		return schema, err
	}

	if r.Type != "" {
		schema = schema.WithFixedType(r.Type)
	}

	return schema, nil
}

const kapitalBankLocations = "https://www.kapitalbank.az/locations/region?is_nfc=false&weekend=false&type="

func kapitalBank(name, code string) Reference {
	return Reference{
		Name:     "Kapital Bank " + name,
		Provider: "Kapital Bank",
		Schema:   locator.KapitalBankSchema.Name,
		Source:   kapitalBankLocations + code,
		Type:     code,
		Headers: map[string]string{
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          "https://www.kapitalbank.az/locations/atm/all",
		},
	}
}

// builtins are the datasets known without configuration. Kapital Bank
// publishes one endpoint per service type.
var builtins = []Reference{
	kapitalBank("branches", "branch"),
	kapitalBank("ATMs", "atm"),
	kapitalBank("cash-in machines", "cash_in"),
	kapitalBank("digital centers", "reqemsal-merkez"),
	kapitalBank("payment terminals", "payment_terminal"),
}

// Registry is an ordered set of provider datasets.
type Registry struct {
	refs []Reference
}

// NewRegistry validates refs and returns them as a registry.
func NewRegistry(refs []Reference) (*Registry, error) {
	seen := make(map[string]bool, len(refs))

	for i := range refs {
		if err := refs[i].Validate(); err != nil {
			return nil, err
		}

		key := textutils.FoldKey(refs[i].Name)
		if seen[key] {
			return nil, fmt.Errorf("provider reference %q: duplicate name", refs[i].Name)
		}

		seen[key] = true
	}

	return &Registry{refs: refs}, nil
}

// Builtin returns the built-in registry. When legacyDSN is set the
// consolidated banking_locator.locations table is appended.
func Builtin(legacyDSN string) *Registry {
	refs := append([]Reference{}, builtins...)

	if legacyDSN != "" {
		refs = append(refs, Reference{
			Name:   "Legacy locations",
			Schema: locator.LegacySchema.Name,
			Source: legacyDSN,
		})
	}

	reg, err := NewRegistry(refs)
	if err != nil {
		panic(err)
	}

	return reg
}

// LoadRegistry reads a JSON array of references from path.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading providers file: %w", err)
	}

	var refs []Reference
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("parsing providers file %s: %w", path, err)
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("providers file %s lists no datasets", path)
	}

	return NewRegistry(refs)
}

// Refs returns a copy of the references, in registry order.
func (r *Registry) Refs() []Reference {
	return append([]Reference{}, r.refs...)
}

// Len returns the number of datasets.
func (r *Registry) Len() int {
	return len(r.refs)
}

// Find locates a dataset by its 1-based position or by a case and
// diacritic insensitive prefix of its name.
func (r *Registry) Find(q string) (*Reference, error) {
	if q == "" {
		return nil, errors.New("empty search query")
	}

	var predicate func(i int, ref *Reference) bool
	if n, err := strconv.Atoi(q); err == nil {
		predicate = func(i int, _ *Reference) bool {
			return i+1 == n
		}
	} else {
		key := textutils.FoldKey(q)
		predicate = func(_ int, ref *Reference) bool {
			return strings.HasPrefix(textutils.FoldKey(ref.Name), key)
		}
	}

	var found *Reference

	for i := range r.refs {
		if !predicate(i, &r.refs[i]) {
			continue
		}

		// exact names win over prefixes
		if textutils.FoldKey(r.refs[i].Name) == textutils.FoldKey(q) {
			ref := r.refs[i]

			return &ref, nil
		}

		if found != nil {
			return nil, fmt.Errorf("%w for %q: %q, %q", errMultipleMatches, q, found.Name, r.refs[i].Name)
		}

		ref := r.refs[i]
		found = &ref
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %q", errProviderNotFound, q)
	}

	return found, nil
}

// Each applies callback to each dataset, stopping at the first error.
func (r *Registry) Each(callback func(Reference) error) error {
	for i := range r.refs {
		if err := callback(r.refs[i]); err != nil {
			return err
		}
	}

	return nil
}

// Select returns a registry restricted to the datasets matching queries, as
// resolved by Find. No query selects everything.
func (r *Registry) Select(queries []string) (*Registry, error) {
	if len(queries) == 0 {
		return r, nil
	}

	refs := make([]Reference, 0, len(queries))

	for _, q := range queries {
		ref, err := r.Find(q)
		if err != nil {
			return nil, err
		}

		refs = append(refs, *ref)
	}

	return &Registry{refs: refs}, nil
}
