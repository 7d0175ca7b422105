// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"fmt"
	"sort"
	"strings"
)

// Schema maps one provider's raw field names onto Location fields. Each slice
// lists candidate keys in priority order; the first present, non-empty value
// wins.
type Schema struct {
	Name         string
	IDKeys       []string
	ProviderKeys []string
	TypeKeys     []string
	NameKeys     []string
	AddressKeys  []string
	LatKeys      []string
	LngKeys      []string
	HoursKeys    []string
	PhoneKeys    []string
	ServiceKeys  []string

	// FixedType, when set, is the type code of every record in the dataset
	// and the record level type keys are not consulted.
	FixedType string
}

var (
	latitudeKeys  = []string{"latitude", "lat"}
	longitudeKeys = []string{"longitude", "lon", "lng"}
)

// GenericSchema accepts the spellings most JSON datasets use.
var GenericSchema = Schema{
	Name:        "generic",
	IDKeys:      []string{"id", "external_id", "externalId", "code"},
	TypeKeys:    []string{"serviceType", "service_type", "type", "category"},
	NameKeys:    []string{"displayName", "display_name", "name", "title"},
	AddressKeys: []string{"address", "addr", "location"},
	LatKeys:     latitudeKeys,
	LngKeys:     longitudeKeys,
	HoursKeys:   []string{"hours", "working_hours", "workingHours", "schedule"},
	PhoneKeys:   []string{"phone", "phone_number", "tel"},
	ServiceKeys: []string{"services", "features"},
}

// KapitalBankSchema reads the per-type datasets published by Kapital Bank.
var KapitalBankSchema = Schema{
	Name:        "kapitalbank",
	IDKeys:      []string{"id"},
	TypeKeys:    []string{"type"},
	NameKeys:    []string{"name", "title"},
	AddressKeys: []string{"address"},
	LatKeys:     []string{"lat", "latitude"},
	LngKeys:     []string{"lng", "lon", "longitude"},
	HoursKeys:   []string{"work_hours", "working_hours", "workHours"},
	PhoneKeys:   []string{"phone", "phones"},
	ServiceKeys: []string{"services"},
}

// LegacySchema reads rows of the consolidated banking_locator.locations
// table, where the company column names the provider of each row.
var LegacySchema = Schema{
	Name:         "legacy",
	IDKeys:       []string{"id"},
	ProviderKeys: []string{"company"},
	TypeKeys:     []string{"type"},
	NameKeys:     []string{"name"},
	AddressKeys:  []string{"address"},
	LatKeys:      []string{"lat", "latitude"},
	LngKeys:      []string{"lon", "lng", "longitude"},
}

var schemas = map[string]Schema{
	GenericSchema.Name:     GenericSchema,
	KapitalBankSchema.Name: KapitalBankSchema,
	LegacySchema.Name:      LegacySchema,
}

// SchemaByName returns a built-in schema. An empty name selects the generic
// schema.
func SchemaByName(name string) (Schema, error) {
	if name == "" {
		return GenericSchema, nil
	}

	schema, ok := schemas[strings.ToLower(name)]
	if !ok {
		return Schema{}, fmt.Errorf("unknown schema %q (known: %s)", name, strings.Join(SchemaNames(), ", "))
	}

	return schema, nil
}

// SchemaNames returns the names of the built-in schemas, sorted.
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// WithFixedType returns a copy of s that types every record as code.
func (s Schema) WithFixedType(code string) Schema {
	s.FixedType = code

	return s
}
