// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jcodagnone/cajero/spatial"
	"github.com/jcodagnone/cajero/utils/textutils"
)

// Severity tells whether a Diagnostic dropped its record.
type Severity string

const (
	// SeverityRejected means the record was dropped.
	SeverityRejected Severity = "rejected"
	// SeverityWarning means the record was kept, possibly altered.
	SeverityWarning Severity = "warning"
)

// Diagnostic describes a problem found with a single provider record.
type Diagnostic struct {
	Provider string   `json:"provider"`
	Index    int      `json:"index"`
	RecordID string   `json:"record_id,omitempty"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}

func (d Diagnostic) String() string {
	id := d.RecordID
	if id == "" {
		id = "#" + strconv.Itoa(d.Index)
	}

	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Provider, id, d.Reason)
}

// idNamespace scopes the name based UUIDs assigned to locations.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jcodagnone/cajero/locations"))

// Normalize maps a provider's raw records to Locations. Records without a
// usable coordinate are rejected; unknown type codes map to ServiceOther. Both
// produce diagnostics. The result only depends on the arguments.
func Normalize(provider string, schema Schema, records []RawRecord) ([]*Location, []Diagnostic) {
	locations := make([]*Location, 0, len(records))

	var diags []Diagnostic

	for i, rec := range records {
		loc, recDiags := normalizeRecord(provider, schema, i, rec)
		diags = append(diags, recDiags...)

		if loc != nil {
			locations = append(locations, loc)
		}
	}

	return locations, diags
}

func normalizeRecord(provider string, schema Schema, index int, rec RawRecord) (*Location, []Diagnostic) {
	naturalKey, _ := firstString(rec, schema.IDKeys)

	if p, ok := firstString(rec, schema.ProviderKeys); ok {
		provider = p
	}

	provider = strings.TrimSpace(provider)

	diag := func(sev Severity, format string, args ...any) Diagnostic {
		return Diagnostic{
			Provider: provider,
			Index:    index,
			RecordID: naturalKey,
			Severity: sev,
			Reason:   fmt.Sprintf(format, args...),
		}
	}

	if rec == nil {
		return nil, []Diagnostic{diag(SeverityRejected, "empty record")}
	}

	if provider == "" {
		return nil, []Diagnostic{diag(SeverityRejected, "missing provider")}
	}

	lat, reason := coordinate(rec, schema.LatKeys, "latitude")
	if reason != "" {
		return nil, []Diagnostic{diag(SeverityRejected, "%s", reason)}
	}

	lng, reason := coordinate(rec, schema.LngKeys, "longitude")
	if reason != "" {
		return nil, []Diagnostic{diag(SeverityRejected, "%s", reason)}
	}

	point := spatial.Point{Lat: lat, Lng: lng}
	if err := point.Validate(); err != nil {
		return nil, []Diagnostic{diag(SeverityRejected, "%v", err)}
	}

	var diags []Diagnostic

	code := schema.FixedType
	if code == "" {
		code, _ = firstString(rec, schema.TypeKeys)
	}

	serviceType, ok := ParseServiceType(code)
	if !ok {
		if code == "" {
			diags = append(diags, diag(SeverityWarning, "missing service type, mapped to %s", ServiceOther))
		} else if !strings.EqualFold(code, string(ServiceOther)) {
			diags = append(diags, diag(SeverityWarning, "unknown service type %q, mapped to %s", code, ServiceOther))
		}
	}

	name, _ := firstString(rec, schema.NameKeys)
	address, _ := firstString(rec, schema.AddressKeys)
	hours, _ := firstString(rec, schema.HoursKeys)
	phone, _ := firstString(rec, schema.PhoneKeys)

	var services []string

	for _, key := range schema.ServiceKeys {
		if s, ok := textutils.AnyToStringSlice(rec[key]); ok && len(s) > 0 {
			services = s

			break
		}
	}

	displayName := name
	if displayName == "" {
		displayName = address
	}

	if displayName == "" {
		displayName = provider + " " + string(serviceType)
	}

	loc := &Location{
		Provider:    provider,
		ServiceType: serviceType,
		DisplayName: displayName,
		Address:     address,
		Point:       point,
		Hours:       hours,
		Phone:       phone,
		Services:    services,
	}
	loc.ID = locationID(loc, naturalKey)

	return loc, diags
}

// locationID derives a deterministic id. A natural key is scoped by provider
// and type since a provider may number each of its datasets independently.
func locationID(loc *Location, naturalKey string) string {
	var name string
	if naturalKey != "" {
		name = strings.Join([]string{"key", loc.Provider, string(loc.ServiceType), naturalKey}, "\x1f")
	} else {
		name = strings.Join([]string{
			"content",
			loc.Provider,
			string(loc.ServiceType),
			loc.DisplayName,
			loc.Address,
			strconv.FormatFloat(loc.Point.Lat, 'f', 6, 64),
			strconv.FormatFloat(loc.Point.Lng, 'f', 6, 64),
		}, "\x1f")
	}

	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}

// coordinate returns the value of the first present key, or a rejection
// reason.
func coordinate(rec RawRecord, keys []string, label string) (float64, string) {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}

		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}

		f, ok := textutils.AnyToFloat(v)
		if !ok {
			return 0, fmt.Sprintf("%s is not a finite number: %v", label, v)
		}

		return f, ""
	}

	return 0, "missing " + label
}

func firstString(rec RawRecord, keys []string) (string, bool) {
	for _, key := range keys {
		if s, ok := textutils.AnyToString(rec[key]); ok && s != "" {
			return s, true
		}
	}

	return "", false
}
