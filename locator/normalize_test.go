// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jcodagnone/cajero/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceType(t *testing.T) {
	tests := []struct {
		code string
		want ServiceType
		ok   bool
	}{
		{"atm", ServiceATM, true},
		{"ATM", ServiceATM, true},
		{"branch", ServiceBranch, true},
		{"Filial", ServiceBranch, true},
		{"payment_terminal", ServicePaymentTerminal, true},
		{"paymentTerminal", ServicePaymentTerminal, true},
		{"Ödəniş terminalı", ServicePaymentTerminal, true},
		{"reqemsal-merkez", ServiceDigitalCenter, true},
		{"rəqəmsal mərkəz", ServiceDigitalCenter, true},
		{"digital_center", ServiceDigitalCenter, true},
		{"cash_in", ServiceCashIn, true},
		{"cash-in", ServiceCashIn, true},
		{"cashIn", ServiceCashIn, true},
		{"other", ServiceOther, true},
		{"kiosk", ServiceOther, false},
		{"", ServiceOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := ParseServiceType(tt.code)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNormalizeCoordinateSpellings(t *testing.T) {
	records := []RawRecord{
		{"id": "1", "type": "atm", "latitude": 40.4, "longitude": 49.8},
		{"id": "2", "type": "atm", "lat": 40.4, "lon": 49.8},
		{"id": "3", "type": "atm", "lat": "40.4", "lng": " 49.8 "},
		{"id": "4", "type": "atm", "lat": json.Number("40.4"), "lng": "49,8"},
	}

	locs, diags := Normalize("Bank", GenericSchema, records)

	require.Empty(t, diags)
	require.Len(t, locs, 4)

	for _, loc := range locs {
		assert.InDelta(t, 40.4, loc.Point.Lat, 1e-12)
		assert.InDelta(t, 49.8, loc.Point.Lng, 1e-12)
	}
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name   string
		record RawRecord
		reason string
	}{
		{"missing latitude", RawRecord{"lng": 49.8}, "missing latitude"},
		{"missing longitude", RawRecord{"lat": 40.4}, "missing longitude"},
		{"empty latitude", RawRecord{"lat": "  ", "lng": 49.8}, "missing latitude"},
		{"non numeric", RawRecord{"lat": "north", "lng": 49.8}, "latitude is not a finite number: north"},
		{"out of range latitude", RawRecord{"lat": 95.0, "lng": 49.8}, "latitude must be between -90 and 90"},
		{"out of range longitude", RawRecord{"lat": 40.4, "lng": -181.0}, "longitude must be between -180 and 180"},
		{"not a scalar", RawRecord{"lat": []any{1.0}, "lng": 49.8}, "latitude is not a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs, diags := Normalize("Bank", GenericSchema, []RawRecord{tt.record})

			assert.Empty(t, locs)
			require.Len(t, diags, 1)
			assert.Equal(t, SeverityRejected, diags[0].Severity)
			assert.Equal(t, "Bank", diags[0].Provider)
			assert.Contains(t, diags[0].Reason, tt.reason)
		})
	}
}

func TestNormalizeRejectsOnlyBadRecords(t *testing.T) {
	records := []RawRecord{
		{"id": "ok-1", "type": "atm", "lat": 40.4, "lng": 49.8},
		{"id": "bad", "type": "atm", "lat": "x", "lng": 49.8},
		{"id": "ok-2", "type": "branch", "lat": 40.5, "lng": 49.9},
	}

	locs, diags := Normalize("Bank", GenericSchema, records)

	require.Len(t, locs, 2)
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Index)
	assert.Equal(t, "bad", diags[0].RecordID)
}

func TestNormalizeUnknownTypeMapsToOther(t *testing.T) {
	locs, diags := Normalize("Bank", GenericSchema, []RawRecord{
		{"id": "1", "type": "kiosk", "lat": 40.4, "lng": 49.8},
		{"id": "2", "lat": 40.4, "lng": 49.9},
		{"id": "3", "type": "other", "lat": 40.4, "lng": 50.0},
	})

	require.Len(t, locs, 3)

	for _, loc := range locs {
		assert.Equal(t, ServiceOther, loc.ServiceType)
	}

	require.Len(t, diags, 2)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Reason, `unknown service type "kiosk"`)
	assert.Contains(t, diags[1].Reason, "missing service type")
}

func TestNormalizeFixedType(t *testing.T) {
	schema := KapitalBankSchema.WithFixedType("reqemsal-merkez")

	locs, diags := Normalize("Kapital Bank", schema, []RawRecord{
		{"id": 7, "type": "atm", "name": "Rəqəmsal mərkəz", "lat": 40.4, "lng": 49.8, "work_hours": "09:00-18:00"},
	})

	require.Empty(t, diags)
	require.Len(t, locs, 1)
	assert.Equal(t, ServiceDigitalCenter, locs[0].ServiceType)
	assert.Equal(t, "09:00-18:00", locs[0].Hours)
}

func TestNormalizeFields(t *testing.T) {
	locs, _ := Normalize("Bank", GenericSchema, []RawRecord{
		{
			"id":       "b-1",
			"type":     "branch",
			"name":     " Main Office ",
			"address":  "1 Nizami St",
			"lat":      40.4,
			"lng":      49.8,
			"phone":    "+994 12 000",
			"services": []any{"cash", "exchange"},
		},
		{"type": "atm", "address": "Fountain Sq", "lat": 40.4, "lng": 49.8, "services": "cash, , deposit"},
		{"type": "atm", "lat": 40.5, "lng": 49.8},
	})

	require.Len(t, locs, 3)

	want := &Location{
		ID:          locs[0].ID,
		Provider:    "Bank",
		ServiceType: ServiceBranch,
		DisplayName: "Main Office",
		Address:     "1 Nizami St",
		Point:       spatial.Point{Lat: 40.4, Lng: 49.8},
		Phone:       "+994 12 000",
		Services:    []string{"cash", "exchange"},
	}
	if diff := cmp.Diff(want, locs[0]); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "Fountain Sq", locs[1].DisplayName)
	assert.Equal(t, []string{"cash", "deposit"}, locs[1].Services)
	assert.Equal(t, "Bank atm", locs[2].DisplayName)
}

func TestNormalizeLegacyProviderColumn(t *testing.T) {
	locs, diags := Normalize("legacy", LegacySchema, []RawRecord{
		{"id": int64(1), "company": "Kapital Bank", "type": "atm", "lat": 40.4, "lon": 49.8},
		{"id": int64(2), "company": "", "type": "atm", "lat": 40.4, "lon": 49.8},
	})

	require.Empty(t, diags)
	require.Len(t, locs, 2)
	assert.Equal(t, "Kapital Bank", locs[0].Provider)
	assert.Equal(t, "legacy", locs[1].Provider)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	records := []RawRecord{
		{"id": "1", "type": "atm", "lat": 40.4, "lng": 49.8},
		{"type": "cash_in", "name": "Mall", "lat": "40.41", "lng": "49.81"},
		{"type": "kiosk", "lat": 40.42, "lng": 49.82},
		{"lat": "bad", "lng": 1.0},
	}

	locs1, diags1 := Normalize("Bank", GenericSchema, records)
	locs2, diags2 := Normalize("Bank", GenericSchema, records)

	if diff := cmp.Diff(locs1, locs2); diff != "" {
		t.Errorf("locations differ between runs (-first +second):\n%s", diff)
	}

	if diff := cmp.Diff(diags1, diags2); diff != "" {
		t.Errorf("diagnostics differ between runs (-first +second):\n%s", diff)
	}
}

func TestNormalizeIDs(t *testing.T) {
	locs, _ := Normalize("Bank", GenericSchema, []RawRecord{
		{"id": "17", "type": "atm", "lat": 40.4, "lng": 49.8},
		{"id": "17", "type": "branch", "lat": 40.4, "lng": 49.8},
		{"id": "17", "type": "atm", "lat": 41.0, "lng": 50.0},
		{"type": "atm", "name": "A", "lat": 40.4, "lng": 49.8},
		{"type": "atm", "name": "B", "lat": 40.4, "lng": 49.8},
	})
	other, _ := Normalize("Other Bank", GenericSchema, []RawRecord{
		{"id": "17", "type": "atm", "lat": 40.4, "lng": 49.8},
	})

	require.Len(t, locs, 5)
	require.Len(t, other, 1)

	assert.Equal(t, locs[0].ID, locs[2].ID, "natural key ignores the coordinate")
	assert.NotEqual(t, locs[0].ID, locs[1].ID, "natural keys are scoped by type")
	assert.NotEqual(t, locs[3].ID, locs[4].ID)
	assert.NotEqual(t, locs[0].ID, other[0].ID, "natural keys are scoped by provider")
}

func TestSchemaByName(t *testing.T) {
	s, err := SchemaByName("")
	require.NoError(t, err)
	assert.Equal(t, "generic", s.Name)

	s, err = SchemaByName("KapitalBank")
	require.NoError(t, err)
	assert.Equal(t, "kapitalbank", s.Name)

	_, err = SchemaByName("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generic, kapitalbank, legacy")
}
