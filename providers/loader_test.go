// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/jcodagnone/cajero/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	records  map[string][]locator.RawRecord
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) Fetch(_ context.Context, ref Reference) ([]locator.RawRecord, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)

	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	records, ok := f.records[ref.Source]
	if !ok {
		return nil, errors.New("not found")
	}

	return records, nil
}

func TestLoadAll(t *testing.T) {
	fetcher := &fakeFetcher{records: map[string][]locator.RawRecord{
		"a.json": {{"id": "1", "lat": 40.4, "lng": 49.8}},
		"b.json": {{"id": "2", "lat": 40.5, "lng": 49.9}, {"id": "3", "lat": 40.6, "lng": 49.9}},
	}}

	refs := []Reference{
		{Name: "A", Provider: "Bank A", Source: "a.json", Type: "atm"},
		{Name: "Missing", Provider: "Bank M", Source: "m.json"},
		{Name: "B", Provider: "Bank B", Source: "b.json", Schema: "kapitalbank"},
		{Name: "Bad schema", Provider: "Bank X", Source: "a.json", Schema: "nope"},
	}

	batches := LoadAll(context.Background(), refs, fetcher, 2)
	require.Len(t, batches, 4)

	assert.Equal(t, "A", batches[0].Name)
	assert.Equal(t, "Bank A", batches[0].Provider)
	assert.Equal(t, "atm", batches[0].Schema.FixedType)
	require.NoError(t, batches[0].Err)
	assert.Len(t, batches[0].Records, 1)

	require.Error(t, batches[1].Err)
	assert.Contains(t, batches[1].Err.Error(), "loading Missing: not found")

	require.NoError(t, batches[2].Err)
	assert.Equal(t, "kapitalbank", batches[2].Schema.Name)
	assert.Len(t, batches[2].Records, 2)

	require.Error(t, batches[3].Err)

	assert.LessOrEqual(t, fetcher.maxSeen.Load(), int32(2))

	_, report := locator.Build(1, batches)
	assert.Equal(t, 3, report.Total)
	assert.False(t, report.AllFailed())
}

func TestLoader(t *testing.T) {
	reg, err := NewRegistry([]Reference{{Name: "A", Provider: "Bank", Source: "a.json"}})
	require.NoError(t, err)

	fetcher := &fakeFetcher{records: map[string][]locator.RawRecord{
		"a.json": {{"id": "1", "type": "atm", "lat": 40.4, "lng": 49.8}},
	}}

	loader := &Loader{Registry: reg, Fetcher: fetcher, MaxProcs: 1}

	store := locator.NewStore()
	report, err := locator.NewRefresher(store, loader).Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Published)
	assert.Equal(t, []string{"Bank"}, store.Current().Providers())

	_, err = (&Loader{}).Load(context.Background())
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = loader.Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
