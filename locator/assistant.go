// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import "context"

// NearbyFinder answers nearby location requests. It is the contract offered
// to conversational front ends.
type NearbyFinder interface {
	FindNearby(ctx context.Context, req NearbyRequest) (*Response, error)
}

// Service answers queries against the current generation of a Store.
type Service struct {
	store *Store
}

var _ NearbyFinder = (*Service)(nil)

// NewService creates a service reading from store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Store returns the store the service reads from.
func (s *Service) Store() *Store {
	return s.store
}

// Query runs q against a single snapshot of the current generation.
func (s *Service) Query(q Query) []Ranked {
	return Search(s.store.Current(), q)
}

// FindNearby validates req and returns the assembled response.
func (s *Service) FindNearby(ctx context.Context, req NearbyRequest) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q, err := req.Query()
	if err != nil {
		return nil, err
	}

	return Assemble(s.Query(q)), nil
}
