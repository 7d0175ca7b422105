// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jcodagnone/cajero/locator"
)

// Every refreshes each interval until ctx is canceled.
func Every(ctx context.Context, interval time.Duration, refresher Refresher) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := refresher.Refresh(ctx); err != nil && !errors.Is(err, locator.ErrRefreshInProgress) {
				log.Printf("⚠️ periodic refresh: %v", err)
			}
		}
	}
}
