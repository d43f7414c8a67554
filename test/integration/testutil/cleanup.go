//go:build integration

package testutil

import (
	"context"
	"time"
)

// CleanAll truncates every roster table.
func (env *TestEnv) CleanAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := env.Pool.Exec(ctx, "TRUNCATE TABLE roster_history, playtesters"); err != nil {
		env.t.Fatalf("CleanAll: %v", err)
	}
}
