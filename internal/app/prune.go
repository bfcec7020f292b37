package app

import (
	"context"
	"errors"
	"time"
)

// Prune removes stored samples and alerts older than the configured
// retention window.
func (a *App) Prune(ctx context.Context) error {
	retention := a.Config.Database.RetentionDays
	if retention <= 0 {
		return errors.New("database.retention_days is not configured")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; nothing to prune")
	}
	if closeStore != nil {
		defer closeStore()
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retention)

	samples, err := store.DeleteSamplesBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	alerts, err := store.DeleteAlertsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	remaining, err := store.CountSamples(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().
		Time("cutoff", cutoff).
		Int64("samples_removed", samples).
		Int64("alerts_removed", alerts).
		Int64("samples_remaining", remaining).
		Msg("retention cleanup complete")
	return nil
}
