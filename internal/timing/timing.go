// Package timing measures how long the detector's expensive phases take,
// grounded in original_source/server/time_utils.py's MeasureTime /
// measure_fun_time.
package timing

import (
	"context"
	"log/slog"
	"time"
)

// Measure runs fn, then logs its duration at debug level tagged with
// statName. Unlike the Python original's context manager, Go has no
// exception to suppress reporting on: a panic in fn unwinds past the log
// call that follows it, so only normal returns are reported, matching the
// original's exc_type-is-not-None guard.
func Measure(ctx context.Context, statName string, fn func()) {
	start := time.Now()
	fn()
	slog.DebugContext(ctx, "phase timing", "stat", statName, "duration_seconds", time.Since(start).Seconds())
}

// MeasureErr is Measure's variant for phases that can fail; the duration is
// only logged when fn returns a nil error, mirroring the original
// suppressing its report on an exception.
func MeasureErr(ctx context.Context, statName string, fn func() error) error {
	start := time.Now()
	err := fn()
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "phase timing", "stat", statName, "duration_seconds", time.Since(start).Seconds())
	return nil
}
