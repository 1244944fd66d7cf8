// Package logging attaches zerolog subscribers to the eventbus.
package logging

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shapecast/shapecast/internal/eventbus"
	"github.com/shapecast/shapecast/internal/events"
	"github.com/shapecast/shapecast/internal/reqid"
)

// Attach subscribes request and schema lifecycle events to log.
func Attach(log zerolog.Logger) {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		log.Info().
			Str("request_id", rid).
			Str("method", e.Request.Method).
			Str("path", e.Request.URL.Path).
			Int("status", e.Status).
			Dur("duration", e.Duration).
			Msg("http request")
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ProjectionFinish) {
		rid, _ := reqid.FromContext(ctx)
		ev := log.Debug()
		if e.Err != nil {
			ev = log.Warn().Err(e.Err)
		}
		ev.Str("request_id", rid).
			Str("entity", e.Entity).
			Str("action", e.Action).
			Dur("duration", e.Duration).
			Msg("projection")
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SchemaReload) {
		if e.Err != nil {
			log.Error().Err(e.Err).Msg("schema reload failed; previous graph kept")
			return
		}
		log.Info().
			Int("entities", e.Entities).
			Int("actions", e.Actions).
			Msg("schema reloaded")
	})
}
