package events

import "time"

// ProjectionStart is emitted before validating and projecting a selection.
type ProjectionStart struct {
	Entity string
	Action string
}

// ProjectionFinish is emitted after a projection attempt. Err carries the
// validation failure, if any.
type ProjectionFinish struct {
	Entity   string
	Action   string
	Err      error
	Duration time.Duration
}
