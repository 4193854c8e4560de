// Package core is the orchestration layer.  It composes transports
// and capabilities into complete operational modes and provides a
// builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  capability  →  session  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point from
// configuration to a running server or client.
package core

import "context"

// Mode represents a complete operational mode of lineshell (a listening
// server or a connecting client).  Each mode owns its full lifecycle
// from connection establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
