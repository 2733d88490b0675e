// Package archive persists the terminal outcome of completed discussion
// sessions. In-flight sessions are never archived; only the summary and the
// finalized rounds of an ended session are written.
package archive

import (
	"context"
	"time"

	"github.com/revboard-dev/revboard/internal/agenda"
)

// Entry is the durable record of one completed session.
type Entry struct {
	SessionID  string         `json:"sessionId"`
	Scope      string         `json:"scope"`
	Identifier string         `json:"identifier"`
	EndedAt    time.Time      `json:"endedAt"`
	Accepted   int            `json:"accepted"`
	Deferred   int            `json:"deferred"`
	Rejected   int            `json:"rejected"`
	Pending    int            `json:"pending"`
	Rounds     []agenda.Round `json:"rounds"`
}

// Recorder stores completed-session entries.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// Record appends an entry to the archive.
	Record(ctx context.Context, entry Entry) error

	// List returns all entries for a scope/identifier pair, oldest first.
	List(ctx context.Context, scope, identifier string) ([]Entry, error)

	// Close releases resources held by the recorder.
	Close() error
}
