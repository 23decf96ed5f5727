package domain

import "context"

// CallRecorder persists tool calls. Implementations must be safe for
// concurrent use; the dispatcher records from every handler goroutine.
type CallRecorder interface {
	Record(ctx context.Context, rec CallRecord) error
}

// CallHistory reads journaled calls back, newest first.
type CallHistory interface {
	Recent(ctx context.Context, n int) ([]CallRecord, error)
}
