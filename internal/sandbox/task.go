// Package sandbox implements the test sandbox: a process-wide ownership and
// allowance registry that gives concurrent tests their own isolated
// in-memory storage containers while letting designated collaborator tasks
// (an HTTP handler serving the test's request) transparently share them.
package sandbox

import (
	"context"

	"github.com/google/uuid"
)

// TaskID identifies a task (a test goroutine, or an HTTP handler acting on
// its behalf) in the registry. The zero value is the anonymous task: Go has
// no equivalent of an implicit per-process identity, so callers that never
// bind a context to a task are all treated as the same well-known caller.
type TaskID uuid.UUID

// NewTaskID mints a fresh, randomly generated task identity.
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

type taskContextKey struct{}

// WithTask returns a context carrying id as the current task identity.
func WithTask(ctx context.Context, id TaskID) context.Context {
	return context.WithValue(ctx, taskContextKey{}, id)
}

// TaskFromContext returns the task identity bound to ctx, or the anonymous
// zero-value TaskID if none was bound.
func TaskFromContext(ctx context.Context) TaskID {
	id, ok := ctx.Value(taskContextKey{}).(TaskID)
	if !ok {
		return TaskID{}
	}
	return id
}
