package audit

import (
	"context"
)

type Store interface {
	InsertAudit(ctx context.Context, e *Entry) error
	// ListAudit returns entries for an actor, newest first. An empty actor
	// matches every entry.
	ListAudit(ctx context.Context, actor string, opts ListOpts) ([]*Entry, error)
}
