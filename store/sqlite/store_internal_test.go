package sqlite

import (
	"errors"
	"fmt"
	"testing"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ficoreafrica/ledger"
)

type codedError int

func (e codedError) Error() string { return fmt.Sprintf("sqlite error %d", int(e)) }
func (e codedError) Code() int     { return int(e) }

func TestAbortedClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"busy", codedError(sqlite3.SQLITE_BUSY), true},
		{"busy snapshot", codedError(sqlite3.SQLITE_BUSY_SNAPSHOT), true},
		{"locked", codedError(sqlite3.SQLITE_LOCKED), true},
		{"wrapped busy", fmt.Errorf("ledger/sqlite: decrement balance: %w", codedError(sqlite3.SQLITE_BUSY)), true},
		{"constraint", codedError(sqlite3.SQLITE_CONSTRAINT), false},
		{"no rows", ledger.ErrNoRowsAffected, false},
		{"plain", errors.New("disk I/O"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aborted(tt.err)
			if errors.Is(got, ledger.ErrTransactionAborted) != tt.want {
				t.Errorf("aborted(%v) = %v, want aborted=%v", tt.err, got, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("aborted(%v) lost the cause", tt.err)
			}
		})
	}
}
