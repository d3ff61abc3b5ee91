package mongo

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ficoreafrica/ledger"
)

func TestAbortedClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"write conflict", mongo.CommandError{Code: codeWriteConflict, Name: "WriteConflict"}, true},
		{"transient label", mongo.CommandError{Code: 251, Labels: []string{labelTransientTransaction}}, true},
		{"wrapped by decrement", fmt.Errorf("ledger/mongo: decrement balance: %w", mongo.CommandError{Code: codeWriteConflict}), true},
		{"duplicate key", mongo.CommandError{Code: 11000}, false},
		{"no documents", mongo.ErrNoDocuments, false},
		{"plain", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aborted(tt.err)
			if errors.Is(got, ledger.ErrTransactionAborted) != tt.want {
				t.Errorf("aborted(%v) = %v, want aborted=%v", tt.err, got, tt.want)
			}
			if !tt.want && got.Error() != tt.err.Error() {
				t.Errorf("aborted(%v) rewrote an unrelated error to %v", tt.err, got)
			}
		})
	}
}
