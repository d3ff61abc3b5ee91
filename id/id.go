// Package id defines the prefixed identifiers used for accounts, ledger
// entries, audit entries and budgets.
//
// IDs are TypeIDs: a short prefix naming the entity followed by a
// base32-encoded UUIDv7, e.g. "bgt_01h455vb4pex5vsknk084sn02q". They sort
// by creation time and are safe in URLs, which is how budget IDs travel in
// the export and delete routes.
package id

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// ErrInvalid is matched by every parse failure.
var ErrInvalid = errors.New("id: invalid")

// Prefix names the entity an ID belongs to.
type Prefix string

const (
	PrefixAccount     Prefix = "acct"
	PrefixTransaction Prefix = "ctxn"
	PrefixAudit       Prefix = "audit"
	PrefixBudget      Prefix = "bgt"
)

// ID is a prefixed identifier. The zero value is Nil and stores as NULL.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero ID.
var Nil ID

// Aliases document which entity a field holds; all share the ID type and
// are told apart by prefix at parse time.
type (
	AccountID     = ID
	TransactionID = ID
	AuditID       = ID
	BudgetID      = ID
)

// New generates an ID with prefix. It panics on a malformed prefix, which
// can only come from a constant above.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func NewAccountID() ID     { return New(PrefixAccount) }
func NewTransactionID() ID { return New(PrefixTransaction) }
func NewAuditID() ID       { return New(PrefixAudit) }
func NewBudgetID() ID      { return New(PrefixBudget) }

// Parse accepts any well-formed TypeID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("%w: empty string", ErrInvalid)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and requires the expected prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("%w: want prefix %q, got %q", ErrInvalid, expected, parsed.Prefix())
	}
	return parsed, nil
}

func ParseAccountID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixAccount) }
func ParseTransactionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTransaction) }
func ParseAuditID(s string) (ID, error)       { return ParseWithPrefix(s, PrefixAudit) }
func ParseBudgetID(s string) (ID, error)      { return ParseWithPrefix(s, PrefixBudget) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

func (i ID) IsNil() bool { return !i.valid }

// MarshalText encodes Nil as an empty string.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText decodes an empty string as Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value stores Nil as NULL so optional references stay empty.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.inner.String(), nil
}

// Scan reads a TEXT column. NULL and "" scan to Nil.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil
		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalid, src)
	}
}
