package id_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ficoreafrica/ledger/id"
)

var kinds = []struct {
	name   string
	prefix string
	newFn  func() id.ID
	parse  func(string) (id.ID, error)
}{
	{"account", "acct_", id.NewAccountID, id.ParseAccountID},
	{"transaction", "ctxn_", id.NewTransactionID, id.ParseTransactionID},
	{"audit", "audit_", id.NewAuditID, id.ParseAuditID},
	{"budget", "bgt_", id.NewBudgetID, id.ParseBudgetID},
}

func TestGenerateAndParse(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			generated := k.newFn()
			if !strings.HasPrefix(generated.String(), k.prefix) {
				t.Fatalf("%q lacks prefix %q", generated, k.prefix)
			}
			parsed, err := k.parse(generated.String())
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if parsed.String() != generated.String() {
				t.Errorf("parsed %q, want %q", parsed, generated)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		parse func(string) (id.ID, error)
	}{
		{"account id as budget", id.NewAccountID().String(), id.ParseBudgetID},
		{"budget id as account", id.NewBudgetID().String(), id.ParseAccountID},
		{"audit id as transaction", id.NewAuditID().String(), id.ParseTransactionID},
		{"garbage", "not-an-id", id.ParseBudgetID},
		{"object id", "507f1f77bcf86cd799439011", id.ParseBudgetID},
		{"empty", "", id.Parse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parse(tt.input)
			if !errors.Is(err, id.ErrInvalid) {
				t.Errorf("parse %q: got %v, want ErrInvalid", tt.input, err)
			}
		})
	}
}

func TestNil(t *testing.T) {
	var i id.ID
	if !i.IsNil() || !id.Nil.IsNil() {
		t.Error("zero value should be Nil")
	}
	if i.String() != "" || i.Prefix() != "" {
		t.Errorf("Nil renders as %q with prefix %q", i.String(), i.Prefix())
	}
	if v, err := i.Value(); v != nil || err != nil {
		t.Errorf("Nil Value = %v, %v; want NULL", v, err)
	}
}

func TestJSON(t *testing.T) {
	type row struct {
		Budget id.BudgetID  `json:"budget"`
		Owner  id.AccountID `json:"owner"`
	}
	in := row{Budget: id.NewBudgetID()}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"owner":""`) {
		t.Errorf("nil owner encoded as %s", data)
	}

	var out row
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Budget.String() != in.Budget.String() || !out.Owner.IsNil() {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}

func TestScan(t *testing.T) {
	original := id.NewAccountID()
	v, err := original.Value()
	if err != nil {
		t.Fatal(err)
	}

	for _, src := range []any{v, []byte(v.(string))} {
		var scanned id.ID
		if err := scanned.Scan(src); err != nil {
			t.Fatalf("Scan(%T): %v", src, err)
		}
		if scanned.String() != original.String() {
			t.Errorf("Scan(%T) = %q, want %q", src, scanned, original)
		}
	}

	for _, src := range []any{nil, "", []byte{}} {
		var scanned id.ID
		if err := scanned.Scan(src); err != nil || !scanned.IsNil() {
			t.Errorf("Scan(%#v) = %q, %v; want Nil", src, scanned, err)
		}
	}

	var bad id.ID
	if err := bad.Scan(42); !errors.Is(err, id.ErrInvalid) {
		t.Errorf("Scan(int) = %v, want ErrInvalid", err)
	}
}
