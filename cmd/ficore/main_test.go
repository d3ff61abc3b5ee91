package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/auth"
)

func setup(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FICORE_STORE_DRIVER", "sqlite")
	t.Setenv("FICORE_SQLITE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("FICORE_JWT_SECRET", "cli-secret")
	return []string{"--env-file", filepath.Join(dir, "missing.env")}
}

func run(t *testing.T, base []string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(append([]string{}, base...), args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("ficore %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestAccountsLifecycle(t *testing.T) {
	base := setup(t)

	run(t, base, "migrate")

	accountID := strings.TrimSpace(run(t, base, "accounts", "create", "--email", "kemi@example.com", "--name", "Kemi", "--balance", "7"))
	if !strings.HasPrefix(accountID, "acct_") {
		t.Fatalf("account id = %q", accountID)
	}

	if got := strings.TrimSpace(run(t, base, "accounts", "balance", accountID)); got != "7" {
		t.Errorf("balance = %q, want 7", got)
	}

	statement := run(t, base, "accounts", "statement", accountID)
	if !strings.HasPrefix(statement, "TIME") {
		t.Errorf("statement header missing: %q", statement)
	}

	token := strings.TrimSpace(run(t, base, "token", accountID))
	authn, err := auth.New("cli-secret", auth.WithIssuer("ficore"))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := authn.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != accountID {
		t.Errorf("subject = %q, want %q", claims.Subject, accountID)
	}
	if claims.Role != account.RoleUser {
		t.Errorf("role = %q, want user", claims.Role)
	}
}

func TestAccountsCreateAdmin(t *testing.T) {
	base := setup(t)

	accountID := strings.TrimSpace(run(t, base, "accounts", "create", "--email", "ops@example.com", "--admin"))
	token := strings.TrimSpace(run(t, base, "token", accountID))

	authn, err := auth.New("cli-secret", auth.WithIssuer("ficore"))
	if err != nil {
		t.Fatal(err)
	}
	claims, err := authn.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Role != account.RoleAdmin {
		t.Errorf("role = %q, want admin", claims.Role)
	}
}

func TestBalanceRejectsBadID(t *testing.T) {
	base := setup(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(base, "accounts", "balance", "bgt_01h455vb4pex5vsknk084sn02q"))
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a non-account id")
	}
}

func TestUnknownStoreDriver(t *testing.T) {
	base := setup(t)

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(base, "--store", "cassandra", "migrate"))
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}
