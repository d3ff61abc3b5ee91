package postgres

// migrations is the ordered schema for the ledger and budget tables.
// Every statement is idempotent so Migrate can run on each start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS ledger_accounts (
		id           TEXT PRIMARY KEY,
		email        TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL DEFAULT 'user',
		balance      BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_accounts_email ON ledger_accounts (email) WHERE email <> ''`,

	`CREATE TABLE IF NOT EXISTS ledger_transactions (
		id           TEXT PRIMARY KEY,
		account_id   TEXT NOT NULL,
		action       TEXT NOT NULL,
		amount       BIGINT NOT NULL,
		reference_id TEXT NOT NULL DEFAULT '',
		session_id   TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_account ON ledger_transactions (account_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS ledger_audit_logs (
		id         TEXT PRIMARY KEY,
		actor      TEXT NOT NULL,
		action     TEXT NOT NULL,
		type       TEXT NOT NULL,
		details    TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_audit_logs_actor ON ledger_audit_logs (actor, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS budgets (
		id                TEXT PRIMARY KEY,
		owner_id          TEXT NOT NULL,
		income            NUMERIC(20,2) NOT NULL DEFAULT 0,
		housing           NUMERIC(20,2) NOT NULL DEFAULT 0,
		food              NUMERIC(20,2) NOT NULL DEFAULT 0,
		transport         NUMERIC(20,2) NOT NULL DEFAULT 0,
		miscellaneous     NUMERIC(20,2) NOT NULL DEFAULT 0,
		others            NUMERIC(20,2) NOT NULL DEFAULT 0,
		savings_goal      NUMERIC(20,2) NOT NULL DEFAULT 0,
		dependents        INTEGER NOT NULL DEFAULT 0,
		custom_categories TEXT NOT NULL DEFAULT '[]',
		fixed_expenses    NUMERIC(20,2) NOT NULL DEFAULT 0,
		variable_expenses NUMERIC(20,2) NOT NULL DEFAULT 0,
		surplus_deficit   NUMERIC(20,2) NOT NULL DEFAULT 0,
		session_id        TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_budgets_owner ON budgets (owner_id, created_at DESC)`,
}
