package sqlite

// migrations returns the schema statements. Each string is a single SQL
// statement; they are safe to run repeatedly.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ledger_accounts (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			role         TEXT NOT NULL DEFAULT 'user',
			balance      INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_accounts_email ON ledger_accounts (email) WHERE email <> ''`,

		`CREATE TABLE IF NOT EXISTS ledger_transactions (
			id           TEXT PRIMARY KEY,
			account_id   TEXT NOT NULL,
			action       TEXT NOT NULL,
			amount       INTEGER NOT NULL,
			reference_id TEXT NOT NULL DEFAULT '',
			session_id   TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			created_at   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_transactions_account ON ledger_transactions (account_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS ledger_audit_logs (
			id         TEXT PRIMARY KEY,
			actor      TEXT NOT NULL,
			action     TEXT NOT NULL,
			type       TEXT NOT NULL,
			details    TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_audit_logs_actor ON ledger_audit_logs (actor, created_at)`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id                TEXT PRIMARY KEY,
			owner_id          TEXT NOT NULL,
			income            TEXT NOT NULL,
			housing           TEXT NOT NULL,
			food              TEXT NOT NULL,
			transport         TEXT NOT NULL,
			miscellaneous     TEXT NOT NULL,
			others            TEXT NOT NULL,
			savings_goal      TEXT NOT NULL,
			dependents        INTEGER NOT NULL DEFAULT 0,
			custom_categories TEXT NOT NULL DEFAULT '[]',
			fixed_expenses    TEXT NOT NULL,
			variable_expenses TEXT NOT NULL,
			surplus_deficit   TEXT NOT NULL,
			session_id        TEXT NOT NULL DEFAULT '',
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_owner ON budgets (owner_id, created_at)`,
	}
}
