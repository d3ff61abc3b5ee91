package audithook

// Action constants for audit events.
const (
	// Debit actions
	ActionCreditsDebited = "credits.debited"
	ActionDebitRejected  = "credits.debit_rejected"
	ActionDebitFailed    = "credits.debit_failed"
	ActionChargeBypassed = "credits.charge_bypassed"
	ActionLedgerStarted  = "ledger.started"
	ActionLedgerStopped  = "ledger.stopped"
)

// Resource constants for audit events.
const (
	ResourceAccount     = "account"
	ResourceLedgerEntry = "ledger_entry"
	ResourceLedger      = "ledger"
)

// Category constants for audit events.
const (
	CategoryBilling   = "billing"
	CategoryAccess    = "access"
	CategoryLifecycle = "lifecycle"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
