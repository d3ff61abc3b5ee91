// Package action defines the closed set of actions the service records.
//
// Billable kinds carry a credit cost in the billing schedule. Activity
// kinds are recorded in the audit log only.
package action

import "fmt"

// Kind names an action performed by or for an account.
type Kind string

// Billable kinds.
const (
	CreateBudget           Kind = "create_budget"
	DeleteBudget           Kind = "delete_budget"
	ExportBudgetPDFSingle  Kind = "export_budget_pdf_single"
	ExportBudgetPDFHistory Kind = "export_budget_pdf_history"
)

// Activity kinds.
const (
	ViewBudgetDashboard Kind = "view_budget_dashboard"
	ViewBudgetManage    Kind = "view_budget_manage"
)

// ExportType selects between exporting one budget and the full history.
type ExportType string

const (
	ExportSingle  ExportType = "single"
	ExportHistory ExportType = "history"
)

// Billable returns every kind that must be charged.
func Billable() []Kind {
	return []Kind{CreateBudget, DeleteBudget, ExportBudgetPDFSingle, ExportBudgetPDFHistory}
}

// All returns every known kind.
func All() []Kind {
	return append(Billable(), ViewBudgetDashboard, ViewBudgetManage)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range All() {
		if k == known {
			return true
		}
	}
	return false
}

// IsBillable reports whether k is charged.
func (k Kind) IsBillable() bool {
	for _, b := range Billable() {
		if k == b {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Parse converts a stored label back into a Kind.
func Parse(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("action: unknown kind %q", s)
	}
	return k, nil
}

// ParseExportType validates an export type from a request path.
func ParseExportType(s string) (ExportType, error) {
	switch t := ExportType(s); t {
	case ExportSingle, ExportHistory:
		return t, nil
	default:
		return "", fmt.Errorf("action: unknown export type %q", s)
	}
}

// Kind returns the billable kind for the export.
func (t ExportType) Kind() Kind {
	if t == ExportHistory {
		return ExportBudgetPDFHistory
	}
	return ExportBudgetPDFSingle
}
