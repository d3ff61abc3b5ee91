package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/auth"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/service"
)

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Message keys shared by flash redirects and JSON error bodies.
const (
	msgCreated           = "budget_created_success"
	msgDeleted           = "budget_deleted"
	msgInvalidInput      = "budget_invalid_input"
	msgInvalidID         = "budget_invalid_id"
	msgNotFound          = "budget_not_found"
	msgInvalidExportType = "budget_invalid_export_type"
	msgIDRequired        = "budget_id_required"
	msgCreditFailed      = "budget_credit_deduction_failed"
	msgUnavailable       = "budget_service_unavailable"
	msgDeleteFailed      = "budget_delete_failed"
	msgFailed            = "budget_request_failed"
	msgUnauthorized      = "unauthorized"
	msgForbidden         = "forbidden"
)

type message struct {
	Text     string
	Category string
}

var messages = map[string]message{
	msgCreated:           {"Budget created successfully!", "success"},
	msgDeleted:           {"Budget deleted successfully!", "success"},
	msgInvalidInput:      {"Please correct the errors in the form.", "danger"},
	msgInvalidID:         {"Invalid budget ID.", "danger"},
	msgNotFound:          {"Budget not found.", "danger"},
	msgInvalidExportType: {"Invalid export type.", "danger"},
	msgIDRequired:        {"A budget ID is required for a single budget export.", "danger"},
	msgCreditFailed:      {"Insufficient credits or credit deduction failed.", "danger"},
	msgUnavailable:       {"The credit ledger is unavailable. Please try again later.", "danger"},
	msgDeleteFailed:      {"Failed to delete the budget.", "danger"},
	msgFailed:            {"Something went wrong. Please try again.", "danger"},
	msgUnauthorized:      {"Please sign in to continue.", "danger"},
	msgForbidden:         {"This request was blocked because it came from another site.", "danger"},
}

func text(key string) string {
	if m, ok := messages[key]; ok {
		return m.Text
	}
	return ""
}

// classify maps a service error to its HTTP status and message key.
// fallback names the message used for unclassified failures.
func classify(err error, fallback string) (int, string) {
	var fields budget.FieldErrors
	switch {
	case errors.As(err, &fields):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, service.ErrInvalidBudgetID):
		return http.StatusBadRequest, msgInvalidID
	case errors.Is(err, service.ErrBudgetIDRequired):
		return http.StatusBadRequest, msgIDRequired
	case errors.Is(err, service.ErrInvalidExportType):
		return http.StatusBadRequest, msgInvalidExportType
	case errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case ledger.IsNotFound(err):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, ledger.ErrInvalidUser):
		return http.StatusUnauthorized, msgUnauthorized
	case ledger.IsPaymentRequired(err), errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusPaymentRequired, msgCreditFailed
	case errors.Is(err, ledger.ErrLedgerUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		return http.StatusInternalServerError, fallback
	}
}

func (s *Server) logFailure(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
		return
	}
	s.logger.Info("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
}

func (s *Server) denyJSON(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, http.StatusUnauthorized, err)
	writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": text(msgUnauthorized)})
}

func (s *Server) denyWeb(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, http.StatusUnauthorized, err)
	render(w, r, http.StatusUnauthorized, unauthorizedPage())
}

func actorOf(r *http.Request) billing.Actor {
	actor, _ := auth.ActorFrom(r.Context())
	return actor
}

// queryInt reads an integer query parameter, returning 0 when it is
// missing or malformed.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
