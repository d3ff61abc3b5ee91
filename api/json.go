package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}

// fail writes the JSON error body for err. The create and delete routes
// carry a success flag.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string, withSuccess bool) {
	status, key := classify(err, fallback)
	s.logFailure(r, status, err)
	body := map[string]any{"error": text(key)}
	if withSuccess {
		body["success"] = false
	}
	writeJSON(w, status, body)
}

func (s *Server) apiIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"title":                 indexTitle,
		"subtitle":              indexSubtitle,
		"create_description":    createDescription,
		"dashboard_description": dashboardDescription,
		"manage_description":    manageDescription,
		"tips":                  s.svc.Tips(),
	})
}

func (s *Server) apiCreate(w http.ResponseWriter, r *http.Request) {
	var in budget.Input
	if err := decodeJSON(w, r, &in); err != nil {
		s.logFailure(r, http.StatusBadRequest, err)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  budget.FieldErrors{"body": {"Request body must be a JSON object."}},
		})
		return
	}

	b, err := s.svc.Create(r.Context(), actorOf(r), in)
	if err != nil {
		var fields budget.FieldErrors
		if errors.As(err, &fields) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "errors": fields})
			return
		}
		s.fail(w, r, err, msgFailed, true)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"budget_id": b.ID.String(),
		"message":   text(msgCreated),
	})
}

func (s *Server) apiDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), actorOf(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err, msgFailed, false)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) apiManage(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Manage(r.Context(), actorOf(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err, msgFailed, false)
		return
	}

	byID := make(map[string]service.ManagedBudget, len(m.Budgets))
	for _, b := range m.Budgets {
		byID[b.ID.String()] = b
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"budgets":    byID,
		"pagination": m.Pagination,
	})
}

func (s *Server) apiDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BudgetID string `json:"budget_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, service.ErrInvalidBudgetID, msgDeleteFailed, true)
		return
	}

	if err := s.svc.Delete(r.Context(), actorOf(r), req.BudgetID); err != nil {
		s.fail(w, r, err, msgDeleteFailed, true)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": text(msgDeleted)})
}

func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.svc.Export(r.Context(), actorOf(r), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, msgFailed, false)
		return
	}
	writePDF(w, exp.Filename, exp.Data)
}

func (s *Server) apiCredits(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Credits(r.Context(), actorOf(r), queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err, msgFailed, false)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
