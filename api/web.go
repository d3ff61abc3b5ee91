package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ficoreafrica/ledger/budget"
)

// Copy for the budget landing page.
const (
	indexTitle           = "Budget Planner"
	indexSubtitle        = "Plan your monthly income and expenses."
	createDescription    = "Enter your income and expenses to build a new budget."
	dashboardDescription = "See where your money goes and how much is left over."
	manageDescription    = "Review, export or delete your saved budgets."
)

func flashOf(r *http.Request) string { return r.URL.Query().Get("flash") }

// redirect sends the browser to path with a flash message.
func redirect(w http.ResponseWriter, r *http.Request, path, flash string) {
	target := path
	if flash != "" {
		target += "?" + url.Values{"flash": {flash}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) webIndex(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, indexPage(s.svc.Tips(), flashOf(r)))
}

func (s *Server) webNewForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, newPage(url.Values{}, nil, s.svc.Tips(), flashOf(r)))
}

func (s *Server) webCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, r, http.StatusBadRequest, newPage(url.Values{}, nil, s.svc.Tips(), msgInvalidInput))
		return
	}

	in, errs := parseBudgetForm(r)
	if verr := in.Validate(); verr != nil {
		var fields budget.FieldErrors
		if !errors.As(verr, &fields) {
			s.logFailure(r, http.StatusInternalServerError, verr)
			redirect(w, r, "/budget/new", msgFailed)
			return
		}
		errs = merge(errs, fields)
	}
	if len(errs) > 0 {
		render(w, r, http.StatusBadRequest, newPage(r.PostForm, errs, s.svc.Tips(), msgInvalidInput))
		return
	}

	if _, err := s.svc.Create(r.Context(), actorOf(r), in); err != nil {
		status, key := classify(err, msgFailed)
		s.logFailure(r, status, err)
		redirect(w, r, "/budget/new", key)
		return
	}
	redirect(w, r, "/budget/dashboard", msgCreated)
}

func (s *Server) webDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), actorOf(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		status, key := classify(err, msgFailed)
		s.logFailure(r, status, err)
		redirect(w, r, "/budget/index", key)
		return
	}
	render(w, r, http.StatusOK, dashboardPage(d, flashOf(r)))
}

func (s *Server) webManage(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Manage(r.Context(), actorOf(r), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		status, key := classify(err, msgFailed)
		s.logFailure(r, status, err)
		redirect(w, r, "/budget/index", key)
		return
	}
	render(w, r, http.StatusOK, managePage(m, flashOf(r)))
}

func (s *Server) webDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), actorOf(r), r.PostFormValue("budget_id")); err != nil {
		status, key := classify(err, msgDeleteFailed)
		s.logFailure(r, status, err)
		redirect(w, r, "/budget/manage", key)
		return
	}
	redirect(w, r, "/budget/manage", msgDeleted)
}

func (s *Server) webExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.svc.Export(r.Context(), actorOf(r), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		status, key := classify(err, msgFailed)
		s.logFailure(r, status, err)
		redirect(w, r, "/budget/manage", key)
		return
	}
	writePDF(w, exp.Filename, exp.Data)
}
