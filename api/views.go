package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/service"
	"github.com/ficoreafrica/ledger/types"
)

// html accumulates markup and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *html) rawf(format string, args ...any) { h.raw(fmt.Sprintf(format, args...)) }

func (h *html) element(tag, class, content string) {
	if class != "" {
		h.rawf(`<%s class="%s">`, tag, class)
	} else {
		h.rawf("<%s>", tag)
	}
	h.text(content)
	h.rawf("</%s>", tag)
}

func component(fn func(ctx context.Context, h *html) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		if err := fn(ctx, h); err != nil {
			return err
		}
		return h.err
	})
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = c.Render(r.Context(), w)
}

// layout wraps body in the page chrome and shows the flash message named by
// the request's flash query parameter.
func layout(title string, flash string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) error {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title + " | Ficore Africa")
		h.raw("</title></head><body>")
		h.raw(`<nav><a href="/budget/index">Budget</a> <a href="/budget/new">New</a> <a href="/budget/dashboard">Dashboard</a> <a href="/budget/manage">Manage</a></nav><main>`)
		if m, ok := messages[flash]; ok {
			h.element("div", "alert alert-"+m.Category, m.Text)
		}
		h.element("h1", "", title)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, h.w); err != nil {
			return err
		}
		h.raw("</main></body></html>")
		return nil
	})
}

func tipList(h *html, tips []string) {
	h.element("h2", "", "Tips")
	h.raw(`<ul class="tips">`)
	for _, tip := range tips {
		h.element("li", "", tip)
	}
	h.raw("</ul>")
}

func indexPage(tips []string, flash string) templ.Component {
	return layout(indexTitle, flash, component(func(_ context.Context, h *html) error {
		h.element("p", "subtitle", indexSubtitle)
		h.raw(`<section><a href="/budget/new">Create a budget</a>`)
		h.element("p", "", createDescription)
		h.raw(`</section><section><a href="/budget/dashboard">Dashboard</a>`)
		h.element("p", "", dashboardDescription)
		h.raw(`</section><section><a href="/budget/manage">Manage budgets</a>`)
		h.element("p", "", manageDescription)
		h.raw("</section>")
		tipList(h, tips)
		return nil
	}))
}

func fieldErrors(h *html, errs budget.FieldErrors, field string) {
	for _, msg := range errs[field] {
		h.element("span", "error", msg)
	}
}

func newPage(values url.Values, errs budget.FieldErrors, tips []string, flash string) templ.Component {
	return layout("Create Budget", flash, component(func(_ context.Context, h *html) error {
		h.raw(`<form method="post" action="/budget/new">`)
		for _, f := range amountFields {
			h.rawf(`<label for="%s">`, f.name)
			h.text(f.label)
			h.rawf(`</label><input type="number" step="0.01" min="0" id="%s" name="%s" value="`, f.name, f.name)
			h.text(values.Get(f.name))
			h.raw(`">`)
			fieldErrors(h, errs, f.name)
		}
		h.raw(`<label for="dependents">Dependents</label><input type="number" min="0" max="100" id="dependents" name="dependents" value="`)
		h.text(values.Get("dependents"))
		h.raw(`">`)
		fieldErrors(h, errs, "dependents")
		fieldErrors(h, errs, "custom_categories")

		h.raw(`<fieldset><legend>Custom categories</legend>`)
		for i := 0; i <= budget.MaxCustomCategories; i++ {
			name, amount := values.Get(categoryField(i, "name")), values.Get(categoryField(i, "amount"))
			if name == "" && amount == "" && i > 0 {
				break
			}
			h.rawf(`<input type="text" maxlength="50" name="%s" value="`, categoryField(i, "name"))
			h.text(name)
			h.rawf(`"><input type="number" step="0.01" min="0" name="%s" value="`, categoryField(i, "amount"))
			h.text(amount)
			h.raw(`">`)
			fieldErrors(h, errs, fmt.Sprintf("custom_categories[%d].name", i))
			fieldErrors(h, errs, fmt.Sprintf("custom_categories[%d].amount", i))
		}
		h.raw(`</fieldset><button type="submit">Calculate Budget</button></form>`)
		tipList(h, tips)
		return nil
	}))
}

func pager(h *html, base string, p service.Pagination) {
	if p.Pages <= 1 {
		return
	}
	h.raw(`<nav class="pagination">`)
	if p.Page > 1 {
		h.rawf(`<a href="%s?page=%d&amp;limit=%d">Previous</a> `, base, p.Page-1, p.Limit)
	}
	h.rawf("<span>Page %d of %d</span>", p.Page, p.Pages)
	if int64(p.Page) < p.Pages {
		h.rawf(` <a href="%s?page=%d&amp;limit=%d">Next</a>`, base, p.Page+1, p.Limit)
	}
	h.raw("</nav>")
}

func dashboardPage(d *service.Dashboard, flash string) templ.Component {
	return layout("Budget Dashboard", flash, component(func(_ context.Context, h *html) error {
		if d.LatestBudget == nil {
			h.element("p", "empty", "No budgets yet. Create one to see your dashboard.")
			tipList(h, d.Tips)
			return nil
		}

		b := d.LatestBudget
		h.raw(`<section class="summary"><dl>`)
		for _, row := range []struct {
			label string
			value string
		}{
			{"Income", types.FormatAmount(b.Income)},
			{"Fixed Expenses", types.FormatAmount(b.FixedExpenses)},
			{"Variable Expenses", types.FormatAmount(b.VariableExpenses)},
			{"Savings Goal", types.FormatAmount(b.SavingsGoal)},
			{"Surplus/Deficit", types.FormatAmount(b.SurplusDeficit)},
		} {
			h.element("dt", "", row.label)
			h.element("dd", "", row.value)
		}
		h.raw("</dl></section>")

		h.raw(`<table class="categories"><thead><tr><th>Category</th><th>Amount</th></tr></thead><tbody>`)
		for _, c := range d.Categories {
			h.rawf(`<tr style="border-left: 4px solid %s"><td>`, templ.EscapeString(c.Color))
			h.text(c.Label)
			h.raw("</td><td>")
			h.text(types.FormatAmount(c.Value))
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")

		for _, insight := range d.Insights {
			h.element("p", "insight", insight)
		}
		tipList(h, d.Tips)
		pager(h, "/budget/dashboard", d.Pagination)
		return nil
	}))
}

func managePage(m *service.Manage, flash string) templ.Component {
	return layout("Manage Budgets", flash, component(func(_ context.Context, h *html) error {
		if len(m.Budgets) == 0 {
			h.element("p", "empty", "No budgets found.")
			return nil
		}

		h.raw(`<table class="budgets"><thead><tr><th>Date</th><th>Income</th><th>Expenses</th><th>Surplus/Deficit</th><th></th></tr></thead><tbody>`)
		for _, b := range m.Budgets {
			id := b.ID.String()
			h.raw("<tr><td>")
			h.text(b.CreatedAt.Format("2006-01-02"))
			h.raw("</td><td>")
			h.text(types.FormatAmount(b.Income))
			h.raw("</td><td>")
			h.text(types.FormatAmount(b.TotalExpenses()))
			h.raw("</td><td>")
			h.text(b.SurplusDeficitFormatted)
			h.raw(`</td><td><a href="/budget/export_pdf/single/`)
			h.text(id)
			h.raw(`">Export PDF</a><form method="post" action="/budget/delete_budget"><input type="hidden" name="budget_id" value="`)
			h.text(id)
			h.raw(`"><button type="submit">Delete</button></form></td></tr>`)
		}
		h.raw(`</tbody></table><a href="/budget/export_pdf/history">Export history as PDF</a>`)
		pager(h, "/budget/manage", m.Pagination)
		return nil
	}))
}

func unauthorizedPage() templ.Component {
	return layout("Sign in required", "", component(func(_ context.Context, h *html) error {
		h.element("p", "", text(msgUnauthorized))
		return nil
	}))
}
