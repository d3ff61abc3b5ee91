package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ficoreafrica/ledger/budget"
	"github.com/ficoreafrica/ledger/types"
)

// Form fields of the budget form, in display order.
var amountFields = []struct {
	name  string
	label string
}{
	{"income", "Monthly Income"},
	{"housing", "Housing/Rent"},
	{"food", "Food"},
	{"transport", "Transport"},
	{"miscellaneous", "Miscellaneous"},
	{"others", "Others"},
	{"savings_goal", "Savings Goal"},
}

func categoryField(i int, field string) string {
	return fmt.Sprintf("custom_categories-%d-%s", i, field)
}

// parseBudgetForm reads the HTML budget form. Amounts may carry comma
// grouping. Values that do not parse as numbers are reported in the returned FieldErrors and left nil.
func parseBudgetForm(r *http.Request) (budget.Input, budget.FieldErrors) {
	errs := budget.FieldErrors{}

	number := func(key, field string) *float64 {
		raw := strings.TrimSpace(r.PostFormValue(field))
		if raw == "" {
			return nil
		}
		d, err := types.ParseAmount(raw)
		if err != nil {
			errs[key] = append(errs[key], "Not a valid number.")
			return nil
		}
		v := d.InexactFloat64()
		return &v
	}

	in := budget.Input{
		Income:        number("income", "income"),
		Housing:       number("housing", "housing"),
		Food:          number("food", "food"),
		Transport:     number("transport", "transport"),
		Miscellaneous: number("miscellaneous", "miscellaneous"),
		Others:        number("others", "others"),
		SavingsGoal:   number("savings_goal", "savings_goal"),
	}

	if raw := strings.TrimSpace(r.PostFormValue("dependents")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["dependents"] = append(errs["dependents"], "Not a valid integer.")
		} else {
			in.Dependents = &n
		}
	}

	// One past the maximum so that too many categories fail validation
	// instead of being dropped.
	for i := 0; i <= budget.MaxCustomCategories; i++ {
		name := r.PostFormValue(categoryField(i, "name"))
		amount := r.PostFormValue(categoryField(i, "amount"))
		if name == "" && amount == "" {
			break
		}
		in.CustomCategories = append(in.CustomCategories, budget.CategoryInput{
			Name:   name,
			Amount: number(fmt.Sprintf("custom_categories[%d].amount", i), categoryField(i, "amount")),
		})
	}

	return in, errs
}

// merge adds the entries of other for fields that have no error yet.
func merge(errs, other budget.FieldErrors) budget.FieldErrors {
	for field, msgs := range other {
		if _, ok := errs[field]; !ok {
			errs[field] = msgs
		}
	}
	return errs
}
