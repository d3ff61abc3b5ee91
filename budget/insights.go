package budget

import "github.com/shopspring/decimal"

// Category is one slice of the dashboard expense chart.
type Category struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

const customCategoryColor = "#FF9F40"

// Categories lists the budget's expense lines with their chart colours.
func (b *Budget) Categories() []Category {
	cats := []Category{
		{Label: "Housing/Rent", Value: b.Housing, Color: "#FF6384"},
		{Label: "Food", Value: b.Food, Color: "#36A2EB"},
		{Label: "Transport", Value: b.Transport, Color: "#FFCE56"},
		{Label: "Miscellaneous", Value: b.Miscellaneous, Color: "#4BC0C0"},
		{Label: "Others", Value: b.Others, Color: "#9966FF"},
	}
	for _, c := range b.CustomCategories {
		cats = append(cats, Category{Label: SanitizeName(c.Name), Value: c.Amount, Color: customCategoryColor})
	}
	return cats
}

const (
	InsightSurplus = "You have a surplus. Consider saving or investing it!"
	InsightDeficit = "Your expenses exceed your income. Look for areas to cut back."
)

// Insights returns the surplus or deficit remark, or nothing when the
// budget balances exactly.
func (b *Budget) Insights() []string {
	switch b.SurplusDeficit.Sign() {
	case 1:
		return []string{InsightSurplus}
	case -1:
		return []string{InsightDeficit}
	default:
		return []string{}
	}
}

// Tips are the static budgeting hints shown on every budget page.
var Tips = []string{
	"Track your expenses daily to stay within budget.",
	"Join an ajo savings group to build savings steadily.",
	"Review your data subscriptions and drop the ones you do not use.",
	"Plan ahead for the needs of your dependents.",
}
