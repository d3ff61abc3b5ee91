package budget

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Input is a budget submission from either the HTML form or the JSON API.
// Pointer fields distinguish a missing value from an explicit zero.
type Input struct {
	Income           *float64        `json:"income" validate:"required,gte=0,lte=10000000000"`
	Housing          *float64        `json:"housing" validate:"required,gte=0,lte=10000000000"`
	Food             *float64        `json:"food" validate:"required,gte=0,lte=10000000000"`
	Transport        *float64        `json:"transport" validate:"required,gte=0,lte=10000000000"`
	Dependents       *int            `json:"dependents" validate:"required,gte=0,lte=100"`
	Miscellaneous    *float64        `json:"miscellaneous" validate:"required,gte=0,lte=10000000000"`
	Others           *float64        `json:"others" validate:"required,gte=0,lte=10000000000"`
	SavingsGoal      *float64        `json:"savings_goal" validate:"required,gte=0,lte=10000000000"`
	CustomCategories []CategoryInput `json:"custom_categories" validate:"max=20,dive"`
}

type CategoryInput struct {
	Name   string   `json:"name" validate:"required,max=50"`
	Amount *float64 `json:"amount" validate:"required,gte=0,lte=10000000000"`
}

// FieldErrors maps a field path such as "income" or
// "custom_categories[2].name" to its messages.
type FieldErrors map[string][]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(f[k], "; "))
	}
	return "budget: invalid input: " + strings.Join(parts, ", ")
}

var (
	validate   = newValidator()
	namePolicy = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the input against the form rules and returns
// FieldErrors on failure.
func (in *Input) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("budget: validate input: %w", err)
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out[field] = append(out[field], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "gte", "lte":
		if fe.Field() == "dependents" {
			return "Number must be between 0 and 100."
		}
		return "Number must be between 0 and 10000000000."
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("No more than %d custom categories are allowed.", MaxCustomCategories)
		}
		return "Field cannot be longer than 50 characters."
	default:
		return "Invalid value."
	}
}

// SanitizeName strips markup from a user-supplied category name.
func SanitizeName(name string) string {
	return strings.TrimSpace(namePolicy.Sanitize(name))
}
