package middleware

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

type testProductForm struct {
	Name     string          `form:"nombre" validate:"required,max=120"`
	Quantity int             `form:"cantidad" validate:"gte=0"`
	Price    decimal.Decimal `form:"precio" validate:"gte=0"`
	Email    string          `form:"correo_electronico" validate:"omitempty,email"`
}

// Feature: inventario, Property 17: Decimal fields honour numeric tags
func TestProperty_DecimalRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("negative prices fail, non-negative prices pass", prop.ForAll(
		func(cents int64) bool {
			form := testProductForm{Name: "Widget", Price: decimal.New(cents, -2)}
			err := ValidateRequest(form)
			if cents < 0 {
				errs := FormatValidationErrors(err)
				return len(errs) == 1 && errs[0].Field == "precio"
			}
			return err == nil
		},
		gen.Int64Range(-100000, 100000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesFormNames(t *testing.T) {
	err := ValidateRequest(testProductForm{Name: "", Quantity: -1, Email: "not-an-email"})
	errs := FormatValidationErrors(err)

	got := map[string]string{}
	for _, e := range errs {
		got[e.Field] = e.Message
	}

	want := map[string]string{
		"nombre":             "This field is required",
		"cantidad":           "Value must be greater than or equal to 0",
		"correo_electronico": "Invalid email format",
	}
	for field, message := range want {
		if got[field] != message {
			t.Errorf("%s: got %q, want %q", field, got[field], message)
		}
	}
	if len(errs) != len(want) {
		t.Errorf("expected %d errors, got %+v", len(want), errs)
	}
}

func TestFormatValidationErrors_MaxLength(t *testing.T) {
	long := make([]byte, 121)
	for i := range long {
		long[i] = 'a'
	}
	errs := FormatValidationErrors(ValidateRequest(testProductForm{Name: string(long)}))
	if len(errs) != 1 || errs[0].Message != "Must be at most 120 characters" {
		t.Errorf("unexpected errors: %+v", errs)
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	if errs := FormatValidationErrors(nil); len(errs) != 0 {
		t.Errorf("expected no errors, got %+v", errs)
	}
}
