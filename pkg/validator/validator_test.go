package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ProductID uuid.UUID        `validate:"uuid_required"`
	Quantity  int              `validate:"gt=0"`
	UnitPrice *decimal.Decimal `validate:"omitempty,gte=0,money"`
}

type order struct {
	Phone string `validate:"phone"`
	Items []line `validate:"required,min=1,dive"`
}

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	neg := decimal.RequireFromString("-1.50")
	ok := decimal.RequireFromString("9.99")
	whole := decimal.RequireFromString("12")
	padded := decimal.RequireFromString("4.500")
	fine := decimal.RequireFromString("0.005")

	tests := []struct {
		name    string
		in      order
		wantTag string
	}{
		{"valid", order{Phone: "0512345678", Items: []line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: &ok}}}, ""},
		{"empty phone allowed", order{Items: []line{{ProductID: uuid.New(), Quantity: 2}}}, ""},
		{"no items", order{}, "required"},
		{"bad phone", order{Phone: "123", Items: []line{{ProductID: uuid.New(), Quantity: 1}}}, "phone"},
		{"nil product", order{Items: []line{{Quantity: 1}}}, "uuid_required"},
		{"zero quantity", order{Items: []line{{ProductID: uuid.New()}}}, "gt"},
		{"whole price", order{Items: []line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: &whole}}}, ""},
		{"trailing zeros", order{Items: []line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: &padded}}}, ""},
		{"sub-cent price", order{Items: []line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: &fine}}}, "money"},
		{"negative price", order{Items: []line{{ProductID: uuid.New(), Quantity: 1, UnitPrice: &neg}}}, "gte"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateStruct(tc.in)
			if tc.wantTag == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Equal(t, tc.wantTag, errs[0].Tag)
			assert.Contains(t, Message(errs), tc.wantTag)
		})
	}
}
