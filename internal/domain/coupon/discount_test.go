package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func maxOf(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		subtotal decimal.Decimal
		coupon   *Coupon
		want     decimal.Decimal
	}{
		{
			name:     "nil coupon",
			subtotal: d("250"),
			want:     d("0"),
		},
		{
			name:     "inactive coupon",
			subtotal: d("250"),
			coupon:   &Coupon{Code: "OFF", DiscountType: DiscountPercent, Value: d("10")},
			want:     d("0"),
		},
		{
			name:     "SAVE10 capped by max discount",
			subtotal: d("250"),
			coupon:   &Coupon{Code: "SAVE10", DiscountType: DiscountPercent, Value: d("10"), MaxDiscount: maxOf("20"), Active: true},
			want:     d("20"),
		},
		{
			name:     "percent under the cap",
			subtotal: d("150"),
			coupon:   &Coupon{Code: "SAVE10", DiscountType: DiscountPercent, Value: d("10"), MaxDiscount: maxOf("20"), Active: true},
			want:     d("15"),
		},
		{
			name:     "percent without cap",
			subtotal: d("99.99"),
			coupon:   &Coupon{Code: "HALF", DiscountType: DiscountPercent, Value: d("50"), Active: true},
			want:     d("49.995"),
		},
		{
			name:     "percent above 100 clamps to subtotal",
			subtotal: d("80"),
			coupon:   &Coupon{Code: "WILD", DiscountType: DiscountPercent, Value: d("150"), Active: true},
			want:     d("80"),
		},
		{
			name:     "flat",
			subtotal: d("500"),
			coupon:   &Coupon{Code: "FLAT50", DiscountType: DiscountFlat, Value: d("50"), Active: true},
			want:     d("50"),
		},
		{
			name:     "flat capped by max discount",
			subtotal: d("500"),
			coupon:   &Coupon{Code: "FLAT50", DiscountType: DiscountFlat, Value: d("50"), MaxDiscount: maxOf("30"), Active: true},
			want:     d("30"),
		},
		{
			name:     "flat larger than subtotal",
			subtotal: d("40"),
			coupon:   &Coupon{Code: "FLAT50", DiscountType: DiscountFlat, Value: d("50"), Active: true},
			want:     d("40"),
		},
		{
			name:     "min amount is not enforced",
			subtotal: d("100"),
			coupon:   &Coupon{Code: "BIG", DiscountType: DiscountFlat, Value: d("25"), MinAmount: d("1000"), Active: true},
			want:     d("25"),
		},
		{
			name:     "zero subtotal",
			subtotal: d("0"),
			coupon:   &Coupon{Code: "FLAT50", DiscountType: DiscountFlat, Value: d("50"), Active: true},
			want:     d("0"),
		},
		{
			name:     "unknown discount type",
			subtotal: d("100"),
			coupon:   &Coupon{Code: "ODD", DiscountType: "bogo", Value: d("10"), Active: true},
			want:     d("0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.subtotal, tt.coupon)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.False(t, got.IsNegative())
			assert.True(t, got.LessThanOrEqual(tt.subtotal))
		})
	}
}
