package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
)

func init() {
	Register()
}

type sample struct {
	Direction string          `binding:"required,direction"`
	Currency  string          `binding:"omitempty,iso4217"`
	Month     string          `binding:"omitempty,year_month"`
	Type      string          `binding:"omitempty,summary_type"`
	Range     string          `binding:"omitempty,summary_range"`
	Amount    decimal.Decimal `binding:"required,gt=0"`
}

func TestRegisteredValidators(t *testing.T) {
	valid := func() sample {
		return sample{Direction: "expense", Currency: "USD", Month: "2021-01", Type: "month", Range: "2021", Amount: decimal.NewFromInt(5)}
	}

	tests := []struct {
		name    string
		mutate  func(s *sample)
		wantErr bool
	}{
		{name: "valid", mutate: func(s *sample) {}},
		{name: "bad_direction", mutate: func(s *sample) { s.Direction = "transfer" }, wantErr: true},
		{name: "bad_currency", mutate: func(s *sample) { s.Currency = "XXX" }, wantErr: true},
		{name: "bad_month", mutate: func(s *sample) { s.Month = "2021-13" }, wantErr: true},
		{name: "month_without_padding", mutate: func(s *sample) { s.Month = "2021-1" }, wantErr: true},
		{name: "bad_type", mutate: func(s *sample) { s.Type = "week" }, wantErr: true},
		{name: "range_year_month", mutate: func(s *sample) { s.Range = "2021-02" }},
		{name: "bad_range", mutate: func(s *sample) { s.Range = "21" }, wantErr: true},
		{name: "zero_amount", mutate: func(s *sample) { s.Amount = decimal.Zero }, wantErr: true},
		{name: "negative_amount", mutate: func(s *sample) { s.Amount = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "fractional_amount", mutate: func(s *sample) { s.Amount = decimal.RequireFromString("0.01") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := binding.Validator.ValidateStruct(&s)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
