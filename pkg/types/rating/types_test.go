package rating

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() QuoteRequest {
	return QuoteRequest{
		QuoteID:       "Q-1",
		State:         "CA",
		EffectiveDate: "2026-06-01",
		Drivers:       []Driver{{Age: 35, YearsLicensed: 17}},
		Vehicles:      []Vehicle{{ModelYear: 2022, Type: "sedan", AssessedValue: decimal.NewFromInt(28000)}},
		Coverages:     []Coverage{{Type: "liability", Limit: decimal.NewFromInt(100000)}},
	}
}

func TestQuoteRequest_Validate(t *testing.T) {
	r := validRequest()
	require.NoError(t, r.Validate())

	neg := decimal.NewFromInt(-1)
	cases := map[string]func(*QuoteRequest){
		"missing quote id":    func(r *QuoteRequest) { r.QuoteID = " " },
		"bad state":           func(r *QuoteRequest) { r.State = "Cal" },
		"bad date":            func(r *QuoteRequest) { r.EffectiveDate = "06/01/2026" },
		"no drivers":          func(r *QuoteRequest) { r.Drivers = nil },
		"zero limit":          func(r *QuoteRequest) { r.Coverages[0].Limit = decimal.Zero },
		"negative deductible": func(r *QuoteRequest) { r.Coverages[0].Deductible = &neg },
		"manual type":         func(r *QuoteRequest) { r.ManualDiscounts = []ManualDiscount{{Code: "UW", Type: "bonus"}} },
		"override not positive": func(r *QuoteRequest) {
			z := decimal.Zero
			r.OverridePremium = &z
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validRequest()
			mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestQuoteRequest_Validate_ReportsEveryProblem(t *testing.T) {
	err := (&QuoteRequest{}).Validate()
	require.Error(t, err)
	for _, want := range []string{"quote_id", "state", "effective_date", "driver", "vehicle", "coverage"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestQuoteRequest_ParseEffectiveDate(t *testing.T) {
	r := QuoteRequest{EffectiveDate: "2026-06-01"}
	d, err := r.ParseEffectiveDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), d)

	r.EffectiveDate = "2026-06-01T08:00:00-07:00"
	d, err = r.ParseEffectiveDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC), d)
}

func TestPremiumResponse_MoneyIsString(t *testing.T) {
	resp := PremiumResponse{FinalPremium: decimal.RequireFromString("1234.50")}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"final_premium":"1234.5"`)

	var back PremiumResponse
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, resp.FinalPremium.Equal(back.FinalPremium))
}

//Personal.AI order the ending
