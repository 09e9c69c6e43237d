// Package projection rolls an estate forward year by year: rent, expenses,
// loan service, taxes and the resulting cash position.
package projection

import (
	"estate_analyzer/internal/estate/valuation"
	"estate_analyzer/internal/estate/yield"
	"estate_analyzer/platform/apperr"

	"github.com/shopspring/decimal"
)

const (
	// UnfinancedYears is the horizon of a purchase without a loan.
	UnfinancedYears = 10
	// YearsAfterLoan extends a financed horizon past the last loan year.
	YearsAfterLoan = 3
	// MaxYears bounds an explicit horizon.
	MaxYears = 100
)

// Input describes the estate to project. Buffer is the cash kept in reserve
// at purchase. Years overrides the default horizon when positive.
type Input struct {
	Yield       yield.Input
	Assumptions valuation.Assumptions
	Buffer      float64
	Years       int
}

// Year is one row of the projection.
type Year struct {
	Year            int     `json:"year"`
	Rent            float64 `json:"rent"`
	Expenses        float64 `json:"expenses"`
	Interest        float64 `json:"interest"`
	Principal       float64 `json:"principal"`
	ClosingBalance  float64 `json:"closing_balance"`
	FixedAssetTaxes float64 `json:"fixed_asset_taxes"`
	Depreciation    float64 `json:"depreciation"`
	TaxableIncome   float64 `json:"taxable_income"`
	IncomeTax       float64 `json:"income_tax"`
	CashFlow        float64 `json:"cash_flow"`
	Cumulative      float64 `json:"cumulative"`
	Reserve         float64 `json:"reserve"`
	ReserveDepleted bool    `json:"reserve_depleted"`
}

// Result is a full projection.
type Result struct {
	// InitialCashOut is what the buyer pays beyond the financed principal.
	InitialCashOut   float64                    `json:"initial_cash_out"`
	// SurfaceRatioAll is the first year's rent after vacancy over the initial
	// cash out. NetRatioAll uses the first year's cash flow instead. Both are
	// 0 when nothing is paid up front.
	SurfaceRatioAll  float64                    `json:"et_surface_ratio_all"`
	NetRatioAll      float64                    `json:"et_net_ratio_all"`
	AcquisitionTaxes valuation.AcquisitionTaxes `json:"acquisition_taxes"`
	RecurringTaxes   valuation.RecurringTaxes   `json:"recurring_taxes"`
	Years            []Year                     `json:"years"`
}

// Horizon is the default number of projected years.
func Horizon(in yield.Input) int {
	if in.Schedule == nil {
		return UnfinancedYears
	}
	return (in.Schedule.Len()+11)/12 + YearsAfterLoan
}

// Project computes the yearly rows.
func Project(in Input) (Result, error) {
	const op = "projection.Project"

	base, err := yield.Breakdown(in.Yield)
	if err != nil {
		return Result{}, err
	}
	if in.Buffer < 0 {
		return Result{}, apperr.InvalidInput("buffer must not be negative").WithOp(op)
	}
	if in.Years < 0 || in.Years > MaxYears {
		return Result{}, apperr.InvalidInput("years must be between 0 and 100").WithOp(op)
	}

	years := in.Years
	if years <= 0 {
		years = Horizon(in.Yield)
	}

	a := in.Assumptions
	y := in.Yield
	res := Result{
		AcquisitionTaxes: a.Acquisition(y.Building, y.BuildingInfo, y.Land, y.LandInfo),
		RecurringTaxes:   a.Recurring(y.BuildingInfo, y.LandInfo),
		Years:            make([]Year, 0, years),
	}

	financed := decimal.Zero
	if y.Schedule != nil {
		financed = decimal.NewFromFloat(y.Schedule.Principal())
	}
	cashOut := decimal.NewFromFloat(base.Costs.Total).
		Add(decimal.NewFromFloat(res.AcquisitionTaxes.Total)).
		Sub(financed)
	res.InitialCashOut = cashOut.InexactFloat64()

	rent := decimal.NewFromFloat(base.EffectiveIncome)
	running := decimal.NewFromFloat(base.Expenses.Total - base.Expenses.Interest)
	fixedTaxes := decimal.NewFromFloat(res.RecurringTaxes.Total)
	cumulative := cashOut.Neg()
	reserve := decimal.NewFromFloat(in.Buffer)

	for n := 1; n <= years; n++ {
		row := Year{
			Year:            n,
			Rent:            base.EffectiveIncome,
			FixedAssetTaxes: res.RecurringTaxes.Total,
			Depreciation:    a.Depreciation(y.Building, n),
		}
		if y.Schedule != nil {
			lb := y.Schedule.Year(n)
			row.Interest = lb.Interest
			row.Principal = lb.Principal
			row.ClosingBalance = lb.ClosingBalance
		}

		expenses := running.Add(decimal.NewFromFloat(row.Interest))
		taxable := rent.Sub(expenses).Sub(fixedTaxes).Sub(decimal.NewFromFloat(row.Depreciation))
		if taxable.IsNegative() {
			taxable = decimal.Zero
		}
		row.Expenses = expenses.InexactFloat64()
		row.TaxableIncome = taxable.InexactFloat64()
		row.IncomeTax = a.IncomeTax(row.TaxableIncome)

		cash := rent.Sub(expenses).
			Sub(fixedTaxes).
			Sub(decimal.NewFromFloat(row.IncomeTax)).
			Sub(decimal.NewFromFloat(row.Principal))
		cumulative = cumulative.Add(cash)
		reserve = reserve.Add(cash)

		row.CashFlow = cash.InexactFloat64()
		row.Cumulative = cumulative.InexactFloat64()
		row.Reserve = reserve.InexactFloat64()
		row.ReserveDepleted = reserve.IsNegative()
		res.Years = append(res.Years, row)
	}

	if cashOut.IsPositive() {
		res.SurfaceRatioAll = rent.Div(cashOut).InexactFloat64()
		res.NetRatioAll = decimal.NewFromFloat(res.Years[0].CashFlow).Div(cashOut).InexactFloat64()
	}
	return res, nil
}
