// Package yield derives surface and net yield ratios from an estate's
// acquisition cost, rental income and running expenses.
package yield

import (
	"math"

	"estate_analyzer/internal/estate/amortization"
	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/platform/apperr"

	"github.com/shopspring/decimal"
)

// Input is everything a yield calculation needs. Schedule is nil for an
// unfinanced purchase. AnnualRent overrides the rent derived from the
// building info when set.
type Input struct {
	Building     domain.Building
	BuildingInfo domain.BuildingInfo
	Land         domain.Land
	LandInfo     domain.LandInfo
	Schedule     *amortization.Schedule
	AnnualRent   *float64
}

// Costs is the composition of the total acquisition cost.
type Costs struct {
	BuildingPrice     float64 `json:"bd_price"`
	LandPrice         float64 `json:"ld_price"`
	RegistrationCosts float64 `json:"registration_costs"`
	InitialReform     float64 `json:"bd_init_reform_cost"`
	Removal           float64 `json:"bd_remove_leaves_cost"`
	Total             float64 `json:"total"`
}

// Expenses are the annual operating expenses charged against rent.
type Expenses struct {
	Repair        float64 `json:"bd_repair_cost"`
	RepairReserve float64 `json:"bd_repair_prepare_cost"`
	Management    float64 `json:"bd_maintenance_fee"`
	Advertising   float64 `json:"bd_ad_fee"`
	Interest      float64 `json:"interest_paid"`
	Total         float64 `json:"total"`
}

// Result carries the ratios together with the figures they were derived from.
type Result struct {
	Estate             domain.Estate `json:"estate"`
	Costs              Costs         `json:"costs"`
	Expenses           Expenses      `json:"expenses"`
	GrossIncome        float64       `json:"gross_income"`
	VacancyRatio       float64       `json:"vacancy_ratio"`
	VacancyRatioOnSell float64       `json:"vacancy_ratio_on_sell"`
	EffectiveIncome    float64       `json:"effective_income"`
	NetIncome          float64       `json:"net_income"`
	NetIncomeOnSell    float64       `json:"net_income_on_sell"`
}

// Calculate returns the yield ratios of the estate.
func Calculate(in Input) (domain.Estate, error) {
	res, err := Breakdown(in)
	if err != nil {
		return domain.Estate{}, err
	}
	return res.Estate, nil
}

// Breakdown computes the ratios and reports every line that went into them.
func Breakdown(in Input) (Result, error) {
	const op = "yield.Breakdown"

	costs := AcquisitionCost(in.Building, in.Land)
	if costs.Total <= 0 {
		return Result{}, apperr.InvalidInput("total acquisition cost must be positive").WithOp(op)
	}

	gross := GrossRent(in.Building, in.BuildingInfo)
	if in.AnnualRent != nil {
		gross = *in.AnnualRent
	}
	if math.IsNaN(gross) || math.IsInf(gross, 0) || gross < 0 {
		return Result{}, apperr.InvalidInput("annual rent must be a non-negative number").WithOp(op)
	}

	res := Result{
		Costs:        costs,
		GrossIncome:  gross,
		VacancyRatio: in.BuildingInfo.VacancyRatio,
		Expenses:     OperatingExpenses(in.BuildingInfo, gross, in.Schedule),
	}
	// A missing at-sale ratio means the current one still applies.
	res.VacancyRatioOnSell = res.VacancyRatio
	if in.BuildingInfo.VacancyRatioOnSell != nil {
		res.VacancyRatioOnSell = *in.BuildingInfo.VacancyRatioOnSell
	}

	total := decimal.NewFromFloat(costs.Total)
	grossD := decimal.NewFromFloat(gross)
	expenses := decimal.NewFromFloat(res.Expenses.Total)

	effective := afterVacancy(grossD, res.VacancyRatio)
	effectiveOnSell := afterVacancy(grossD, res.VacancyRatioOnSell)
	net := effective.Sub(expenses)
	netOnSell := effectiveOnSell.Sub(expenses)

	res.EffectiveIncome = effective.InexactFloat64()
	res.NetIncome = net.InexactFloat64()
	res.NetIncomeOnSell = netOnSell.InexactFloat64()
	res.Estate = domain.Estate{
		TargetRatio:    grossD.Div(total).InexactFloat64(),
		NetRatio:       net.Div(total).InexactFloat64(),
		NetRatioOnSell: netOnSell.Div(total).InexactFloat64(),
	}
	return res, nil
}

// AcquisitionCost sums prices, registration costs, reform and removal costs.
func AcquisitionCost(b domain.Building, l domain.Land) Costs {
	c := Costs{
		BuildingPrice:     b.Price,
		LandPrice:         float64(l.Price),
		RegistrationCosts: float64(b.RegistrationCost + l.RegistrationCost),
		InitialReform:     b.InitialReformCost,
		Removal:           b.RemovalCost,
	}
	c.Total = decimal.NewFromFloat(c.BuildingPrice).
		Add(decimal.NewFromFloat(c.LandPrice)).
		Add(decimal.NewFromFloat(c.RegistrationCosts)).
		Add(decimal.NewFromFloat(c.InitialReform)).
		Add(decimal.NewFromFloat(c.Removal)).
		InexactFloat64()
	return c
}

// GrossRent is the full-occupancy annual rent.
func GrossRent(b domain.Building, bi domain.BuildingInfo) float64 {
	return decimal.NewFromFloat(bi.MonthlyRent).
		Mul(decimal.NewFromInt(int64(b.RoomCount) * 12)).
		InexactFloat64()
}

// OperatingExpenses returns the first-year expenses. Interest is what the
// schedule charges over its first loan year; advertising is a share of the
// full-occupancy rent.
func OperatingExpenses(bi domain.BuildingInfo, gross float64, s *amortization.Schedule) Expenses {
	e := Expenses{
		Repair:        bi.RepairCost,
		RepairReserve: bi.RepairReserve,
		Management:    bi.ManagementFee,
		Advertising:   decimal.NewFromFloat(gross).Mul(decimal.NewFromFloat(bi.AdvertisingFeeRatio)).InexactFloat64(),
	}
	if s != nil {
		e.Interest = s.Year(1).Interest
	}
	e.Total = decimal.NewFromFloat(e.Repair).
		Add(decimal.NewFromFloat(e.RepairReserve)).
		Add(decimal.NewFromFloat(e.Management)).
		Add(decimal.NewFromFloat(e.Advertising)).
		Add(decimal.NewFromFloat(e.Interest)).
		InexactFloat64()
	return e
}

func afterVacancy(gross decimal.Decimal, vacancy float64) decimal.Decimal {
	return gross.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(vacancy)))
}
