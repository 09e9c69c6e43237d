package transport

import (
	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/internal/estate/service"
	"estate_analyzer/internal/estate/valuation"
	"estate_analyzer/platform/apperr"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ToEvaluateInput builds validated entities from the request. Tax values the
// caller left out are estimated with a.
func (r EvaluateRequest) ToEvaluateInput(a valuation.Assumptions) (service.EvaluateInput, error) {
	b, err := r.Building.ToDomain()
	if err != nil {
		return service.EvaluateInput{}, err
	}
	l, err := r.Land.ToDomain()
	if err != nil {
		return service.EvaluateInput{}, err
	}
	info, err := r.BuildingInfo.solveOccupancy(b, l, r.SurfaceRatio)
	if err != nil {
		return service.EvaluateInput{}, err
	}
	bi, err := info.ToDomain(b, a)
	if err != nil {
		return service.EvaluateInput{}, err
	}
	li, err := r.LandInfo.ToDomain(l, a)
	if err != nil {
		return service.EvaluateInput{}, err
	}

	in := service.EvaluateInput{
		Building:     b,
		BuildingInfo: bi,
		Land:         l,
		LandInfo:     li,
		AnnualRent:   r.AnnualRent,
		Years:        r.Years,
	}

	if r.Loan != nil {
		loan, err := r.Loan.ToDomain()
		if err != nil {
			return service.EvaluateInput{}, err
		}
		in.Loan = &loan
	}
	if r.LoanInfo != nil {
		info, err := r.LoanInfo.ToDomain()
		if err != nil {
			return service.EvaluateInput{}, err
		}
		in.LoanInfo = &info
	}
	return in, nil
}

// ToDomain converts the building request.
func (r BuildingRequest) ToDomain() (domain.Building, error) {
	p := domain.BuildingParams{
		RegistrationCost:  r.RegistrationCost,
		InitialReformCost: r.InitialReformCost,
		Price:             r.Price,
		RemovalCost:       r.RemovalCost,
		RoomCount:         DefaultRoomCount,
		AgeAtPurchase:     r.AgeAtPurchase,
	}
	if r.RoomCount != nil {
		p.RoomCount = *r.RoomCount
	}
	if r.Type != nil {
		bt, err := domain.ParseBuildingType(*r.Type)
		if err != nil {
			return domain.Building{}, err
		}
		p.Type = &bt
	}
	return domain.NewBuilding(p)
}

// ToDomain converts the building info, estimating missing tax values.
func (r BuildingInfoRequest) ToDomain(b domain.Building, a valuation.Assumptions) (domain.BuildingInfo, error) {
	assessed, ledger := a.BuildingTaxValues(b, r.TaxAssessedValue, r.TaxLedgerValue)
	return domain.NewBuildingInfo(domain.BuildingInfoParams{
		TaxLedgerValue:      ledger,
		TaxAssessedValue:    assessed,
		VacancyRatio:        valueOr(r.VacancyRatio, 0),
		VacancyRatioOnSell:  r.VacancyRatioOnSell,
		RepairCost:          r.RepairCost,
		RepairReserve:       r.RepairReserve,
		MonthlyRent:         valueOr(r.MonthlyRent, 0),
		ManagementFee:       r.ManagementFee,
		AdvertisingFeeRatio: r.AdvertisingFeeRatio,
	})
}

// ToDomain converts the land request.
func (r LandRequest) ToDomain() (domain.Land, error) {
	return domain.NewLand(domain.LandParams{RegistrationCost: r.RegistrationCost, Price: r.Price})
}

// ToDomain converts the land info, estimating missing tax values.
func (r LandInfoRequest) ToDomain(l domain.Land, a valuation.Assumptions) (domain.LandInfo, error) {
	assessed, ledger := a.LandTaxValues(l, r.TaxAssessedValue, r.TaxLedgerValue)
	return domain.NewLandInfo(assessed, ledger)
}

// ToDomain converts the loan request.
func (r LoanRequest) ToDomain() (domain.Loan, error) {
	p := domain.LoanParams{
		TermMonths:  r.TermMonths,
		Amount:      r.Amount,
		DownPayment: r.DownPayment,
		Buffer:      r.Buffer,
	}
	if r.PaymentType != nil {
		pt, err := domain.ParseLoanPayType(*r.PaymentType)
		if err != nil {
			return domain.Loan{}, err
		}
		p.PayType = &pt
	}
	if r.RateType != nil {
		lt, err := domain.ParseLoanType(*r.RateType)
		if err != nil {
			return domain.Loan{}, err
		}
		p.RateType = &lt
	}
	if r.Start != nil {
		d, err := civil.ParseDate(*r.Start)
		if err != nil {
			return domain.Loan{}, apperr.FieldValidation("ln_start", "must be a date in YYYY-MM-DD format")
		}
		p.Start = &d
	}
	return domain.NewLoan(p)
}

// ToDomain converts the interest terms.
func (r LoanInfoRequest) ToDomain() (domain.LoanInfo, error) {
	changes := make([]domain.RateChange, 0, len(r.RateChanges))
	for _, c := range r.RateChanges {
		changes = append(changes, domain.RateChange{FromPeriod: c.FromPeriod, Rate: c.Rate})
	}
	return domain.NewLoanInfo(r.Rate, changes...)
}

// solveOccupancy fills in a missing vacancy ratio or monthly rent from the
// surface ratio: surface × (building + land price) = rent × rooms × 12 × (1 − vacancy).
// With both given the surface ratio is ignored.
func (r BuildingInfoRequest) solveOccupancy(b domain.Building, l domain.Land, surface *float64) (BuildingInfoRequest, error) {
	const op = "transport.solveOccupancy"

	if surface == nil || (r.VacancyRatio != nil && r.MonthlyRent != nil) {
		return r, nil
	}
	if r.VacancyRatio == nil && r.MonthlyRent == nil {
		return r, apperr.InvalidInput("two of vacancy ratio, rent and surface ratio are required").WithOp(op)
	}

	price := decimal.NewFromFloat(b.Price).Add(decimal.NewFromInt(l.Price))
	if !price.IsPositive() {
		return r, apperr.InvalidInput("surface ratio requires a building or land price").WithOp(op)
	}
	target := decimal.NewFromFloat(*surface).Mul(price)
	rooms := decimal.NewFromInt(int64(b.RoomCount)).Mul(decimal.NewFromInt(12))

	if r.VacancyRatio == nil {
		full := decimal.NewFromFloat(*r.MonthlyRent).Mul(rooms)
		if !full.IsPositive() {
			return r, apperr.InvalidInput("vacancy ratio cannot be solved without rent").WithOp(op)
		}
		vacancy := decimal.NewFromInt(1).Sub(target.Div(full)).InexactFloat64()
		if vacancy < 0 || vacancy > 1 {
			return r, apperr.FieldValidation("bd_empty_ratio", "solved value is outside 0 to 1; surface ratio exceeds the full rent")
		}
		r.VacancyRatio = &vacancy
		return r, nil
	}

	occupied := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(*r.VacancyRatio))
	if !occupied.IsPositive() {
		return r, apperr.InvalidInput("rent cannot be solved for a fully vacant building").WithOp(op)
	}
	rent := target.Div(rooms.Mul(occupied)).InexactFloat64()
	r.MonthlyRent = &rent
	return r, nil
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
