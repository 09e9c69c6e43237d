package domain

import (
	"time"

	"estate_analyzer/platform/apperr"
	"estate_analyzer/platform/validator"

	"cloud.google.com/go/civil"
)

const (
	// DefaultRegistrationCost is the registration fee assumed for building and land.
	DefaultRegistrationCost int64 = 80000
)

// today is replaced in tests.
var today = func() civil.Date { return civil.DateOf(time.Now()) }

// Building is the structure being purchased. Construct with NewBuilding.
type Building struct {
	RegistrationCost  int64        `json:"bd_registration_cost" validate:"gte=0"`
	InitialReformCost float64      `json:"bd_init_reform_cost" validate:"finite,gte=0"`
	Price             float64      `json:"bd_price" validate:"finite,gte=0"`
	RemovalCost       float64      `json:"bd_remove_leaves_cost" validate:"finite,gte=0"`
	RoomCount         int          `json:"bd_room_count" validate:"min=1"`
	AgeAtPurchase     int          `json:"bd_leaves_on_purchase" validate:"min=0"`
	Type              BuildingType `json:"bd_type" validate:"oneof=TREE CONCRETE"`
}

// BuildingParams carries raw building input. Nil pointers take the declared default.
type BuildingParams struct {
	RegistrationCost  *int64
	InitialReformCost float64
	Price             float64
	RemovalCost       float64
	RoomCount         int
	AgeAtPurchase     *int
	Type              *BuildingType
}

// NewBuilding applies defaults and validates the building.
func NewBuilding(p BuildingParams) (Building, error) {
	b := Building{
		RegistrationCost:  valueOr(p.RegistrationCost, DefaultRegistrationCost),
		InitialReformCost: p.InitialReformCost,
		Price:             p.Price,
		RemovalCost:       p.RemovalCost,
		RoomCount:         p.RoomCount,
		AgeAtPurchase:     valueOr(p.AgeAtPurchase, 0),
		Type:              valueOr(p.Type, BuildingTypeTree),
	}
	if err := validator.Shared().Check(b); err != nil {
		return Building{}, withOp(err, "domain.NewBuilding")
	}
	return b, nil
}

// BuildingInfo carries the tax valuation and running figures of a building.
type BuildingInfo struct {
	TaxLedgerValue   float64 `json:"bd_tax_eval_price" validate:"finite,gte=0"`
	TaxAssessedValue float64 `json:"bd_tax_account_price" validate:"finite,gte=0"`
	VacancyRatio     float64 `json:"bd_empty_ratio" validate:"ratio"`
	// VacancyRatioOnSell is nil when the at-sale ratio equals the current one.
	VacancyRatioOnSell *float64 `json:"bd_empty_ratio_on_sell,omitempty" validate:"omitempty,ratio"`
	RepairCost         float64  `json:"bd_repair_cost" validate:"finite,gte=0"`
	RepairReserve      float64  `json:"bd_repair_prepare_cost" validate:"finite,gte=0"`
	// MonthlyRent is the expected rent per room per month.
	MonthlyRent         float64 `json:"bd_rent_income" validate:"finite,gte=0"`
	ManagementFee       float64 `json:"bd_maintenance_fee" validate:"finite,gte=0"`
	AdvertisingFeeRatio float64 `json:"bd_ad_fee_ratio" validate:"ratio"`
}

// BuildingInfoParams carries raw building info input.
type BuildingInfoParams struct {
	TaxLedgerValue      float64
	TaxAssessedValue    float64
	VacancyRatio        float64
	VacancyRatioOnSell  *float64
	RepairCost          float64
	RepairReserve       *float64
	MonthlyRent         float64
	ManagementFee       *float64
	AdvertisingFeeRatio *float64
}

// NewBuildingInfo applies defaults and validates the building info.
func NewBuildingInfo(p BuildingInfoParams) (BuildingInfo, error) {
	info := BuildingInfo{
		TaxLedgerValue:      p.TaxLedgerValue,
		TaxAssessedValue:    p.TaxAssessedValue,
		VacancyRatio:        p.VacancyRatio,
		RepairCost:          p.RepairCost,
		RepairReserve:       valueOr(p.RepairReserve, 0),
		MonthlyRent:         p.MonthlyRent,
		ManagementFee:       valueOr(p.ManagementFee, 0),
		AdvertisingFeeRatio: valueOr(p.AdvertisingFeeRatio, 0),
	}
	if p.VacancyRatioOnSell != nil {
		v := *p.VacancyRatioOnSell
		info.VacancyRatioOnSell = &v
	}
	if err := validator.Shared().Check(info); err != nil {
		return BuildingInfo{}, withOp(err, "domain.NewBuildingInfo")
	}
	return info, nil
}

// Land is the plot being purchased.
type Land struct {
	RegistrationCost int64 `json:"ld_registration_cost" validate:"gte=0"`
	Price            int64 `json:"ld_price" validate:"gte=0"`
}

// LandParams carries raw land input.
type LandParams struct {
	RegistrationCost *int64
	Price            int64
}

// NewLand applies defaults and validates the land.
func NewLand(p LandParams) (Land, error) {
	l := Land{
		RegistrationCost: valueOr(p.RegistrationCost, DefaultRegistrationCost),
		Price:            p.Price,
	}
	if err := validator.Shared().Check(l); err != nil {
		return Land{}, withOp(err, "domain.NewLand")
	}
	return l, nil
}

// LandInfo carries the tax valuation of a plot.
type LandInfo struct {
	TaxAssessedValue int64 `json:"ld_tax_eval_price" validate:"gte=0"`
	TaxLedgerValue   int64 `json:"ld_tax_account_price" validate:"gte=0"`
}

// NewLandInfo validates the land info.
func NewLandInfo(assessed, ledger int64) (LandInfo, error) {
	li := LandInfo{TaxAssessedValue: assessed, TaxLedgerValue: ledger}
	if err := validator.Shared().Check(li); err != nil {
		return LandInfo{}, withOp(err, "domain.NewLandInfo")
	}
	return li, nil
}

// Loan describes the financing contract.
type Loan struct {
	TermMonths  int         `json:"ln_monthes" validate:"gt=0"`
	Amount      int64       `json:"ln_amount" validate:"gte=0"`
	PayType     LoanPayType `json:"ln_payment_type" validate:"oneof=LEVEL PRINCIPAL"`
	Start       civil.Date  `json:"ln_start"`
	RateType    LoanType    `json:"ln_type" validate:"oneof=ADJUSTABLE FIXED"`
	DownPayment int64       `json:"ln_init_amount" validate:"gte=0"`
	Buffer      int64       `json:"ln_buffer" validate:"gte=0"`
}

// LoanParams carries raw loan input. Nil pointers take the declared default.
type LoanParams struct {
	TermMonths  int
	Amount      int64
	PayType     *LoanPayType
	Start       *civil.Date
	RateType    *LoanType
	DownPayment *int64
	Buffer      *int64
}

// NewLoan applies defaults and validates the loan. The start date defaults
// to the construction day.
func NewLoan(p LoanParams) (Loan, error) {
	start := today()
	if p.Start != nil {
		start = *p.Start
	}
	ln := Loan{
		TermMonths:  p.TermMonths,
		Amount:      p.Amount,
		PayType:     valueOr(p.PayType, LoanPayTypeLevel),
		Start:       start,
		RateType:    valueOr(p.RateType, LoanTypeFixed),
		DownPayment: valueOr(p.DownPayment, 0),
		Buffer:      valueOr(p.Buffer, 0),
	}
	if err := validator.Shared().Check(ln); err != nil {
		return Loan{}, withOp(err, "domain.NewLoan")
	}
	if !ln.Start.IsValid() {
		return Loan{}, apperr.FieldValidation("ln_start", "must be a valid date").WithOp("domain.NewLoan")
	}
	return ln, nil
}

// RateChange replaces the annual rate from FromPeriod (1-based) onwards.
type RateChange struct {
	FromPeriod int     `json:"from_period" validate:"min=2"`
	Rate       float64 `json:"rate" validate:"finite,gte=0,lte=1"`
}

// LoanInfo carries the interest terms of a loan.
type LoanInfo struct {
	// Rate is the annual interest rate as a fraction (0.02 = 2%).
	Rate float64 `json:"ln_ratio" validate:"finite,gte=0,lte=1"`
	// RateChanges only apply to ADJUSTABLE loans.
	RateChanges []RateChange `json:"ln_rate_changes,omitempty" validate:"omitempty,dive"`
}

// NewLoanInfo validates the rate and any scheduled rate changes.
func NewLoanInfo(rate float64, changes ...RateChange) (LoanInfo, error) {
	info := LoanInfo{Rate: rate}
	if len(changes) > 0 {
		info.RateChanges = append([]RateChange(nil), changes...)
	}
	if err := validator.Shared().Check(info); err != nil {
		return LoanInfo{}, withOp(err, "domain.NewLoanInfo")
	}
	for i := 1; i < len(info.RateChanges); i++ {
		if info.RateChanges[i].FromPeriod <= info.RateChanges[i-1].FromPeriod {
			return LoanInfo{}, apperr.FieldValidation("ln_rate_changes", "from_period must be strictly increasing").WithOp("domain.NewLoanInfo")
		}
	}
	return info, nil
}

// Estate is the yield summary derived from an evaluation.
type Estate struct {
	// TargetRatio is the surface yield: gross rent over acquisition cost.
	TargetRatio float64 `json:"et_target_ratio"`
	// NetRatio is the net yield after vacancy and operating expenses.
	NetRatio float64 `json:"et_net_ratio"`
	// NetRatioOnSell is the net yield under the at-sale vacancy ratio.
	NetRatioOnSell float64 `json:"et_net_ratio_on_sell"`
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func withOp(err error, op string) error {
	if e, ok := err.(*apperr.Error); ok {
		return e.WithOp(op)
	}
	return err
}
