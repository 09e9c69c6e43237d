package transport

import (
	"estate_analyzer/internal/estate/amortization"
	"estate_analyzer/internal/estate/service"
)

// DefaultRoomCount applies when a building omits its room count.
const DefaultRoomCount = 1

// ── Requests ──────────────────────────────────────────────────────────────────

// BuildingRequest is the raw building input. Nil fields take their defaults.
type BuildingRequest struct {
	RegistrationCost  *int64  `json:"bd_registration_cost" validate:"omitempty,gte=0"`
	InitialReformCost float64 `json:"bd_init_reform_cost" validate:"finite,gte=0"`
	Price             float64 `json:"bd_price" validate:"finite,gte=0"`
	RemovalCost       float64 `json:"bd_remove_leaves_cost" validate:"finite,gte=0"`
	RoomCount         *int    `json:"bd_room_count" validate:"omitempty,min=1"`
	AgeAtPurchase     *int    `json:"bd_leaves_on_purchase" validate:"omitempty,min=0,max=200"`
	Type              *string `json:"bd_type" validate:"omitempty,min=1"`
}

// BuildingInfoRequest is the raw building info. Missing tax values are
// estimated. A missing vacancy ratio or rent is 0 unless it can be solved
// from EvaluateRequest.SurfaceRatio.
type BuildingInfoRequest struct {
	TaxLedgerValue      *float64 `json:"bd_tax_eval_price" validate:"omitempty,finite,gte=0"`
	TaxAssessedValue    *float64 `json:"bd_tax_account_price" validate:"omitempty,finite,gte=0"`
	VacancyRatio        *float64 `json:"bd_empty_ratio" validate:"omitempty,ratio"`
	VacancyRatioOnSell  *float64 `json:"bd_empty_ratio_on_sell" validate:"omitempty,ratio"`
	RepairCost          float64  `json:"bd_repair_cost" validate:"finite,gte=0"`
	RepairReserve       *float64 `json:"bd_repair_prepare_cost" validate:"omitempty,finite,gte=0"`
	MonthlyRent         *float64 `json:"bd_rent_income" validate:"omitempty,finite,gte=0"`
	ManagementFee       *float64 `json:"bd_maintenance_fee" validate:"omitempty,finite,gte=0"`
	AdvertisingFeeRatio *float64 `json:"bd_ad_fee_ratio" validate:"omitempty,ratio"`
}

// LandRequest is the raw land input.
type LandRequest struct {
	RegistrationCost *int64 `json:"ld_registration_cost" validate:"omitempty,gte=0"`
	Price            int64  `json:"ld_price" validate:"gte=0"`
}

// LandInfoRequest is the raw land info. Missing tax values are estimated.
type LandInfoRequest struct {
	TaxAssessedValue *int64 `json:"ld_tax_eval_price" validate:"omitempty,gte=0"`
	TaxLedgerValue   *int64 `json:"ld_tax_account_price" validate:"omitempty,gte=0"`
}

// LoanRequest is the raw loan input. Start is a YYYY-MM-DD date.
type LoanRequest struct {
	TermMonths  int     `json:"ln_monthes" validate:"gt=0"`
	Amount      int64   `json:"ln_amount" validate:"gte=0"`
	PaymentType *string `json:"ln_payment_type" validate:"omitempty,min=1"`
	Start       *string `json:"ln_start" validate:"omitempty,min=1"`
	RateType    *string `json:"ln_type" validate:"omitempty,min=1"`
	DownPayment *int64  `json:"ln_init_amount" validate:"omitempty,gte=0"`
	Buffer      *int64  `json:"ln_buffer" validate:"omitempty,gte=0"`
}

// RateChangeRequest schedules a new annual rate.
type RateChangeRequest struct {
	FromPeriod int     `json:"from_period" validate:"min=2"`
	Rate       float64 `json:"rate" validate:"ratio"`
}

// LoanInfoRequest carries the interest terms.
type LoanInfoRequest struct {
	Rate        float64             `json:"ln_ratio" validate:"ratio"`
	RateChanges []RateChangeRequest `json:"ln_rate_changes" validate:"omitempty,max=120,dive"`
}

// EvaluateRequest is the request body of an evaluation.
type EvaluateRequest struct {
	Building     BuildingRequest     `json:"building"`
	BuildingInfo BuildingInfoRequest `json:"building_info"`
	Land         LandRequest         `json:"land"`
	LandInfo     LandInfoRequest     `json:"land_info"`
	Loan         *LoanRequest        `json:"loan"`
	LoanInfo     *LoanInfoRequest    `json:"loan_info"`
	AnnualRent   *float64            `json:"annual_rent" validate:"omitempty,finite,gte=0"`
	// SurfaceRatio is the rent after vacancy over building plus land price.
	// It stands in for whichever of vacancy ratio and rent is missing.
	SurfaceRatio *float64            `json:"et_surface_ratio" validate:"omitempty,finite,gt=0"`
	Years        int                 `json:"years" validate:"gte=0,lte=100"`
}

// SensitivityRequest evaluates an estate under shifted interest rates.
type SensitivityRequest struct {
	Estate     EvaluateRequest `json:"estate"`
	RateShifts []float64       `json:"rate_shifts" validate:"required,min=1,max=25,dive,finite,gte=-1,lte=1"`
}

// ScheduleRequest asks for a loan's repayment schedule.
type ScheduleRequest struct {
	Loan     LoanRequest     `json:"loan"`
	LoanInfo LoanInfoRequest `json:"loan_info"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// SensitivityResponse lists one scenario per requested shift.
type SensitivityResponse struct {
	BaseRate  float64            `json:"base_rate"`
	Scenarios []service.Scenario `json:"scenarios"`
}

// ScheduleResponse is a loan's repayment.
type ScheduleResponse struct {
	Principal    float64                      `json:"principal"`
	Summary      amortization.Summary         `json:"summary"`
	Years        []amortization.YearBreakdown `json:"years"`
	Installments []amortization.Installment   `json:"installments"`
}

// Option is an enumeration value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionsResponse lists the accepted enumeration values.
type OptionsResponse struct {
	Language      string   `json:"language"`
	BuildingTypes []Option `json:"building_types"`
	LoanTypes     []Option `json:"loan_types"`
	LoanPayTypes  []Option `json:"loan_pay_types"`
}

// NewScheduleResponse flattens a loan report.
func NewScheduleResponse(r *service.LoanReport) ScheduleResponse {
	return ScheduleResponse{
		Principal:    r.Principal,
		Summary:      r.Summary,
		Years:        r.Years,
		Installments: r.Installments,
	}
}
