package valuation

import (
	"estate_analyzer/internal/estate/domain"

	"github.com/shopspring/decimal"
)

// PurchaseYear is the holding year used when estimating values at acquisition.
const PurchaseYear = 1

// Bases is the land/building split of the tax base.
type Bases struct {
	BuildingAssessed float64 `json:"bd_tax_account_price"`
	BuildingLedger   float64 `json:"bd_tax_eval_price"`
	LandAssessed     int64   `json:"ld_tax_eval_price"`
	LandLedger       int64   `json:"ld_tax_account_price"`
	// BuildingShare and LandShare split the assessed total; both are 0 when it is 0.
	BuildingShare float64 `json:"building_share"`
	LandShare     float64 `json:"land_share"`
}

// AcquisitionTaxes are the one-off taxes and fees due on purchase.
type AcquisitionTaxes struct {
	LandRegistration     float64 `json:"ld_reg_tax"`
	LandAcquisition      float64 `json:"ld_purchase_tax"`
	BuildingRegistration float64 `json:"bd_reg_tax"`
	BuildingAcquisition  float64 `json:"bd_purchase_tax"`
	Brokerage            float64 `json:"purchase_fee"`
	Total                float64 `json:"total"`
}

// RecurringTaxes are the annual fixed-asset taxes.
type RecurringTaxes struct {
	PropertyTax     float64 `json:"fixed_assets_tax"`
	CityPlanningTax float64 `json:"city_plan_tax"`
	Total           float64 `json:"total"`
}

// AgingFactor is the share of the new-building value left after the given
// holding year, floored at MinAgingFactor.
func (a Assumptions) AgingFactor(b domain.Building, year int) float64 {
	life := float64(a.Lifespan(b.Type))
	factor := (life - float64(year) - float64(b.AgeAtPurchase)) / life
	return max(factor, a.MinAgingFactor)
}

// EstimateBuildingAssessed estimates the assessed value of a building in the
// given holding year.
func (a Assumptions) EstimateBuildingAssessed(b domain.Building, year int) float64 {
	return round(decimal.NewFromFloat(b.Price).
		Mul(decimal.NewFromFloat(a.BuildingAssessedRatio)).
		Mul(decimal.NewFromFloat(a.AgingFactor(b, year))))
}

// EstimateLandAssessed estimates the assessed value of a plot from its price.
func (a Assumptions) EstimateLandAssessed(l domain.Land) int64 {
	return decimal.NewFromInt(l.Price).
		Mul(decimal.NewFromFloat(a.LandAssessedRatio)).
		Round(0).
		IntPart()
}

// BuildingTaxValues resolves the building tax values. A missing assessed
// value is estimated at purchase; a missing ledger value takes the assessed one.
func (a Assumptions) BuildingTaxValues(b domain.Building, assessed, ledger *float64) (float64, float64) {
	av := a.EstimateBuildingAssessed(b, PurchaseYear)
	if assessed != nil {
		av = *assessed
	}
	lv := av
	if ledger != nil {
		lv = *ledger
	}
	return av, lv
}

// LandTaxValues resolves the land tax values the same way.
func (a Assumptions) LandTaxValues(l domain.Land, assessed, ledger *int64) (int64, int64) {
	av := a.EstimateLandAssessed(l)
	if assessed != nil {
		av = *assessed
	}
	lv := av
	if ledger != nil {
		lv = *ledger
	}
	return av, lv
}

// Split reports the tax bases and the share of each part in the assessed total.
func Split(bi domain.BuildingInfo, li domain.LandInfo) Bases {
	out := Bases{
		BuildingAssessed: bi.TaxAssessedValue,
		BuildingLedger:   bi.TaxLedgerValue,
		LandAssessed:     li.TaxAssessedValue,
		LandLedger:       li.TaxLedgerValue,
	}
	total := bi.TaxAssessedValue + float64(li.TaxAssessedValue)
	if total > 0 {
		out.BuildingShare = bi.TaxAssessedValue / total
		out.LandShare = 1 - out.BuildingShare
	}
	return out
}

// BrokerageFee is the purchase commission on building and land prices.
func (a Assumptions) BrokerageFee(b domain.Building, l domain.Land) float64 {
	if b.Price == 0 && l.Price == 0 {
		return 0
	}
	return round(decimal.NewFromFloat(b.Price).
		Add(decimal.NewFromInt(l.Price)).
		Mul(decimal.NewFromFloat(a.BrokerageRate)).
		Add(decimal.NewFromFloat(a.BrokerageFlatFee)))
}

// Acquisition computes the taxes and fees due on purchase. Registration taxes
// apply to assessed values, acquisition taxes to ledger values.
func (a Assumptions) Acquisition(b domain.Building, bi domain.BuildingInfo, l domain.Land, li domain.LandInfo) AcquisitionTaxes {
	t := AcquisitionTaxes{
		LandRegistration:     rate(float64(li.TaxAssessedValue), a.LandRegistrationTaxRate),
		LandAcquisition:      rate(float64(li.TaxLedgerValue), a.LandAcquisitionTaxRate),
		BuildingRegistration: rate(bi.TaxAssessedValue, a.BuildingRegistrationTaxRate),
		BuildingAcquisition:  rate(bi.TaxLedgerValue, a.BuildingAcquisitionTaxRate),
		Brokerage:            a.BrokerageFee(b, l),
	}
	t.Total = sum(t.LandRegistration, t.LandAcquisition, t.BuildingRegistration, t.BuildingAcquisition, t.Brokerage)
	return t
}

// Recurring computes the annual property and city-planning taxes on the
// combined assessed value.
func (a Assumptions) Recurring(bi domain.BuildingInfo, li domain.LandInfo) RecurringTaxes {
	base := bi.TaxAssessedValue + float64(li.TaxAssessedValue)
	t := RecurringTaxes{
		PropertyTax:     rate(base, a.PropertyTaxRate),
		CityPlanningTax: rate(base, a.CityPlanningTaxRate),
	}
	t.Total = sum(t.PropertyTax, t.CityPlanningTax)
	return t
}

// Depreciation is the building depreciation booked in the given holding year.
// Nothing is booked once the depreciable life has passed.
func (a Assumptions) Depreciation(b domain.Building, year int) float64 {
	life := a.DepreciationYears(b.Type, b.AgeAtPurchase)
	if year < 1 || year > life {
		return 0
	}
	return b.Price / float64(life)
}

// IncomeTax is the tax on a taxable income; losses are not taxed.
func (a Assumptions) IncomeTax(taxable float64) float64 {
	if taxable <= 0 {
		return 0
	}
	return rate(taxable, a.IncomeTaxRate)
}

func rate(base, r float64) float64 {
	return round(decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(r)))
}

func sum(vals ...float64) float64 {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

func round(d decimal.Decimal) float64 {
	return d.Round(0).InexactFloat64()
}
