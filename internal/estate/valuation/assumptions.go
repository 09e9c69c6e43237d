// Package valuation splits an estate into its land and building tax bases and
// derives the taxes, fees and depreciation that follow from them.
package valuation

import (
	"fmt"
	"os"

	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/platform/validator"

	"gopkg.in/yaml.v3"
)

// Assumptions are the statutory rates the formulas encode. They can be
// overridden from a YAML file; omitted keys keep their defaults.
type Assumptions struct {
	BuildingAssessedRatio       float64 `yaml:"building_assessed_ratio" json:"building_assessed_ratio" validate:"ratio"`
	MinAgingFactor              float64 `yaml:"min_aging_factor" json:"min_aging_factor" validate:"ratio"`
	LandAssessedRatio           float64 `yaml:"land_assessed_ratio" json:"land_assessed_ratio" validate:"ratio"`
	LandRegistrationTaxRate     float64 `yaml:"land_registration_tax_rate" json:"land_registration_tax_rate" validate:"ratio"`
	LandAcquisitionTaxRate      float64 `yaml:"land_acquisition_tax_rate" json:"land_acquisition_tax_rate" validate:"ratio"`
	BuildingRegistrationTaxRate float64 `yaml:"building_registration_tax_rate" json:"building_registration_tax_rate" validate:"ratio"`
	BuildingAcquisitionTaxRate  float64 `yaml:"building_acquisition_tax_rate" json:"building_acquisition_tax_rate" validate:"ratio"`
	PropertyTaxRate             float64 `yaml:"property_tax_rate" json:"property_tax_rate" validate:"ratio"`
	CityPlanningTaxRate         float64 `yaml:"city_planning_tax_rate" json:"city_planning_tax_rate" validate:"ratio"`
	BrokerageRate               float64 `yaml:"brokerage_rate" json:"brokerage_rate" validate:"ratio"`
	BrokerageFlatFee            float64 `yaml:"brokerage_flat_fee" json:"brokerage_flat_fee" validate:"finite,gte=0"`
	IncomeTaxRate               float64 `yaml:"income_tax_rate" json:"income_tax_rate" validate:"ratio"`
	UsedLifeCredit              float64 `yaml:"used_life_credit" json:"used_life_credit" validate:"ratio"`
	MinDepreciationYears        int     `yaml:"min_depreciation_years" json:"min_depreciation_years" validate:"min=1"`
	// Lifespans overrides the statutory useful life per building type.
	Lifespans map[domain.BuildingType]int `yaml:"lifespans" json:"lifespans,omitempty" validate:"omitempty,dive,min=1"`
}

// DefaultAssumptions returns the rates used when no file is configured.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		BuildingAssessedRatio:       0.6,
		MinAgingFactor:              0.2,
		LandAssessedRatio:           0.7 / 1.1,
		LandRegistrationTaxRate:     0.015,
		LandAcquisitionTaxRate:      0.03,
		BuildingRegistrationTaxRate: 0.02,
		BuildingAcquisitionTaxRate:  0.03,
		PropertyTaxRate:             0.014,
		CityPlanningTaxRate:         0.003,
		BrokerageRate:               0.03,
		BrokerageFlatFee:            60000,
		IncomeTaxRate:               0.3,
		UsedLifeCredit:              0.2,
		MinDepreciationYears:        2,
	}
}

// LoadAssumptions reads overrides from path on top of the defaults. An empty
// path returns the defaults.
func LoadAssumptions(path string) (Assumptions, error) {
	a := DefaultAssumptions()
	if path == "" {
		return a, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Assumptions{}, fmt.Errorf("read assumptions: %w", err)
	}
	return ParseAssumptions(raw)
}

// ParseAssumptions decodes YAML overrides on top of the defaults.
func ParseAssumptions(raw []byte) (Assumptions, error) {
	a := DefaultAssumptions()
	if err := yaml.Unmarshal(raw, &a); err != nil {
		return Assumptions{}, fmt.Errorf("decode assumptions: %w", err)
	}
	for t := range a.Lifespans {
		if !t.Valid() {
			return Assumptions{}, fmt.Errorf("decode assumptions: unknown building type %q", t)
		}
	}
	if err := validator.Shared().Check(a); err != nil {
		return Assumptions{}, fmt.Errorf("invalid assumptions: %w", err)
	}
	return a, nil
}

// Lifespan is the useful life in years used for depreciation and aging.
func (a Assumptions) Lifespan(t domain.BuildingType) int {
	if years, ok := a.Lifespans[t]; ok {
		return years
	}
	return t.LegalLifespan()
}

// DepreciationYears is the depreciable life of a building bought at the given
// age. New buildings use the full life; buildings past their life use the
// minimum; used buildings get the remaining life plus a credit for elapsed years.
func (a Assumptions) DepreciationYears(t domain.BuildingType, age int) int {
	life := a.Lifespan(t)
	switch {
	case age <= 0:
		return life
	case life <= age:
		return a.MinDepreciationYears
	default:
		years := int(float64(life-age) + float64(age)*a.UsedLifeCredit)
		return max(years, a.MinDepreciationYears)
	}
}
