// Package domain holds the immutable value records an estate evaluation is
// built from, together with the closed enumerations they refer to.
package domain

import (
	"strings"

	"estate_analyzer/platform/apperr"
)

// BuildingType is the construction type of a building.
type BuildingType string

const (
	BuildingTypeTree     BuildingType = "TREE"
	BuildingTypeConcrete BuildingType = "CONCRETE"
)

// LoanType controls whether the rate can change over the amortization horizon.
type LoanType string

const (
	LoanTypeAdjustable LoanType = "ADJUSTABLE"
	LoanTypeFixed      LoanType = "FIXED"
)

// LoanPayType is the repayment method of a loan.
type LoanPayType string

const (
	// LoanPayTypeLevel repays an equal total amount each period.
	LoanPayTypeLevel LoanPayType = "LEVEL"
	// LoanPayTypePrincipal repays an equal principal amount each period.
	LoanPayTypePrincipal LoanPayType = "PRINCIPAL"
)

// BuildingTypes lists every building type in display order.
var BuildingTypes = []BuildingType{BuildingTypeTree, BuildingTypeConcrete}

// LoanTypes lists every loan type in display order.
var LoanTypes = []LoanType{LoanTypeFixed, LoanTypeAdjustable}

// LoanPayTypes lists every repayment method in display order.
var LoanPayTypes = []LoanPayType{LoanPayTypeLevel, LoanPayTypePrincipal}

func (t BuildingType) Valid() bool {
	return t == BuildingTypeTree || t == BuildingTypeConcrete
}

func (t LoanType) Valid() bool {
	return t == LoanTypeAdjustable || t == LoanTypeFixed
}

func (t LoanPayType) Valid() bool {
	return t == LoanPayTypeLevel || t == LoanPayTypePrincipal
}

// LegalLifespan returns the statutory useful life in years.
func (t BuildingType) LegalLifespan() int {
	switch t {
	case BuildingTypeTree:
		return 22
	default:
		return 47
	}
}

// ParseBuildingType parses a case-insensitive building type.
func ParseBuildingType(s string) (BuildingType, error) {
	t := BuildingType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apperr.FieldValidation("bd_type", "must be one of [TREE CONCRETE]")
	}
	return t, nil
}

// ParseLoanType parses a case-insensitive loan rate type.
func ParseLoanType(s string) (LoanType, error) {
	t := LoanType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apperr.FieldValidation("ln_type", "must be one of [ADJUSTABLE FIXED]")
	}
	return t, nil
}

// ParseLoanPayType parses a case-insensitive repayment method.
func ParseLoanPayType(s string) (LoanPayType, error) {
	t := LoanPayType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apperr.FieldValidation("ln_payment_type", "must be one of [LEVEL PRINCIPAL]")
	}
	return t, nil
}
