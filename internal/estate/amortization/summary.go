package amortization

import "github.com/shopspring/decimal"

// Summary aggregates a schedule.
type Summary struct {
	Payments       int     `json:"payments"`
	FirstPayment   float64 `json:"first_payment"`
	LastPayment    float64 `json:"last_payment"`
	TotalPayment   float64 `json:"total_payment"`
	TotalPrincipal float64 `json:"total_principal"`
	TotalInterest  float64 `json:"total_interest"`
}

// YearBreakdown is what a loan year (12 periods) repays.
type YearBreakdown struct {
	Year           int     `json:"year"`
	Periods        int     `json:"periods"`
	OpeningBalance float64 `json:"opening_balance"`
	Interest       float64 `json:"interest"`
	Principal      float64 `json:"principal"`
	ClosingBalance float64 `json:"closing_balance"`
}

// Summary totals the schedule. Sums are accumulated as decimals so long
// schedules do not drift.
func (s *Schedule) Summary() Summary {
	var (
		sum       Summary
		payment   = decimal.Zero
		principal = decimal.Zero
		interest  = decimal.Zero
	)

	for inst := range s.All() {
		if inst.Period == 1 {
			sum.FirstPayment = inst.Payment
		}
		sum.LastPayment = inst.Payment
		sum.Payments++
		payment = payment.Add(decimal.NewFromFloat(inst.Payment))
		principal = principal.Add(decimal.NewFromFloat(inst.Principal))
		interest = interest.Add(decimal.NewFromFloat(inst.Interest))
	}

	sum.TotalPayment = payment.InexactFloat64()
	sum.TotalPrincipal = principal.InexactFloat64()
	sum.TotalInterest = interest.InexactFloat64()
	return sum
}

// Year returns the breakdown of loan year n (1-based). Years past the term
// report nothing repaid and a zero balance.
func (s *Schedule) Year(n int) YearBreakdown {
	yb := YearBreakdown{Year: n}
	if n < 1 {
		yb.OpeningBalance = s.p.Principal
		yb.ClosingBalance = s.p.Principal
		return yb
	}

	first := (n-1)*12 + 1
	last := n * 12
	if first > s.p.TermMonths {
		return yb
	}

	interest := decimal.Zero
	principal := decimal.Zero
	opening := s.p.Principal

	for inst := range s.All() {
		if inst.Period < first {
			opening = inst.Balance
			continue
		}
		if inst.Period > last {
			break
		}
		yb.Periods++
		interest = interest.Add(decimal.NewFromFloat(inst.Interest))
		principal = principal.Add(decimal.NewFromFloat(inst.Principal))
		yb.ClosingBalance = inst.Balance
	}

	yb.OpeningBalance = opening
	yb.Interest = interest.InexactFloat64()
	yb.Principal = principal.InexactFloat64()
	return yb
}
