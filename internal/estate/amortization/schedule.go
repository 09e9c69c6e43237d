// Package amortization produces loan repayment schedules for level-payment
// and equal-principal loans at fixed or adjustable rates.
package amortization

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"time"

	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/platform/apperr"

	"cloud.google.com/go/civil"
)

const (
	// MaxTermMonths bounds the schedule length (50 years).
	MaxTermMonths = 600
	// MaxPrincipal is the largest principal the engine accepts.
	MaxPrincipal = 10_000_000_000.0
)

// RateFunc returns the annual rate that applies to a 1-based period.
type RateFunc func(period int) float64

// Params describes a loan to amortize.
type Params struct {
	Principal  float64
	TermMonths int
	// AnnualRate is a fraction; the engine works with AnnualRate/12 per period.
	AnnualRate float64
	PayType    domain.LoanPayType
	RateType   domain.LoanType
	Start      civil.Date
	// RateAt is consulted per period for ADJUSTABLE loans. Nil means AnnualRate
	// applies throughout. Setting it on a FIXED loan is rejected.
	RateAt RateFunc
}

// Installment is one period of a schedule.
type Installment struct {
	Period    int        `json:"period"`
	DueDate   civil.Date `json:"due_date"`
	Rate      float64    `json:"rate"`
	Payment   float64    `json:"payment"`
	Principal float64    `json:"principal"`
	Interest  float64    `json:"interest"`
	Balance   float64    `json:"balance"`
}

// Schedule is a validated, immutable loan description whose installments are
// produced on demand.
type Schedule struct {
	p Params
	// rates holds RateAt(1..n), looked up once in New.
	rates []float64
}

// New validates p and returns its schedule.
func New(p Params) (*Schedule, error) {
	const op = "amortization.New"

	if p.PayType == "" {
		p.PayType = domain.LoanPayTypeLevel
	}
	if p.RateType == "" {
		p.RateType = domain.LoanTypeFixed
	}

	switch {
	case p.TermMonths <= 0:
		return nil, apperr.InvalidInput("term must be at least one month").WithOp(op)
	case p.TermMonths > MaxTermMonths:
		return nil, apperr.InvalidInput("term exceeds 600 months").WithOp(op)
	case math.IsNaN(p.Principal) || p.Principal < 0:
		return nil, apperr.InvalidInput("principal must not be negative").WithOp(op)
	case p.Principal > MaxPrincipal:
		return nil, apperr.InvalidInput("principal exceeds the supported maximum").WithOp(op)
	case !validRate(p.AnnualRate):
		return nil, apperr.InvalidInput("annual rate must be a non-negative number").WithOp(op)
	case !p.PayType.Valid():
		return nil, apperr.InvalidInput("unknown repayment type " + string(p.PayType)).WithOp(op)
	case !p.RateType.Valid():
		return nil, apperr.InvalidInput("unknown rate type " + string(p.RateType)).WithOp(op)
	case p.RateType == domain.LoanTypeFixed && p.RateAt != nil:
		return nil, apperr.InvalidInput("fixed-rate loans cannot take a rate lookup").WithOp(op)
	}

	s := &Schedule{p: p}
	if p.RateAt != nil {
		s.rates = make([]float64, p.TermMonths)
		for period := 1; period <= p.TermMonths; period++ {
			rate := p.RateAt(period)
			if !validRate(rate) {
				return nil, apperr.InvalidInput(fmt.Sprintf("rate for period %d must be a non-negative number", period)).WithOp(op)
			}
			s.rates[period-1] = rate
		}
	}
	return s, nil
}

// FromLoan builds the schedule of a loan entity. The financed principal is
// the loan amount less the down payment.
func FromLoan(loan domain.Loan, info domain.LoanInfo) (*Schedule, error) {
	if loan.DownPayment > loan.Amount {
		return nil, apperr.InvalidInput("down payment exceeds the loan amount").WithOp("amortization.FromLoan")
	}
	if loan.RateType == domain.LoanTypeFixed && len(info.RateChanges) > 0 {
		return nil, apperr.InvalidInput("rate changes require an adjustable-rate loan").WithOp("amortization.FromLoan")
	}

	p := Params{
		Principal:  float64(loan.Amount - loan.DownPayment),
		TermMonths: loan.TermMonths,
		AnnualRate: info.Rate,
		PayType:    loan.PayType,
		RateType:   loan.RateType,
		Start:      loan.Start,
	}
	if loan.RateType == domain.LoanTypeAdjustable {
		p.RateAt = StepRates(info.Rate, info.RateChanges)
	}
	return New(p)
}

// StepRates returns a lookup that starts at base and switches to each change
// from its period onwards. changes must be ordered by FromPeriod.
func StepRates(base float64, changes []domain.RateChange) RateFunc {
	steps := slices.Clone(changes)
	return func(period int) float64 {
		rate := base
		for _, c := range steps {
			if period < c.FromPeriod {
				break
			}
			rate = c.Rate
		}
		return rate
	}
}

// Params returns the validated parameters.
func (s *Schedule) Params() Params { return s.p }

// Len is the number of installments.
func (s *Schedule) Len() int { return s.p.TermMonths }

// Principal is the amount being repaid.
func (s *Schedule) Principal() float64 { return s.p.Principal }

func (s *Schedule) rateAt(period int) float64 {
	if s.rates == nil {
		return s.p.AnnualRate
	}
	return s.rates[period-1]
}

func validRate(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r >= 0
}

// All yields every installment in order. The sequence is finite and can be
// ranged over any number of times with identical results.
func (s *Schedule) All() iter.Seq[Installment] {
	return func(yield func(Installment) bool) {
		n := s.p.TermMonths
		balance := s.p.Principal
		straight := s.p.Principal / float64(n)

		level := 0.0
		levelRate := math.NaN()

		for period := 1; period <= n; period++ {
			annual := s.rateAt(period)
			r := annual / 12
			interest := balance * r

			var principal float64
			if s.p.PayType == domain.LoanPayTypePrincipal {
				principal = straight
			} else {
				// Re-amortize the outstanding balance whenever the rate moves.
				if annual != levelRate {
					level = LevelPayment(balance, r, n-period+1)
					levelRate = annual
				}
				principal = level - interest
			}

			if period == n || principal > balance {
				principal = balance
			}
			balance -= principal
			if period == n {
				balance = 0
			}

			inst := Installment{
				Period:    period,
				DueDate:   s.dueDate(period),
				Rate:      annual,
				Payment:   principal + interest,
				Principal: principal,
				Interest:  interest,
				Balance:   balance,
			}
			if !yield(inst) {
				return
			}
		}
	}
}

// Installments collects the whole schedule.
func (s *Schedule) Installments() []Installment {
	return slices.Collect(s.All())
}

func (s *Schedule) dueDate(period int) civil.Date {
	if s.p.Start == (civil.Date{}) {
		return civil.Date{}
	}
	// Month arithmetic clamps to the last day: Jan 31 + 1 month is Feb 28.
	first := time.Date(s.p.Start.Year, s.p.Start.Month+time.Month(period), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: min(s.p.Start.Day, last)}
}

// LevelPayment is the annuity payment that repays balance over n periods at
// periodic rate r. A zero (or numerically negligible) rate degenerates to
// straight-line repayment.
func LevelPayment(balance, r float64, n int) float64 {
	if n <= 0 {
		return balance
	}
	if r == 0 {
		return balance / float64(n)
	}
	denom := 1 - math.Pow(1+r, -float64(n))
	if denom == 0 || math.IsNaN(denom) {
		return balance / float64(n)
	}
	return balance * r / denom
}
