package service

import (
	"context"
	"math"

	"estate_analyzer/internal/estate/amortization"
	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/internal/estate/yield"
	"estate_analyzer/platform/apperr"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxScenarios bounds a sensitivity request.
	MaxScenarios    = 25
	scenarioWorkers = 4
)

// Scenario is the yield of an estate under a shifted interest rate.
type Scenario struct {
	Shift         float64       `json:"shift"`
	Rate          float64       `json:"rate"`
	Estate        domain.Estate `json:"estate"`
	FirstPayment  float64       `json:"first_payment"`
	TotalInterest float64       `json:"total_interest"`
}

// Sensitivity evaluates the estate once per rate shift. Each shift is added
// to the base rate and to every scheduled rate change. Results keep the
// order of shifts.
func (s *Service) Sensitivity(ctx context.Context, in EvaluateInput, shifts []float64) ([]Scenario, error) {
	const op = "service.Sensitivity"

	if in.Loan == nil || in.LoanInfo == nil {
		return nil, apperr.InvalidInput("sensitivity requires a loan").WithOp(op)
	}
	if len(shifts) == 0 || len(shifts) > MaxScenarios {
		return nil, apperr.InvalidInput("between 1 and 25 rate shifts are required").WithOp(op)
	}

	out := make([]Scenario, len(shifts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scenarioWorkers)

	for i, shift := range shifts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sc, err := s.scenario(in, shift)
			if err != nil {
				return err
			}
			out[i] = sc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) scenario(in EvaluateInput, shift float64) (Scenario, error) {
	info, err := shiftRates(*in.LoanInfo, shift)
	if err != nil {
		return Scenario{}, err
	}

	sched, err := amortization.FromLoan(*in.Loan, info)
	if err != nil {
		return Scenario{}, err
	}

	est, err := yield.Calculate(yield.Input{
		Building:     in.Building,
		BuildingInfo: in.BuildingInfo,
		Land:         in.Land,
		LandInfo:     in.LandInfo,
		Schedule:     sched,
		AnnualRent:   in.AnnualRent,
	})
	if err != nil {
		return Scenario{}, err
	}

	sum := sched.Summary()
	return Scenario{
		Shift:         shift,
		Rate:          info.Rate,
		Estate:        est,
		FirstPayment:  sum.FirstPayment,
		TotalInterest: sum.TotalInterest,
	}, nil
}

func shiftRates(info domain.LoanInfo, shift float64) (domain.LoanInfo, error) {
	if math.IsNaN(shift) || math.IsInf(shift, 0) {
		return domain.LoanInfo{}, apperr.InvalidInput("rate shift must be a finite number").WithOp("service.Sensitivity")
	}

	changes := make([]domain.RateChange, len(info.RateChanges))
	for i, c := range info.RateChanges {
		changes[i] = domain.RateChange{FromPeriod: c.FromPeriod, Rate: c.Rate + shift}
	}

	shifted, err := domain.NewLoanInfo(info.Rate+shift, changes...)
	if err != nil {
		return domain.LoanInfo{}, apperr.Wrap(apperr.KindInvalidInput, "shifted rate is out of range", err).WithOp("service.Sensitivity")
	}
	return shifted, nil
}
