// Package service evaluates estates: it turns validated entities into a yield
// summary, a loan schedule and a multi-year projection.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"estate_analyzer/internal/estate/amortization"
	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/internal/estate/projection"
	"estate_analyzer/internal/estate/valuation"
	"estate_analyzer/internal/estate/yield"
	"estate_analyzer/platform/apperr"
	"estate_analyzer/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// EvaluateInput is one evaluation request. Loan and LoanInfo are supplied
// together or not at all.
type EvaluateInput struct {
	Building     domain.Building     `json:"building"`
	BuildingInfo domain.BuildingInfo `json:"building_info"`
	Land         domain.Land         `json:"land"`
	LandInfo     domain.LandInfo     `json:"land_info"`
	Loan         *domain.Loan        `json:"loan,omitempty"`
	LoanInfo     *domain.LoanInfo    `json:"loan_info,omitempty"`
	// AnnualRent overrides the rent derived from the building info.
	AnnualRent *float64 `json:"annual_rent,omitempty"`
	// Years overrides the projection horizon when positive.
	Years int `json:"years,omitempty"`
}

// Financed reports whether the input carries a loan.
func (in EvaluateInput) Financed() bool {
	return in.Loan != nil
}

// LoanReport describes a loan's repayment.
type LoanReport struct {
	Principal    float64                      `json:"principal"`
	Summary      amortization.Summary         `json:"summary"`
	Years        []amortization.YearBreakdown `json:"years"`
	Installments []amortization.Installment   `json:"installments"`
}

// Evaluation is the full result of an evaluation.
type Evaluation struct {
	// ID names this response. Identical inputs share a computation but not an ID.
	ID                string            `json:"id"`
	Estate            domain.Estate     `json:"estate"`
	Yield             yield.Result      `json:"yield"`
	TaxBases          valuation.Bases   `json:"tax_bases"`
	DepreciationYears int               `json:"depreciation_years"`
	Loan              *LoanReport       `json:"loan,omitempty"`
	Projection        projection.Result `json:"projection"`
	Cached            bool              `json:"cached"`
}

// Service evaluates estates.
type Service struct {
	assumptions valuation.Assumptions
	keySalt     string
	cache       Cache
	log         *logger.Logger
	flight      singleflight.Group
}

// New creates a service using the given rates. Caching is off until SetCache.
func New(assumptions valuation.Assumptions, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		assumptions: assumptions,
		keySalt:     assumptionsDigest(assumptions),
		cache:       NopCache{},
		log:         log,
	}
}

// SetCache injects the evaluation cache.
func (s *Service) SetCache(c Cache) {
	if c == nil {
		c = NopCache{}
	}
	s.cache = c
}

// Assumptions returns the rates the service evaluates with.
func (s *Service) Assumptions() valuation.Assumptions {
	return s.assumptions
}

// Evaluate computes the evaluation of in. Identical concurrent requests are
// computed once, and results are served from the cache when one is set.
func (s *Service) Evaluate(ctx context.Context, in EvaluateInput) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	if (in.Loan == nil) != (in.LoanInfo == nil) {
		return Evaluation{}, apperr.InvalidInput("loan and loan info must be supplied together").WithOp("service.Evaluate")
	}

	key, err := s.cacheKey(in)
	if err != nil {
		return Evaluation{}, apperr.Wrap(apperr.KindInvalidInput, "input contains non-finite numbers", err).WithOp("service.Evaluate")
	}

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		if ev, ok := s.fromCache(ctx, key); ok {
			return ev, nil
		}

		ev, err := s.evaluate(in)
		if err != nil {
			return Evaluation{}, err
		}
		s.toCache(ctx, key, ev)
		return ev, nil
	})
	if err != nil {
		return Evaluation{}, err
	}

	// Shared and cached results are the same computation; each caller still
	// gets its own ID.
	ev := v.(Evaluation)
	ev.ID = uuid.NewString()
	log := s.log.WithContext(context.WithValue(ctx, logger.EvaluationIDKey, ev.ID))
	log.EvaluationCompleted(ev.Estate.TargetRatio, ev.Estate.NetRatio, in.Financed(), ev.Cached)
	return ev, nil
}

func (s *Service) evaluate(in EvaluateInput) (Evaluation, error) {
	yin := yield.Input{
		Building:     in.Building,
		BuildingInfo: in.BuildingInfo,
		Land:         in.Land,
		LandInfo:     in.LandInfo,
		AnnualRent:   in.AnnualRent,
	}

	var (
		report *LoanReport
		buffer float64
	)
	if in.Financed() {
		sched, err := amortization.FromLoan(*in.Loan, *in.LoanInfo)
		if err != nil {
			return Evaluation{}, err
		}
		yin.Schedule = sched
		report = newLoanReport(sched)
		buffer = float64(in.Loan.Buffer)
	}

	res, err := yield.Breakdown(yin)
	if err != nil {
		return Evaluation{}, err
	}

	proj, err := projection.Project(projection.Input{
		Yield:       yin,
		Assumptions: s.assumptions,
		Buffer:      buffer,
		Years:       in.Years,
	})
	if err != nil {
		return Evaluation{}, err
	}

	return Evaluation{
		Estate:            res.Estate,
		Yield:             res,
		TaxBases:          valuation.Split(in.BuildingInfo, in.LandInfo),
		DepreciationYears: s.assumptions.DepreciationYears(in.Building.Type, in.Building.AgeAtPurchase),
		Loan:              report,
		Projection:        proj,
	}, nil
}

// Schedule returns the repayment of a loan on its own.
func (s *Service) Schedule(ctx context.Context, loan domain.Loan, info domain.LoanInfo) (*LoanReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sched, err := amortization.FromLoan(loan, info)
	if err != nil {
		return nil, err
	}
	return newLoanReport(sched), nil
}

func newLoanReport(sched *amortization.Schedule) *LoanReport {
	years := (sched.Len() + 11) / 12
	r := &LoanReport{
		Principal:    sched.Principal(),
		Summary:      sched.Summary(),
		Years:        make([]amortization.YearBreakdown, 0, years),
		Installments: sched.Installments(),
	}
	for n := 1; n <= years; n++ {
		r.Years = append(r.Years, sched.Year(n))
	}
	return r
}

func (s *Service) fromCache(ctx context.Context, key string) (Evaluation, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithContext(ctx).CacheError("get", err)
		return Evaluation{}, false
	}
	if !ok {
		return Evaluation{}, false
	}

	var ev Evaluation
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.log.WithContext(ctx).CacheError("decode", err)
		return Evaluation{}, false
	}
	ev.Cached = true
	return ev, true
}

func (s *Service) toCache(ctx context.Context, key string, ev Evaluation) {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.WithContext(ctx).CacheError("encode", err)
		return
	}
	if err := s.cache.Set(ctx, key, raw); err != nil {
		s.log.WithContext(ctx).CacheError("set", err)
	}
}

func (s *Service) cacheKey(in EvaluateInput) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode evaluation input: %w", err)
	}
	sum := sha256.Sum256(append([]byte(s.keySalt), raw...))
	return hex.EncodeToString(sum[:]), nil
}

// assumptionsDigest ties cache entries to the rates they were computed with.
func assumptionsDigest(a valuation.Assumptions) string {
	raw, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
