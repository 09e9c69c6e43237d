package amortization

import (
	"math"
	"slices"
	"testing"

	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/platform/apperr"

	"cloud.google.com/go/civil"
)

func mustSchedule(t *testing.T, p Params) *Schedule {
	t.Helper()
	s, err := New(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestLevelZeroRateIsStraightLine(t *testing.T) {
	s := mustSchedule(t, Params{Principal: 3_000_000, TermMonths: 12, AnnualRate: 0, PayType: domain.LoanPayTypeLevel})

	insts := s.Installments()
	if len(insts) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(insts))
	}
	for _, inst := range insts {
		if inst.Payment != 250_000 || inst.Principal != 250_000 || inst.Interest != 0 {
			t.Fatalf("period %d: expected 250000 principal-only payment, got %+v", inst.Period, inst)
		}
	}
	if insts[11].Balance != 0 {
		t.Fatalf("expected zero final balance, got %v", insts[11].Balance)
	}
}

func TestLevelAnnuityPayment(t *testing.T) {
	s := mustSchedule(t, Params{Principal: 1_200_000, TermMonths: 12, AnnualRate: 0.12, PayType: domain.LoanPayTypeLevel})

	insts := s.Installments()
	first := insts[0]
	if !near(first.Payment, 106_618.55, 0.01) {
		t.Fatalf("expected annuity payment 106618.55, got %.4f", first.Payment)
	}
	if !near(first.Payment, 106_625, 10) {
		t.Fatalf("expected payment near 106625, got %.2f", first.Payment)
	}
	if !near(first.Interest, 12_000, 1e-9) {
		t.Fatalf("expected first interest 12000, got %v", first.Interest)
	}
	for _, inst := range insts[:11] {
		if !near(inst.Payment, first.Payment, 1e-6) {
			t.Fatalf("period %d: payment %v differs from %v", inst.Period, inst.Payment, first.Payment)
		}
	}
	if !near(insts[11].Payment, first.Payment, 1) {
		t.Fatalf("expected reconciled last payment near %v, got %v", first.Payment, insts[11].Payment)
	}
	if insts[11].Balance != 0 {
		t.Fatalf("expected exact zero final balance, got %v", insts[11].Balance)
	}
}

func TestLevelPrincipalSumsToPrincipal(t *testing.T) {
	cases := []Params{
		{Principal: 25_000_000, TermMonths: 420, AnnualRate: 0.021},
		{Principal: 987_654, TermMonths: 37, AnnualRate: 0.15},
		{Principal: 50_000_000, TermMonths: 600, AnnualRate: 0.0001},
		{Principal: 1, TermMonths: 7, AnnualRate: 0.3},
	}

	for _, p := range cases {
		p.PayType = domain.LoanPayTypeLevel
		s := mustSchedule(t, p)

		total := 0.0
		var last Installment
		for inst := range s.All() {
			total += inst.Principal
			last = inst
		}
		if !near(total, p.Principal, 1) {
			t.Fatalf("%+v: principal portions sum to %v", p, total)
		}
		if last.Balance != 0 || last.Period != p.TermMonths {
			t.Fatalf("%+v: expected last period %d with zero balance, got %+v", p, p.TermMonths, last)
		}
	}
}

func TestPrincipalRepaymentIsConstant(t *testing.T) {
	s := mustSchedule(t, Params{Principal: 12_000_000, TermMonths: 240, AnnualRate: 0.02, PayType: domain.LoanPayTypePrincipal})

	want := 12_000_000.0 / 240
	total := 0.0
	prevInterest := math.Inf(1)
	for inst := range s.All() {
		if !near(inst.Principal, want, 1e-6) {
			t.Fatalf("period %d: expected principal %v, got %v", inst.Period, want, inst.Principal)
		}
		if inst.Interest > prevInterest {
			t.Fatalf("period %d: interest grew from %v to %v", inst.Period, prevInterest, inst.Interest)
		}
		prevInterest = inst.Interest
		total += inst.Principal
	}
	if !near(total, 12_000_000, 1) {
		t.Fatalf("expected principal total 12000000, got %v", total)
	}

	insts := s.Installments()
	if !near(insts[0].Balance-insts[1].Balance, want, 1e-6) {
		t.Fatal("expected balance to fall linearly")
	}
	if !near(insts[0].Interest, 12_000_000*0.02/12, 1e-9) {
		t.Fatalf("unexpected first interest %v", insts[0].Interest)
	}
}

func TestScheduleIsRestartable(t *testing.T) {
	s := mustSchedule(t, Params{Principal: 8_000_000, TermMonths: 120, AnnualRate: 0.018})

	first := s.Installments()
	second := s.Installments()
	if !slices.Equal(first, second) {
		t.Fatal("expected identical sequences on repeated iteration")
	}

	again := mustSchedule(t, Params{Principal: 8_000_000, TermMonths: 120, AnnualRate: 0.018})
	if !slices.Equal(first, again.Installments()) {
		t.Fatal("expected identical sequences for identical inputs")
	}
}

func TestScheduleStopsEarly(t *testing.T) {
	s := mustSchedule(t, Params{Principal: 1_000_000, TermMonths: 60, AnnualRate: 0.01})
	seen := 0
	for inst := range s.All() {
		seen++
		if inst.Period == 3 {
			break
		}
	}
	if seen != 3 {
		t.Fatalf("expected to stop after 3 periods, saw %d", seen)
	}
}

func TestSinglePeriod(t *testing.T) {
	for _, pt := range []domain.LoanPayType{domain.LoanPayTypeLevel, domain.LoanPayTypePrincipal} {
		s := mustSchedule(t, Params{Principal: 500_000, TermMonths: 1, AnnualRate: 0.06, PayType: pt})
		insts := s.Installments()
		if len(insts) != 1 {
			t.Fatalf("%s: expected one installment, got %d", pt, len(insts))
		}
		want := 500_000 + 500_000*0.005
		if !near(insts[0].Payment, want, 1e-6) {
			t.Fatalf("%s: expected payment %v, got %v", pt, want, insts[0].Payment)
		}
		if insts[0].Balance != 0 {
			t.Fatalf("%s: expected zero balance", pt)
		}
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		p    Params
	}{
		{"zero term", Params{Principal: 1000, TermMonths: 0}},
		{"negative term", Params{Principal: 1000, TermMonths: -12}},
		{"term too long", Params{Principal: 1000, TermMonths: MaxTermMonths + 1}},
		{"negative principal", Params{Principal: -1, TermMonths: 12}},
		{"principal too large", Params{Principal: MaxPrincipal * 2, TermMonths: 12}},
		{"negative rate", Params{Principal: 1000, TermMonths: 12, AnnualRate: -0.01}},
		{"NaN rate", Params{Principal: 1000, TermMonths: 12, AnnualRate: math.NaN()}},
		{"unknown pay type", Params{Principal: 1000, TermMonths: 12, PayType: "BALLOON"}},
		{"lookup on fixed", Params{Principal: 1000, TermMonths: 12, RateType: domain.LoanTypeFixed, RateAt: func(int) float64 { return 0.01 }}},
		{"negative looked-up rate", Params{Principal: 1000, TermMonths: 12, RateType: domain.LoanTypeAdjustable, RateAt: func(int) float64 { return -0.5 }}},
		{"NaN looked-up rate", Params{Principal: 1000, TermMonths: 12, RateType: domain.LoanTypeAdjustable, RateAt: func(p int) float64 {
			if p >= 6 {
				return math.NaN()
			}
			return 0.02
		}}},
		{"infinite looked-up rate", Params{Principal: 1000, TermMonths: 12, RateType: domain.LoanTypeAdjustable, RateAt: func(p int) float64 {
			if p == 12 {
				return math.Inf(1)
			}
			return 0.02
		}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.p)
			if !apperr.Is(err, apperr.KindInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestAdjustableRateReamortizes(t *testing.T) {
	changes := []domain.RateChange{{FromPeriod: 13, Rate: 0.03}}
	s := mustSchedule(t, Params{
		Principal:  10_000_000,
		TermMonths: 120,
		AnnualRate: 0.01,
		RateType:   domain.LoanTypeAdjustable,
		RateAt:     StepRates(0.01, changes),
	})

	insts := s.Installments()
	if insts[11].Rate != 0.01 || insts[12].Rate != 0.03 {
		t.Fatalf("expected rate switch at period 13, got %v -> %v", insts[11].Rate, insts[12].Rate)
	}

	wantBefore := LevelPayment(10_000_000, 0.01/12, 120)
	if !near(insts[0].Payment, wantBefore, 1e-6) {
		t.Fatalf("expected initial payment %v, got %v", wantBefore, insts[0].Payment)
	}
	wantAfter := LevelPayment(insts[11].Balance, 0.03/12, 108)
	if !near(insts[12].Payment, wantAfter, 1e-6) {
		t.Fatalf("expected re-amortized payment %v, got %v", wantAfter, insts[12].Payment)
	}
	if insts[12].Payment <= insts[11].Payment {
		t.Fatal("expected payment to rise with the rate")
	}
	if insts[119].Balance != 0 {
		t.Fatalf("expected zero final balance, got %v", insts[119].Balance)
	}
}

func TestFromLoan(t *testing.T) {
	start := civil.Date{Year: 2026, Month: 4, Day: 1}
	loan, err := domain.NewLoan(domain.LoanParams{TermMonths: 24, Amount: 3_000_000, DownPayment: ptr(int64(600_000)), Start: &start})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, _ := domain.NewLoanInfo(0.02)

	s, err := FromLoan(loan, info)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Principal() != 2_400_000 {
		t.Fatalf("expected financed principal 2400000, got %v", s.Principal())
	}
	first := s.Installments()[0]
	if first.DueDate != (civil.Date{Year: 2026, Month: 5, Day: 1}) {
		t.Fatalf("expected first due date 2026-05-01, got %s", first.DueDate)
	}

	adjInfo, _ := domain.NewLoanInfo(0.02, domain.RateChange{FromPeriod: 13, Rate: 0.04})
	if _, err := FromLoan(loan, adjInfo); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("expected rate changes on a fixed loan to be rejected, got %v", err)
	}

	adjustable := domain.LoanTypeAdjustable
	adjLoan, _ := domain.NewLoan(domain.LoanParams{TermMonths: 24, Amount: 3_000_000, RateType: &adjustable, Start: &start})
	s, err = FromLoan(adjLoan, adjInfo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Installments()[12].Rate != 0.04 {
		t.Fatal("expected adjustable loan to follow its rate changes")
	}

	tooMuch, _ := domain.NewLoan(domain.LoanParams{TermMonths: 12, Amount: 100, DownPayment: ptr(int64(200))})
	if _, err := FromLoan(tooMuch, info); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("expected down payment above amount to fail, got %v", err)
	}
}

func TestLevelPaymentDegenerateRates(t *testing.T) {
	if got := LevelPayment(1200, 0, 12); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := LevelPayment(1200, 1e-300, 12); !near(got, 100, 1e-9) {
		t.Fatalf("expected negligible rate to degrade to straight line, got %v", got)
	}
}

func ptr[T any](v T) *T { return &v }

func TestDueDatesClampToMonthEnd(t *testing.T) {
	s := mustSchedule(t, Params{
		Principal:  1_400_000,
		TermMonths: 14,
		PayType:    domain.LoanPayTypeLevel,
		Start:      civil.Date{Year: 2027, Month: 12, Day: 31},
	})

	insts := s.Installments()
	want := map[int]civil.Date{
		1:  {Year: 2028, Month: 1, Day: 31},
		2:  {Year: 2028, Month: 2, Day: 29},
		3:  {Year: 2028, Month: 3, Day: 31},
		4:  {Year: 2028, Month: 4, Day: 30},
		14: {Year: 2029, Month: 2, Day: 28},
	}
	for period, date := range want {
		if got := insts[period-1].DueDate; got != date {
			t.Fatalf("period %d: expected %s, got %s", period, date, got)
		}
	}
}
