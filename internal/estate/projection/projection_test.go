package projection

import (
	"math"
	"testing"

	"estate_analyzer/internal/estate/amortization"
	"estate_analyzer/internal/estate/domain"
	"estate_analyzer/internal/estate/valuation"
	"estate_analyzer/internal/estate/yield"
	"estate_analyzer/platform/apperr"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func baseInput(t *testing.T, rent float64) Input {
	t.Helper()
	b, err := domain.NewBuilding(domain.BuildingParams{Price: 22_000_000, RoomCount: 6})
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	bi, err := domain.NewBuildingInfo(domain.BuildingInfoParams{TaxAssessedValue: 10_000_000, TaxLedgerValue: 10_000_000})
	if err != nil {
		t.Fatalf("building info: %v", err)
	}
	l, _ := domain.NewLand(domain.LandParams{Price: 5_000_000})
	li, _ := domain.NewLandInfo(4_000_000, 4_000_000)

	return Input{
		Yield: yield.Input{
			Building:     b,
			BuildingInfo: bi,
			Land:         l,
			LandInfo:     li,
			AnnualRent:   &rent,
		},
		Assumptions: valuation.DefaultAssumptions(),
	}
}

func TestProjectUnfinanced(t *testing.T) {
	res, err := Project(baseInput(t, 3_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Years) != UnfinancedYears {
		t.Fatalf("expected %d years, got %d", UnfinancedYears, len(res.Years))
	}
	if res.AcquisitionTaxes.Total != 1_550_000 {
		t.Fatalf("expected acquisition taxes 1550000, got %+v", res.AcquisitionTaxes)
	}
	if res.InitialCashOut != 28_710_000 {
		t.Fatalf("expected initial cash out 28710000, got %v", res.InitialCashOut)
	}

	first := res.Years[0]
	if first.FixedAssetTaxes != 238_000 || first.Depreciation != 1_000_000 {
		t.Fatalf("unexpected taxes or depreciation: %+v", first)
	}
	if first.TaxableIncome != 1_762_000 || first.IncomeTax != 528_600 {
		t.Fatalf("unexpected taxable income: %+v", first)
	}
	if first.CashFlow != 2_233_400 {
		t.Fatalf("expected cash flow 2233400, got %v", first.CashFlow)
	}
	if first.Cumulative != -26_476_600 {
		t.Fatalf("expected cumulative -26476600, got %v", first.Cumulative)
	}
	if !near(res.Years[9].Cumulative, -28_710_000+10*2_233_400, 1e-6) {
		t.Fatalf("unexpected cumulative after ten years: %v", res.Years[9].Cumulative)
	}
}

func TestProjectFinanced(t *testing.T) {
	in := baseInput(t, 3_000_000)
	s, err := amortization.New(amortization.Params{Principal: 1_200_000, TermMonths: 12, AnnualRate: 0.12})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	in.Yield.Schedule = s

	res, err := Project(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Years) != 1+YearsAfterLoan {
		t.Fatalf("expected loan year plus %d, got %d rows", YearsAfterLoan, len(res.Years))
	}
	if res.InitialCashOut != 28_710_000-1_200_000 {
		t.Fatalf("expected the loan to cover part of the cash out, got %v", res.InitialCashOut)
	}

	first, second := res.Years[0], res.Years[1]
	if !near(first.Principal, 1_200_000, 1e-6) || first.ClosingBalance != 0 {
		t.Fatalf("expected the loan repaid in year one, got %+v", first)
	}
	if first.Interest <= 0 || second.Interest != 0 || second.Principal != 0 {
		t.Fatalf("expected loan service only in year one: %+v / %+v", first, second)
	}
	if second.CashFlow <= first.CashFlow {
		t.Fatal("expected cash flow to improve once the loan is repaid")
	}
}

func TestReserveDepletion(t *testing.T) {
	in := baseInput(t, 0)
	in.Buffer = 300_000

	res, err := Project(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Years[0].ReserveDepleted {
		t.Fatalf("expected the buffer to cover year one, got %+v", res.Years[0])
	}
	if !res.Years[1].ReserveDepleted {
		t.Fatalf("expected the buffer to run out in year two, got %+v", res.Years[1])
	}
	if res.Years[0].IncomeTax != 0 || res.Years[0].TaxableIncome != 0 {
		t.Fatal("expected losses to be untaxed")
	}
}

func TestHorizon(t *testing.T) {
	cases := []struct {
		term int
		want int
	}{
		{12, 4},
		{13, 5},
		{24, 5},
		{420, 38},
	}
	for _, tc := range cases {
		s, err := amortization.New(amortization.Params{Principal: 1000, TermMonths: tc.term})
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		if got := Horizon(yield.Input{Schedule: s}); got != tc.want {
			t.Fatalf("term %d: expected %d years, got %d", tc.term, tc.want, got)
		}
	}

	in := baseInput(t, 1_000_000)
	in.Years = 3
	res, err := Project(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Years) != 3 {
		t.Fatalf("expected explicit horizon of 3, got %d", len(res.Years))
	}
}

func TestProjectRejectsInvalidInput(t *testing.T) {
	in := baseInput(t, 1_000_000)
	in.Buffer = -1
	if _, err := Project(in); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("expected negative buffer to be invalid input, got %v", err)
	}

	if _, err := Project(Input{Assumptions: valuation.DefaultAssumptions()}); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("expected zero cost to be invalid input, got %v", err)
	}
}

func TestProjectBoundsYears(t *testing.T) {
	for _, years := range []int{-1, MaxYears + 1, 1 << 62} {
		in := baseInput(t, 1_000_000)
		in.Years = years
		if _, err := Project(in); !apperr.Is(err, apperr.KindInvalidInput) {
			t.Fatalf("years=%d: expected invalid input, got %v", years, err)
		}
	}

	in := baseInput(t, 1_000_000)
	in.Years = MaxYears
	res, err := Project(in)
	if err != nil {
		t.Fatalf("unexpected error at the bound: %v", err)
	}
	if len(res.Years) != MaxYears {
		t.Fatalf("expected %d rows, got %d", MaxYears, len(res.Years))
	}
}

func TestTotalInvestmentRatios(t *testing.T) {
	res, err := Project(baseInput(t, 3_000_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(res.SurfaceRatioAll, 3_000_000.0/28_710_000, 1e-12) {
		t.Fatalf("unexpected surface ratio over cash out: %v", res.SurfaceRatioAll)
	}
	if !near(res.NetRatioAll, 2_233_400.0/28_710_000, 1e-12) {
		t.Fatalf("unexpected net ratio over cash out: %v", res.NetRatioAll)
	}

	in := baseInput(t, 3_000_000)
	s, err := amortization.New(amortization.Params{Principal: 40_000_000, TermMonths: 120, AnnualRate: 0.01})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	in.Yield.Schedule = s
	res, err = Project(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.InitialCashOut >= 0 {
		t.Fatalf("expected over-financing to give a negative cash out, got %v", res.InitialCashOut)
	}
	if res.SurfaceRatioAll != 0 || res.NetRatioAll != 0 {
		t.Fatalf("expected zero ratios without cash out, got %v / %v", res.SurfaceRatioAll, res.NetRatioAll)
	}
}
