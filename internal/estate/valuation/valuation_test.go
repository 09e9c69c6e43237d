package valuation

import (
	"os"
	"path/filepath"
	"testing"

	"estate_analyzer/internal/estate/domain"
)

func building(t *testing.T, price float64, age int, bt domain.BuildingType) domain.Building {
	t.Helper()
	b, err := domain.NewBuilding(domain.BuildingParams{Price: price, RoomCount: 1, AgeAtPurchase: &age, Type: &bt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func TestDepreciationYears(t *testing.T) {
	a := DefaultAssumptions()
	cases := []struct {
		bt   domain.BuildingType
		age  int
		want int
	}{
		{domain.BuildingTypeTree, 0, 22},
		{domain.BuildingTypeConcrete, 0, 47},
		{domain.BuildingTypeTree, 10, 14},
		{domain.BuildingTypeConcrete, 20, 31},
		{domain.BuildingTypeTree, 22, 2},
		{domain.BuildingTypeTree, 40, 2},
		{domain.BuildingTypeTree, 21, 5},
	}
	for _, tc := range cases {
		if got := a.DepreciationYears(tc.bt, tc.age); got != tc.want {
			t.Fatalf("%s age %d: expected %d years, got %d", tc.bt, tc.age, tc.want, got)
		}
	}
}

func TestEstimates(t *testing.T) {
	a := DefaultAssumptions()

	b := building(t, 20_000_000, 0, domain.BuildingTypeTree)
	if got := a.EstimateBuildingAssessed(b, PurchaseYear); got != 11_454_545 {
		t.Fatalf("expected building assessed 11454545, got %v", got)
	}

	old := building(t, 20_000_000, 30, domain.BuildingTypeTree)
	if got := a.AgingFactor(old, PurchaseYear); got != 0.2 {
		t.Fatalf("expected aging factor floored at 0.2, got %v", got)
	}
	if got := a.EstimateBuildingAssessed(old, PurchaseYear); got != 2_400_000 {
		t.Fatalf("expected floored estimate 2400000, got %v", got)
	}

	land, _ := domain.NewLand(domain.LandParams{Price: 5_000_000})
	if got := a.EstimateLandAssessed(land); got != 3_181_818 {
		t.Fatalf("expected land assessed 3181818, got %v", got)
	}
}

func TestTaxValuesFallback(t *testing.T) {
	a := DefaultAssumptions()
	b := building(t, 20_000_000, 0, domain.BuildingTypeTree)

	av, lv := a.BuildingTaxValues(b, nil, nil)
	if av != 11_454_545 || lv != av {
		t.Fatalf("expected estimated values with ledger falling back, got %v/%v", av, lv)
	}

	given := 9_000_000.0
	av, lv = a.BuildingTaxValues(b, &given, nil)
	if av != given || lv != given {
		t.Fatalf("expected ledger to fall back to supplied assessed value, got %v/%v", av, lv)
	}

	ledger := 7_000_000.0
	if _, lv = a.BuildingTaxValues(b, &given, &ledger); lv != ledger {
		t.Fatalf("expected supplied ledger value, got %v", lv)
	}

	land, _ := domain.NewLand(domain.LandParams{Price: 5_000_000})
	landLedger := int64(4_000_000)
	lav, llv := a.LandTaxValues(land, nil, &landLedger)
	if lav != 3_181_818 || llv != landLedger {
		t.Fatalf("unexpected land values %v/%v", lav, llv)
	}
}

func TestAcquisitionAndRecurringTaxes(t *testing.T) {
	a := DefaultAssumptions()
	b := building(t, 20_000_000, 0, domain.BuildingTypeTree)
	land, _ := domain.NewLand(domain.LandParams{Price: 5_000_000})
	bi, err := domain.NewBuildingInfo(domain.BuildingInfoParams{TaxAssessedValue: 10_000_000, TaxLedgerValue: 12_000_000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	li, _ := domain.NewLandInfo(4_000_000, 5_000_000)

	acq := a.Acquisition(b, bi, land, li)
	want := AcquisitionTaxes{
		LandRegistration:     60_000,
		LandAcquisition:      150_000,
		BuildingRegistration: 200_000,
		BuildingAcquisition:  360_000,
		Brokerage:            810_000,
		Total:                1_580_000,
	}
	if acq != want {
		t.Fatalf("expected %+v, got %+v", want, acq)
	}

	rec := a.Recurring(bi, li)
	if rec.PropertyTax != 196_000 || rec.CityPlanningTax != 42_000 || rec.Total != 238_000 {
		t.Fatalf("unexpected recurring taxes %+v", rec)
	}

	split := Split(bi, li)
	if split.BuildingShare != 10.0/14 || split.BuildingShare+split.LandShare != 1 {
		t.Fatalf("unexpected split %+v", split)
	}
	if empty := Split(domain.BuildingInfo{}, domain.LandInfo{}); empty.BuildingShare != 0 || empty.LandShare != 0 {
		t.Fatalf("expected zero shares without a tax base, got %+v", empty)
	}
}

func TestBrokerageFeeWithoutPrice(t *testing.T) {
	a := DefaultAssumptions()
	if got := a.BrokerageFee(domain.Building{}, domain.Land{}); got != 0 {
		t.Fatalf("expected no fee without a price, got %v", got)
	}
}

func TestDepreciationStopsAfterLife(t *testing.T) {
	a := DefaultAssumptions()
	b := building(t, 22_000_000, 0, domain.BuildingTypeTree)

	if got := a.Depreciation(b, 1); got != 1_000_000 {
		t.Fatalf("expected 1000000 per year, got %v", got)
	}
	if got := a.Depreciation(b, 22); got != 1_000_000 {
		t.Fatalf("expected depreciation in the last year, got %v", got)
	}
	if got := a.Depreciation(b, 23); got != 0 {
		t.Fatalf("expected no depreciation past the life, got %v", got)
	}
}

func TestIncomeTax(t *testing.T) {
	a := DefaultAssumptions()
	if got := a.IncomeTax(1_000_000); got != 300_000 {
		t.Fatalf("expected 300000, got %v", got)
	}
	if got := a.IncomeTax(-50_000); got != 0 {
		t.Fatalf("expected losses to be untaxed, got %v", got)
	}
}

func TestParseAssumptions(t *testing.T) {
	a, err := ParseAssumptions([]byte("property_tax_rate: 0.02\nlifespans:\n  TREE: 25\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.PropertyTaxRate != 0.02 {
		t.Fatalf("expected override 0.02, got %v", a.PropertyTaxRate)
	}
	if a.CityPlanningTaxRate != 0.003 {
		t.Fatalf("expected untouched default, got %v", a.CityPlanningTaxRate)
	}
	if a.Lifespan(domain.BuildingTypeTree) != 25 || a.Lifespan(domain.BuildingTypeConcrete) != 47 {
		t.Fatal("expected lifespan override for TREE only")
	}

	bad := []string{
		"income_tax_rate: 1.5\n",
		"lifespans:\n  STEEL: 30\n",
		"lifespans:\n  TREE: 0\n",
		"min_depreciation_years: 0\n",
		"brokerage_rate: [1, 2]\n",
	}
	for _, raw := range bad {
		if _, err := ParseAssumptions([]byte(raw)); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestLoadAssumptions(t *testing.T) {
	a, err := LoadAssumptions("")
	if err != nil || a.IncomeTaxRate != 0.3 {
		t.Fatalf("expected defaults without a file, got %+v, %v", a, err)
	}

	path := filepath.Join(t.TempDir(), "assumptions.yaml")
	if err := os.WriteFile(path, []byte("brokerage_flat_fee: 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err = LoadAssumptions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.BrokerageFlatFee != 0 {
		t.Fatalf("expected flat fee override, got %v", a.BrokerageFlatFee)
	}

	if _, err := LoadAssumptions(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
