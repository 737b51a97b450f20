package features

import (
	"math"
	"reflect"
	"testing"
)

// threeUnitBatch spans a known range in every measure so the normalized
// scores can be checked exactly
func threeUnitBatch() []Record {
	return []Record{
		{
			ID:                "hex-low",
			AreaKm2:           1.0,
			Lat:               40.70,
			Lon:               -73.95,
			HeatVulnerability: 1.0,
			TreeCount:         100,
			AvgSizeCm:         15,
			PopulationDensity: 1000,
		},
		{
			ID:                  "hex-mid",
			AreaKm2:             1.0,
			Lat:                 40.71,
			Lon:                 -73.94,
			HeatVulnerability:   3.0,
			AirQualityIndicator: 5.0,
			TreeCount:           50,
			AvgSizeCm:           20,
			FuelOilGallons:      1000,
			IndoorComplaints:    10,
			PopulationDensity:   5000,
		},
		{
			ID:                  "hex-high",
			AreaKm2:             1.0,
			Lat:                 40.72,
			Lon:                 -73.93,
			HeatVulnerability:   5.0,
			AirQualityIndicator: 10.0,
			TreeCount:           0,
			FuelOilGallons:      2000,
			IndoorComplaints:    20,
			PopulationDensity:   9000,
		},
	}
}

func TestNewRegistry_NormalizedScores(t *testing.T) {
	registry, err := NewRegistry(threeUnitBatch())
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	low, ok := registry.Get("hex-low")
	if !ok {
		t.Fatal("hex-low not found")
	}
	high, ok := registry.Get("hex-high")
	if !ok {
		t.Fatal("hex-high not found")
	}
	mid, ok := registry.Get("hex-mid")
	if !ok {
		t.Fatal("hex-mid not found")
	}

	// Extremes of each measure map onto 0 and 1
	if low.Features.HeatScore != 0 || high.Features.HeatScore != 1 {
		t.Errorf("heat score extremes wrong: low=%f high=%f",
			low.Features.HeatScore, high.Features.HeatScore)
	}
	if mid.Features.HeatScore != 0.5 {
		t.Errorf("expected mid heat score 0.5, got %f", mid.Features.HeatScore)
	}
	if low.Features.AirQualityScore != 0 || high.Features.AirQualityScore != 1 {
		t.Errorf("air score extremes wrong: low=%f high=%f",
			low.Features.AirQualityScore, high.Features.AirQualityScore)
	}

	// Tree gap inverts normalized density: the treeless unit has the
	// largest gap, the densest unit the smallest
	if high.Features.TreeGap != 1 {
		t.Errorf("expected tree gap 1 for treeless unit, got %f", high.Features.TreeGap)
	}
	if low.Features.TreeGap != 0 {
		t.Errorf("expected tree gap 0 for densest unit, got %f", low.Features.TreeGap)
	}
	if got, want := mid.Features.TreeGap, 1-0.5; got != want {
		t.Errorf("expected mid tree gap %f, got %f", want, got)
	}

	// ej composite: 0.4*indoor + 0.3*popDensity + 0.3*heat, all normalized
	wantEJ := 0.4*1.0 + 0.3*1.0 + 0.3*1.0
	if math.Abs(high.Features.EJScore-wantEJ) > 1e-9 {
		t.Errorf("expected high ej score %f, got %f", wantEJ, high.Features.EJScore)
	}
	if low.Features.EJScore != 0 {
		t.Errorf("expected low ej score 0, got %f", low.Features.EJScore)
	}
}

func TestNewRegistry_ScoresWithinBounds(t *testing.T) {
	registry, err := NewRegistry(threeUnitBatch())
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	for _, id := range registry.IDs() {
		unit, _ := registry.Get(id)
		if err := unit.Features.ValidateScores(); err != nil {
			t.Errorf("unit %s has out-of-range scores: %v", id, err)
		}
	}
}

func TestRegistry_IDsSorted(t *testing.T) {
	registry, err := NewRegistry(threeUnitBatch())
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	want := []string{"hex-high", "hex-low", "hex-mid"}
	got := registry.IDs()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected sorted ids %v, got %v", want, got)
	}
}

func TestNewRegistry_FlatColumn(t *testing.T) {
	records := threeUnitBatch()
	for i := range records {
		records[i].HeatVulnerability = 4.2
	}

	registry, err := NewRegistry(records)
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	// A column with no spread carries no ranking information
	for _, id := range registry.IDs() {
		unit, _ := registry.Get(id)
		if unit.Features.HeatScore != 0.5 {
			t.Errorf("unit %s: expected flat heat score 0.5, got %f", id, unit.Features.HeatScore)
		}
	}
}

func TestNewRegistry_SingleRecord(t *testing.T) {
	registry, err := NewRegistry(threeUnitBatch()[:1])
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	unit, _ := registry.Get("hex-low")
	if err := unit.Features.ValidateScores(); err != nil {
		t.Errorf("single-record scores out of range: %v", err)
	}
	if unit.Features.HeatScore != 0.5 {
		t.Errorf("expected 0.5 for single-record column, got %f", unit.Features.HeatScore)
	}
}

func TestNewRegistry_Rejections(t *testing.T) {
	if _, err := NewRegistry(nil); err == nil {
		t.Error("expected error for empty batch")
	}

	dup := threeUnitBatch()
	dup[1].ID = dup[0].ID
	if _, err := NewRegistry(dup); err == nil {
		t.Error("expected error for duplicate unit id")
	}

	bad := threeUnitBatch()
	bad[0].AreaKm2 = 0
	if _, err := NewRegistry(bad); err == nil {
		t.Error("expected error for non-positive area")
	}

	nan := threeUnitBatch()
	nan[2].TreeCount = math.NaN()
	if _, err := NewRegistry(nan); err == nil {
		t.Error("expected error for NaN measure")
	}
}

func TestRegistry_LookupMetrics(t *testing.T) {
	registry, err := NewRegistry(threeUnitBatch())
	if err != nil {
		t.Fatalf("NewRegistry() failed: %v", err)
	}

	registry.Get("hex-low")
	registry.Get("hex-mid")
	registry.Get("no-such-unit")

	hits, misses := registry.LookupMetrics()
	if hits != 2 {
		t.Errorf("expected 2 hits, got %d", hits)
	}
	if misses != 1 {
		t.Errorf("expected 1 miss, got %d", misses)
	}
}

func TestRecord_Validate(t *testing.T) {
	valid := threeUnitBatch()[0]
	if err := valid.Validate(); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}

	noID := valid
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Error("expected error for empty unit id")
	}

	negative := valid
	negative.IndoorComplaints = -1
	if err := negative.Validate(); err == nil {
		t.Error("expected error for negative measure")
	}

	infinite := valid
	infinite.PopulationDensity = math.Inf(1)
	if err := infinite.Validate(); err == nil {
		t.Error("expected error for infinite measure")
	}
}
