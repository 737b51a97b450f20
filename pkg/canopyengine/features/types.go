package features

import (
	"fmt"
	"math"
)

// Centroid is the representative location of a spatial unit
type Centroid struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SpatialUnit identifies one unit of analysis (H3 hex cell or postal
// district). Immutable once created by the aggregation pipeline.
type SpatialUnit struct {
	ID       string   `json:"unit_id"`
	AreaKm2  float64  `json:"area_km2"`
	Centroid Centroid `json:"centroid"`
}

// FeatureVector carries the per-unit environmental measures. Raw fields come
// straight from the aggregation pipeline; derived scores are min-max
// normalized over the batch the registry was built from and are only
// comparable within that batch.
type FeatureVector struct {
	// Raw measures
	HeatVulnerability   float64 `json:"heat_vulnerability_index"`
	AirQualityIndicator float64 `json:"air_quality_indicator"`
	TreeCount           float64 `json:"tree_count"`
	AvgSizeCm           float64 `json:"avg_dbh"`
	FuelOilGallons      float64 `json:"total_fuel_oil_gallons"`
	IndoorComplaints    float64 `json:"indoor_complaints"`
	PopulationDensity   float64 `json:"population_density"`
	CoolingSiteDistKm   float64 `json:"cooling_site_distance"`

	// Derived scores, each in [0,1], computed batch-wide at load time
	HeatScore       float64 `json:"heat_score"`
	AirQualityScore float64 `json:"air_quality_score"`
	TreeGap         float64 `json:"tree_gap"`
	TreeDensityNorm float64 `json:"tree_density_norm"`
	PollutionProxy  float64 `json:"pollution_proxy"`
	EJScore         float64 `json:"ej_score"`
}

// Record is one row of aggregator output before normalization
type Record struct {
	ID                  string  `json:"unit_id" db:"unit_id"`
	AreaKm2             float64 `json:"area_km2" db:"area_km2"`
	Lat                 float64 `json:"lat" db:"lat"`
	Lon                 float64 `json:"lon" db:"lon"`
	HeatVulnerability   float64 `json:"heat_vulnerability_index" db:"heat_vulnerability_index"`
	AirQualityIndicator float64 `json:"air_quality_indicator" db:"air_quality_indicator"`
	TreeCount           float64 `json:"tree_count" db:"tree_count"`
	AvgSizeCm           float64 `json:"avg_dbh" db:"avg_dbh"`
	FuelOilGallons      float64 `json:"total_fuel_oil_gallons" db:"total_fuel_oil_gallons"`
	IndoorComplaints    float64 `json:"indoor_complaints" db:"indoor_complaints"`
	PopulationDensity   float64 `json:"population_density" db:"population_density"`
	CoolingSiteDistKm   float64 `json:"cooling_site_distance" db:"cooling_site_distance"`
}

// Unit pairs a spatial unit with its feature vector
type Unit struct {
	SpatialUnit
	Features FeatureVector
}

// Validate checks a raw record at the load boundary. Missing fields arrive
// as zero from the aggregator, which is legal; non-finite or negative
// measures are not.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has empty unit id")
	}
	if !isFinite(r.AreaKm2) || r.AreaKm2 <= 0 {
		return fmt.Errorf("unit %s: area must be positive and finite, got %f", r.ID, r.AreaKm2)
	}
	for name, v := range map[string]float64{
		"heat_vulnerability_index": r.HeatVulnerability,
		"air_quality_indicator":    r.AirQualityIndicator,
		"tree_count":               r.TreeCount,
		"avg_dbh":                  r.AvgSizeCm,
		"total_fuel_oil_gallons":   r.FuelOilGallons,
		"indoor_complaints":        r.IndoorComplaints,
		"population_density":       r.PopulationDensity,
		"cooling_site_distance":    r.CoolingSiteDistKm,
	} {
		if !isFinite(v) {
			return fmt.Errorf("unit %s: %s is not finite", r.ID, name)
		}
		if v < 0 {
			return fmt.Errorf("unit %s: %s must be non-negative, got %f", r.ID, name, v)
		}
	}
	return nil
}

// ValidateScores checks that the derived scores a consumer is about to use
// are finite and within [0,1].
func (f *FeatureVector) ValidateScores() error {
	for name, v := range map[string]float64{
		"heat_score":        f.HeatScore,
		"air_quality_score": f.AirQualityScore,
		"tree_gap":          f.TreeGap,
		"pollution_proxy":   f.PollutionProxy,
		"ej_score":          f.EJScore,
	} {
		if math.IsNaN(v) {
			return fmt.Errorf("%s is NaN", name)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%s out of range [0,1]: %f", name, v)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
