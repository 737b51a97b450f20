package features

// Batch-wide min-max normalization of raw measures into derived scores.
// This is the only place derived scores are computed: tree gap in
// particular is defined here as 1 - normalized tree density and is never
// recomputed downstream.

const flatSpread = 1e-6

// ej score component weights, mirroring the aggregation pipeline's
// environmental-justice composite
const (
	ejIndoorWeight  = 0.4
	ejDensityWeight = 0.3
	ejHeatWeight    = 0.3
)

// minMax returns a normalizer mapping the observed range of values onto
// [0,1]. A column whose spread is below flatSpread carries no ranking
// information, so every unit maps to 0.5.
func minMax(values []float64) func(float64) float64 {
	if len(values) == 0 {
		return func(float64) float64 { return 0.5 }
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < flatSpread {
		return func(float64) float64 { return 0.5 }
	}
	span := hi - lo
	return func(v float64) float64 {
		n := (v - lo) / span
		if n < 0 {
			return 0
		}
		if n > 1 {
			return 1
		}
		return n
	}
}

// computeScores fills the derived score fields for a batch of records.
// Returned vectors are index-aligned with the input records.
func computeScores(records []Record) []FeatureVector {
	n := len(records)
	heat := make([]float64, n)
	air := make([]float64, n)
	density := make([]float64, n)
	fuel := make([]float64, n)
	indoor := make([]float64, n)
	pop := make([]float64, n)

	for i, r := range records {
		heat[i] = r.HeatVulnerability
		air[i] = r.AirQualityIndicator
		density[i] = r.TreeCount / r.AreaKm2
		fuel[i] = r.FuelOilGallons
		indoor[i] = r.IndoorComplaints
		pop[i] = r.PopulationDensity
	}

	normHeat := minMax(heat)
	normAir := minMax(air)
	normDensity := minMax(density)
	normFuel := minMax(fuel)
	normIndoor := minMax(indoor)
	normPop := minMax(pop)

	vectors := make([]FeatureVector, n)
	for i, r := range records {
		densityNorm := normDensity(density[i])
		heatScore := normHeat(heat[i])

		ej := ejIndoorWeight*normIndoor(indoor[i]) +
			ejDensityWeight*normPop(pop[i]) +
			ejHeatWeight*heatScore
		if ej > 1 {
			ej = 1
		}

		vectors[i] = FeatureVector{
			HeatVulnerability:   r.HeatVulnerability,
			AirQualityIndicator: r.AirQualityIndicator,
			TreeCount:           r.TreeCount,
			AvgSizeCm:           r.AvgSizeCm,
			FuelOilGallons:      r.FuelOilGallons,
			IndoorComplaints:    r.IndoorComplaints,
			PopulationDensity:   r.PopulationDensity,
			CoolingSiteDistKm:   r.CoolingSiteDistKm,

			HeatScore:       heatScore,
			AirQualityScore: normAir(air[i]),
			TreeGap:         1 - densityNorm,
			TreeDensityNorm: densityNorm,
			PollutionProxy:  normFuel(fuel[i]),
			EJScore:         ej,
		}
	}
	return vectors
}
