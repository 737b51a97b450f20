package simulation

// GrowthPoint is one simulated year of a tree cohort
type GrowthPoint struct {
	TreeCount    float64 `json:"tree_count"`
	AvgSizeCm    float64 `json:"avg_dbh"`
	SurvivalRate float64 `json:"survival_rate"`
}

// YearlyProjection is one simulated year with its annual benefit figures
type YearlyProjection struct {
	Year                int     `json:"year"`
	TreeCount           float64 `json:"tree_count"`
	AvgSizeCm           float64 `json:"avg_dbh"`
	SurvivalRate        float64 `json:"survival_rate"`
	CarbonAnnualKg      float64 `json:"co2_annual"`
	TempAnnual          float64 `json:"temp_annual"`
	ParticulateAnnualLb float64 `json:"pm25_annual"`
}

// CumulativeTotals accumulates the annual benefit figures over a projection
type CumulativeTotals struct {
	CarbonKg      float64 `json:"co2_total_kg"`
	Temp          float64 `json:"temp_total"`
	ParticulateLb float64 `json:"pm25_total_lbs"`
}

// ProjectionResult is the full multi-year projection: the year-ordered
// sequence, cumulative totals, and a snapshot of the final year (nil when
// the projection is empty).
type ProjectionResult struct {
	Yearly     []YearlyProjection `json:"yearly"`
	Cumulative CumulativeTotals   `json:"cumulative"`
	Final      *YearlyProjection  `json:"final,omitempty"`
}

// WhatIfResult describes the cooling change from adding trees to a unit
type WhatIfResult struct {
	CurrentTreeCount    float64 `json:"current_tree_count"`
	NewTreeCount        float64 `json:"new_tree_count"`
	CurrentDensityKm2   float64 `json:"current_tree_density_km2"`
	NewDensityKm2       float64 `json:"new_tree_density_km2"`
	CurrentReduction    float64 `json:"current_reduction"`
	NewReduction        float64 `json:"total_reduction"`
	AdditionalReduction float64 `json:"additional_reduction"`
}

// TreesNeededResult describes how many trees a unit needs to reach a target
// temperature reduction
type TreesNeededResult struct {
	TreesNeeded         int     `json:"trees_needed"`
	TotalTrees          int     `json:"total_trees_needed"`
	CurrentReduction    float64 `json:"current_reduction"`
	PredictedReduction  float64 `json:"predicted_reduction"`
	AchievableReduction float64 `json:"achievable_reduction"`
	Feasible            bool    `json:"feasible"`
}
