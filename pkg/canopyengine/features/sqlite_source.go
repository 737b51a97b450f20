package features

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"
)

// SQLiteSource reads feature records from a SQLite database produced by the
// aggregation pipeline
type SQLiteSource struct {
	db    *sql.DB
	table string
}

// NewSQLiteSource opens a SQLite-backed feature source
func NewSQLiteSource(dbPath, table string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", dbPath+"?mode=ro&_journal=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	return &SQLiteSource{db: db, table: table}, nil
}

// Load queries all feature records
func (s *SQLiteSource) Load() ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT unit_id, area_km2, lat, lon,
		       heat_vulnerability_index, air_quality_indicator,
		       tree_count, avg_dbh, total_fuel_oil_gallons,
		       indoor_complaints, population_density, cooling_site_distance
		FROM %s
		ORDER BY unit_id ASC`, s.table)

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature records: %v", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		err := rows.Scan(
			&r.ID,
			&r.AreaKm2,
			&r.Lat,
			&r.Lon,
			&r.HeatVulnerability,
			&r.AirQualityIndicator,
			&r.TreeCount,
			&r.AvgSizeCm,
			&r.FuelOilGallons,
			&r.IndoorComplaints,
			&r.PopulationDensity,
			&r.CoolingSiteDistKm,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %v", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feature rows: %v", err)
	}

	klog.V(2).InfoS("Loaded feature records from sqlite",
		"table", s.table,
		"records", len(records))

	return records, nil
}

// Close closes the database connection
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
