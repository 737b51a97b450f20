package features

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"k8s.io/klog/v2"
)

// PostgresSource reads feature records from the aggregation pipeline's
// Postgres database
type PostgresSource struct {
	db    *sqlx.DB
	table string
}

// NewPostgresSource connects to Postgres and returns a feature source
func NewPostgresSource(dsn, table string) (*PostgresSource, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %v", err)
	}

	return &PostgresSource{db: db, table: table}, nil
}

// Load queries all feature records
func (s *PostgresSource) Load() ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT unit_id, area_km2, lat, lon,
		       heat_vulnerability_index, air_quality_indicator,
		       tree_count, avg_dbh, total_fuel_oil_gallons,
		       indoor_complaints, population_density, cooling_site_distance
		FROM %s
		ORDER BY unit_id ASC`, s.table)

	var records []Record
	if err := s.db.Select(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query feature records: %v", err)
	}

	klog.V(2).InfoS("Loaded feature records from postgres",
		"table", s.table,
		"records", len(records))

	return records, nil
}

// Close closes the database connection
func (s *PostgresSource) Close() error {
	return s.db.Close()
}
