package openmalaria

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteMonitoringSink is a MonitoringSink backed by a SQLite table, the
// alternative sink selected by a scenario's monitoring sink = "sqlite"
// setting. Grounded on the
// teacher's SQLiteLogger (sqlite_logger.go): one database file per
// instance, one table, prepared-statement inserts.
type SQLiteMonitoringSink struct {
	path string
	db   *sql.DB
	ins  *sql.Stmt
}

// NewSQLiteMonitoringSink creates a sink that will write to a SQLite file
// at basepath, suffixed with the instance number i.
func NewSQLiteMonitoringSink(basepath string, i int) *SQLiteMonitoringSink {
	return &SQLiteMonitoringSink{path: fmt.Sprintf("%s.%03d.survey.sqlite3", basepath, i)}
}

// Init opens the database, creates the survey table, and prepares the
// insert statement.
func (s *SQLiteMonitoringSink) Init() error {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return &SimError{Code: ExitFileIO, Err: err}
	}
	s.db = db
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS survey (
		survey_period INTEGER,
		age_group INTEGER,
		measure INTEGER,
		genotype INTEGER,
		value REAL
	)`)
	if err != nil {
		return &SimError{Code: ExitFileIO, Err: err}
	}
	stmt, err := db.Prepare(`INSERT INTO survey (survey_period, age_group, measure, genotype, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return &SimError{Code: ExitFileIO, Err: err}
	}
	s.ins = stmt
	return nil
}

// Close closes the prepared statement and the database handle.
func (s *SQLiteMonitoringSink) Close() error {
	if s.ins != nil {
		_ = s.ins.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Increment inserts an integer counter row.
func (s *SQLiteMonitoringSink) Increment(measure SurveyMeasure, surveyPeriod, ageGroup, genotype int, delta int) {
	if s.ins == nil {
		return
	}
	_, _ = s.ins.Exec(surveyPeriod, ageGroup, int(measure), genotype, float64(delta))
}

// IncrementReal inserts a real-valued expectation row.
func (s *SQLiteMonitoringSink) IncrementReal(measure SurveyMeasure, surveyPeriod, ageGroup, genotype int, delta float64) {
	if s.ins == nil {
		return
	}
	_, _ = s.ins.Exec(surveyPeriod, ageGroup, int(measure), genotype, delta)
}
