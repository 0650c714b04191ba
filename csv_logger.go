package openmalaria

import (
	"bufio"
	"fmt"
	"os"
)

// CSVMonitoringSink is a MonitoringSink that writes a tab-separated file,
// one row per (survey-period, age-group-or-cohort, measure-code, value),
// per spec.md §6.3's literal contract. Grounded on the teacher's
// CSVLogger (csv_logger.go): one open file, one buffered writer, a
// SetBasePath/Init/Write lifecycle.
type CSVMonitoringSink struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

// NewCSVMonitoringSink creates a sink that will write to basepath, suffixed
// with the instance number i, matching the teacher's NewCSVLogger naming
// convention.
func NewCSVMonitoringSink(basepath string, i int) *CSVMonitoringSink {
	return &CSVMonitoringSink{path: fmt.Sprintf("%s.%03d.survey.tsv", basepath, i)}
}

// Init opens the output file and writes the header row.
func (c *CSVMonitoringSink) Init() error {
	f, err := os.Create(c.path)
	if err != nil {
		return &SimError{Code: ExitFileIO, Err: err}
	}
	c.file = f
	c.writer = bufio.NewWriter(f)
	_, err = c.writer.WriteString("survey\tage_group\tmeasure\tgenotype\tvalue\n")
	return err
}

// Close flushes and closes the underlying file.
func (c *CSVMonitoringSink) Close() error {
	if c.writer != nil {
		if err := c.writer.Flush(); err != nil {
			return err
		}
	}
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

// Increment appends an integer counter row.
func (c *CSVMonitoringSink) Increment(measure SurveyMeasure, surveyPeriod, ageGroup, genotype int, delta int) {
	fmt.Fprintf(c.writer, "%d\t%d\t%d\t%d\t%d\n", surveyPeriod, ageGroup, measure, genotype, delta)
}

// IncrementReal appends a real-valued expectation row.
func (c *CSVMonitoringSink) IncrementReal(measure SurveyMeasure, surveyPeriod, ageGroup, genotype int, delta float64) {
	fmt.Fprintf(c.writer, "%d\t%d\t%d\t%d\t%f\n", surveyPeriod, ageGroup, measure, genotype, delta)
}
