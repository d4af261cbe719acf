package sqlscan

import (
	"regexp"
	"strings"

	"pyfacts/internal/shared/observability"
)

// QueryRecord is one SQL statement candidate found in raw source text,
// classified by verb with best-effort table and column extraction.
type QueryRecord struct {
	Query      string   `json:"query"`
	QueryType  string   `json:"query_type"`
	Tables     []string `json:"tables"`
	Columns    []string `json:"columns"`
	LineNumber int      `json:"line_number"`
	Context    string   `json:"context"`
}

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)SELECT\s+.*?FROM\s+\w+`),
	regexp.MustCompile(`(?i)INSERT\s+INTO\s+\w+`),
	regexp.MustCompile(`(?i)UPDATE\s+\w+\s+SET`),
	regexp.MustCompile(`(?i)DELETE\s+FROM\s+\w+`),
	regexp.MustCompile(`(?i)CREATE\s+TABLE\s+\w+`),
	regexp.MustCompile(`(?i)DROP\s+TABLE\s+\w+`),
}

type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Scan finds SQL statement candidates in raw source text. Matching is per
// physical line: a statement spanning multiple lines is only seen on lines
// where a whole pattern fits. Consumers depend on line_number pointing at a
// single line, so this stays per-line.
func (m *Matcher) Scan(content string) []QueryRecord {
	records := make([]QueryRecord, 0)

	for i, line := range strings.Split(content, "\n") {
		for _, pattern := range patterns {
			for _, match := range pattern.FindAllString(line, -1) {
				c := Classify(match)
				observability.QueriesMatchedTotal.WithLabelValues(c.Verb).Inc()
				records = append(records, QueryRecord{
					Query:      strings.TrimSpace(match),
					QueryType:  c.Verb,
					Tables:     c.Tables,
					Columns:    c.Columns,
					LineNumber: i + 1,
					Context:    strings.TrimSpace(line),
				})
			}
		}
	}

	return records
}
