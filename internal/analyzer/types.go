package analyzer

import (
	"encoding/json"

	"pyfacts/internal/sqlscan"
)

// FunctionRecord describes one declared function. calls_made and
// data_operations are deduplicated in first-occurrence order; sql_queries
// keeps every occurrence.
type FunctionRecord struct {
	Name           string   `json:"name"`
	Args           []string `json:"args"`
	Returns        string   `json:"returns,omitempty"`
	LineNumber     int      `json:"line_number"`
	Docstring      string   `json:"docstring,omitempty"`
	Decorators     []string `json:"decorators"`
	CallsMade      []string `json:"calls_made"`
	SQLQueries     []string `json:"sql_queries"`
	DataOperations []string `json:"data_operations"`
}

// ClassRecord describes one declared class. Methods are exactly the
// function definitions found directly in the class body.
type ClassRecord struct {
	Name        string           `json:"name"`
	Methods     []FunctionRecord `json:"methods"`
	Attributes  []string         `json:"attributes"`
	Inheritance []string         `json:"inheritance"`
	LineNumber  int              `json:"line_number"`
	Docstring   string           `json:"docstring,omitempty"`
}

// ImportRecord describes one import. A plain import carries a one-element
// name list equal to the module path; a from-import lists every imported
// symbol and has no alias.
type ImportRecord struct {
	Module     string   `json:"module"`
	Names      []string `json:"names"`
	Alias      string   `json:"alias,omitempty"`
	LineNumber int      `json:"line_number"`
}

// DataOperationRecord is an assignment whose right-hand side is a call into
// a recognized data library.
type DataOperationRecord struct {
	OperationType string `json:"operation_type"`
	Target        string `json:"target"`
	Method        string `json:"method"`
	LineNumber    int    `json:"line_number"`
	Context       string `json:"context"`
}

// ComplexityMetrics summarizes whole-file size and branching. When Error is
// set the metrics could not be computed and the record serializes as a
// single-field error descriptor.
type ComplexityMetrics struct {
	LinesOfCode          int `json:"lines_of_code"`
	TotalLines           int `json:"total_lines"`
	CommentLines         int `json:"comment_lines"`
	FunctionCount        int `json:"function_count"`
	ClassCount           int `json:"class_count"`
	CyclomaticComplexity int `json:"cyclomatic_complexity"`
	ImportCount          int `json:"import_count"`

	Error string `json:"-"`
}

func (m ComplexityMetrics) MarshalJSON() ([]byte, error) {
	if m.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{m.Error})
	}
	type plain ComplexityMetrics
	return json.Marshal(plain(m))
}

func (m *ComplexityMetrics) UnmarshalJSON(data []byte) error {
	var errOnly struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &errOnly); err == nil && errOnly.Error != "" {
		*m = ComplexityMetrics{Error: errOnly.Error}
		return nil
	}
	type plain ComplexityMetrics
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = ComplexityMetrics(p)
	return nil
}

// AnalysisResult is the complete fact sheet for one file. It owns every
// record it contains and has no state beyond the analysis call that built it.
type AnalysisResult struct {
	FilePath          string                `json:"file_path"`
	Functions         []FunctionRecord      `json:"functions"`
	Classes           []ClassRecord         `json:"classes"`
	Imports           []ImportRecord        `json:"imports"`
	GlobalVariables   []string              `json:"global_variables"`
	DataOperations    []DataOperationRecord `json:"data_operations"`
	SQLQueries        []sqlscan.QueryRecord `json:"sql_queries"`
	ComplexityMetrics ComplexityMetrics     `json:"complexity_metrics"`
	Dependencies      []string              `json:"dependencies"`
}

// Degraded reports whether the result carries an error descriptor instead of
// computed metrics.
func (r *AnalysisResult) Degraded() bool {
	return r.ComplexityMetrics.Error != ""
}
