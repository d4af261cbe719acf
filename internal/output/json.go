package output

import (
	"encoding/json"
	"io"

	"pyfacts/internal/analyzer"
	"pyfacts/internal/history"
)

// WriteResult serializes one fact sheet as indented JSON.
func WriteResult(w io.Writer, result *analyzer.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteBatch serializes a scan run as a JSON array, one element per file.
func WriteBatch(w io.Writer, results []*analyzer.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WriteSnapshots serializes history rows as a JSON array, newest first.
func WriteSnapshots(w io.Writer, snapshots []history.Snapshot) error {
	if snapshots == nil {
		snapshots = []history.Snapshot{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshots)
}

// ErrorPayload is the request-level failure response: every collection
// empty, metrics empty, plus the failure message.
type ErrorPayload struct {
	Error             string                 `json:"error"`
	FilePath          string                 `json:"file_path"`
	Functions         []struct{}             `json:"functions"`
	Classes           []struct{}             `json:"classes"`
	Imports           []struct{}             `json:"imports"`
	GlobalVariables   []string               `json:"global_variables"`
	DataOperations    []struct{}             `json:"data_operations"`
	SQLQueries        []struct{}             `json:"sql_queries"`
	ComplexityMetrics map[string]interface{} `json:"complexity_metrics"`
	Dependencies      []string               `json:"dependencies"`
}

// WriteError emits the request-level failure payload.
func WriteError(w io.Writer, message string) error {
	payload := ErrorPayload{
		Error:             message,
		FilePath:          "unknown",
		Functions:         []struct{}{},
		Classes:           []struct{}{},
		Imports:           []struct{}{},
		GlobalVariables:   []string{},
		DataOperations:    []struct{}{},
		SQLQueries:        []struct{}{},
		ComplexityMetrics: map[string]interface{}{},
		Dependencies:      []string{},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
