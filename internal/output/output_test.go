package output

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfacts/internal/analyzer"
	"pyfacts/internal/history"
)

var libs = []string{"pandas", "pd", "numpy", "np"}

func TestWriteResultFieldNames(t *testing.T) {
	res := analyzer.New(libs).Analyze(context.Background(), "svc.py", "import os\n\ndef f(x):\n    return x\n")

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, res))

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	for _, key := range []string{
		"file_path", "functions", "classes", "imports", "global_variables",
		"data_operations", "sql_queries", "complexity_metrics", "dependencies",
	} {
		assert.Contains(t, decoded, key)
	}

	var metrics map[string]int
	require.NoError(t, json.Unmarshal(decoded["complexity_metrics"], &metrics))
	assert.Equal(t, 1, metrics["function_count"])
	assert.Equal(t, 1, metrics["cyclomatic_complexity"])
	assert.NotContains(t, metrics, "error")
}

func TestWriteResultDegradedMetrics(t *testing.T) {
	res := analyzer.Degraded("broken.py", "syntax error at line 1")

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, res))

	var decoded struct {
		Metrics map[string]interface{} `json:"complexity_metrics"`
		Classes []interface{}          `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, map[string]interface{}{"error": "syntax error at line 1"}, decoded.Metrics)
	assert.NotNil(t, decoded.Classes)
	assert.Empty(t, decoded.Classes)
}

func TestMetricsRoundTrip(t *testing.T) {
	in := analyzer.ComplexityMetrics{LinesOfCode: 3, TotalLines: 5, CyclomaticComplexity: 2}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out analyzer.ComplexityMetrics
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	degraded := analyzer.ComplexityMetrics{Error: "boom"}
	data, err = json.Marshal(degraded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(data))

	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, degraded, out)
}

func TestWriteBatchAndTSV(t *testing.T) {
	a := analyzer.New(libs)
	results := []*analyzer.AnalysisResult{
		a.Analyze(context.Background(), "a.py", "def f():\n    pass\n"),
		analyzer.Degraded("b.py", "syntax error at line 2"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBatch(&buf, results))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	tsv := GenerateTSV(results)
	lines := strings.Split(strings.TrimRight(tsv, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "a.py\t"))
	assert.Contains(t, lines[2], "syntax error at line 2")
}

func TestWriteSnapshots(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshots(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	require.NoError(t, WriteSnapshots(&buf, []history.Snapshot{
		{RunID: "run-1", Path: "a.py", FunctionCount: 2},
	}))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "run-1", decoded[0]["run_id"])
	assert.Equal(t, float64(2), decoded[0]["function_count"])
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteError(&buf, "invalid request payload"))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "invalid request payload", decoded["error"])
	assert.Equal(t, "unknown", decoded["file_path"])
	assert.Empty(t, decoded["complexity_metrics"])
}
