package analyzer

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pyfacts/internal/parser"
	"pyfacts/internal/shared/observability"
	"pyfacts/internal/sqlscan"
)

// Analyzer runs the full extraction pipeline for one file at a time. It is
// stateless across calls and safe for concurrent use.
type Analyzer struct {
	parser   *parser.Parser
	matcher  *sqlscan.Matcher
	dataLibs []string
}

func New(dataLibs []string) *Analyzer {
	return &Analyzer{
		parser:   parser.New(),
		matcher:  sqlscan.NewMatcher(),
		dataLibs: dataLibs,
	}
}

// Analyze produces the fact sheet for one file. It never returns an error:
// source that does not parse yields a degraded result carrying an error
// descriptor in place of metrics.
func (a *Analyzer) Analyze(ctx context.Context, filePath, content string) *AnalysisResult {
	_, span := observability.Tracer.Start(ctx, "analyzer.Analyze",
		trace.WithAttributes(attribute.String("file.path", filePath)))
	defer span.End()

	timer := prometheus.NewTimer(observability.AnalysisDuration)
	defer timer.ObserveDuration()

	tree, err := a.parser.Parse([]byte(content))
	if err != nil {
		observability.FilesAnalyzedTotal.WithLabelValues(observability.OutcomeDegraded).Inc()
		return Degraded(filePath, err.Error())
	}
	defer tree.Close()

	if tree.HasSyntaxError() {
		observability.FilesAnalyzedTotal.WithLabelValues(observability.OutcomeDegraded).Inc()
		return Degraded(filePath, fmt.Sprintf("syntax error at line %d", tree.FirstErrorLine()))
	}

	extractor := NewExtractor(tree.Source, a.dataLibs)
	extractor.Run(tree.Root())

	observability.FilesAnalyzedTotal.WithLabelValues(observability.OutcomeOK).Inc()
	return &AnalysisResult{
		FilePath:          filePath,
		Functions:         extractor.functions,
		Classes:           extractor.classes,
		Imports:           extractor.imports,
		GlobalVariables:   extractor.globals,
		DataOperations:    extractor.dataOps,
		SQLQueries:        a.matcher.Scan(content),
		ComplexityMetrics: CalculateMetrics(tree.Root(), content),
		Dependencies:      Dependencies(extractor.imports),
	}
}

// Degraded builds a structurally complete result with empty collections and
// an error descriptor in place of metrics.
func Degraded(filePath, message string) *AnalysisResult {
	return &AnalysisResult{
		FilePath:          filePath,
		Functions:         []FunctionRecord{},
		Classes:           []ClassRecord{},
		Imports:           []ImportRecord{},
		GlobalVariables:   []string{},
		DataOperations:    []DataOperationRecord{},
		SQLQueries:        []sqlscan.QueryRecord{},
		ComplexityMetrics: ComplexityMetrics{Error: message},
		Dependencies:      []string{},
	}
}
