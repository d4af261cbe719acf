package output

import (
	"fmt"
	"strings"

	"pyfacts/internal/analyzer"
)

// GenerateTSV renders a per-file metrics summary for a scan run. Degraded
// files report their error in the last column with zeroed metrics.
func GenerateTSV(results []*analyzer.AnalysisResult) string {
	var buf strings.Builder

	buf.WriteString("File\tLOC\tTotalLines\tComments\tFunctions\tClasses\tComplexity\tImports\tQueries\tDataOps\tError\n")

	for _, res := range results {
		m := res.ComplexityMetrics
		buf.WriteString(fmt.Sprintf("%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			res.FilePath,
			m.LinesOfCode,
			m.TotalLines,
			m.CommentLines,
			m.FunctionCount,
			m.ClassCount,
			m.CyclomaticComplexity,
			m.ImportCount,
			len(res.SQLQueries),
			len(res.DataOperations),
			m.Error,
		))
	}

	return buf.String()
}
