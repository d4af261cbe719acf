package analyzer

import (
	"strings"

	"pyfacts/internal/shared/util"
)

// Dependencies reduces import records to the deduplicated set of top-level
// module roots (the first path segment of each imported module). The result
// is sorted for deterministic output.
func Dependencies(imports []ImportRecord) []string {
	roots := make([]string, 0, len(imports))
	for _, imp := range imports {
		root, _, _ := strings.Cut(imp.Module, ".")
		roots = append(roots, root)
	}
	return util.SortedSet(roots)
}
