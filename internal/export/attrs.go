package export

import (
	"sort"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// sortedAttrKeys returns the attribute keys in a stable order so exported
// artifacts are byte-for-byte reproducible.
func sortedAttrKeys(attrs schemas.Attrs) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
