package compare

import "github.com/cockroachdb/cockroachdb-parser/pkg/sql/sem/tree"

func names(strs ...string) []tree.Name {
	ret := make([]tree.Name, len(strs))
	for i, s := range strs {
		ret[i] = tree.Name(s)
	}
	return ret
}
