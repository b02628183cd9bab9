package graph

import (
	"sort"
	"strconv"
)

// lessID orders integer ids numerically ahead of all other ids, which
// compare lexicographically, so "9" sorts before "10" and both before "1a".
func lessID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if ai != bi {
			return ai < bi
		}
		return a < b
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}

func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
}

// lessSeq compares two id sequences element-wise, shorter first on a tie.
func lessSeq(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return lessID(a[i], b[i])
		}
	}
	return len(a) < len(b)
}
