package extract

import (
	"path/filepath"
	"strconv"
	"strings"
)

// collisionTable counts how many entries of one run were assigned each
// unsuffixed output path.
type collisionTable struct {
	seen map[string]int
}

func newCollisionTable() *collisionTable {
	return &collisionTable{seen: make(map[string]int)}
}

// resolve records one more occurrence of path and returns the path to use.
// The first occurrence keeps path as is; occurrence n+1 gets a "-n" suffix
// before the extension. Lookups always use the unsuffixed path.
func (t *collisionTable) resolve(path string) (string, int) {
	n := t.seen[path]
	t.seen[path] = n + 1
	if n == 0 {
		return path, 0
	}
	return withSuffix(path, n), n
}

func withSuffix(path string, n int) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return dir + stem + "-" + strconv.Itoa(n) + ext
}
