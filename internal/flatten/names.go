package flatten

import (
	"fmt"
	"strings"
)

const outputSuffix = ".txt"

// nameAllocator hands out unique output names for one run.
// Decisions depend only on the names handed out before, so the same input
// order always yields the same names.
type nameAllocator struct {
	used       map[string]struct{}
	collided   map[string]struct{}
	collisions int
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{
		used:     make(map[string]struct{}),
		collided: make(map[string]struct{}),
	}
}

// assign reserves and returns the output name for a source file base name.
// "main.java" becomes "main.java.txt", then "main.java(1).txt", "main.java(2).txt", ...
func (a *nameAllocator) assign(basename string) string {
	target := basename + outputSuffix
	if _, taken := a.used[target]; !taken {
		a.used[target] = struct{}{}
		return target
	}

	base := strings.TrimSuffix(target, outputSuffix)
	if _, seen := a.collided[base]; !seen {
		a.collided[base] = struct{}{}
		a.collisions++
	}

	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s(%d)%s", base, n, outputSuffix)
		if _, taken := a.used[candidate]; !taken {
			a.used[candidate] = struct{}{}
			return candidate
		}
	}
}
