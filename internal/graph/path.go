package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// Locate resolves a block path as produced by Walk.
//
// A path starts with "<stack>.<index>" and continues with "/<SOCKET>" for a
// value socket or "/<SOCKET>.<index>" for a position in a statement socket,
// e.g. "0.0/DO.0/IF0".
func (g *Graph) Locate(path string) (*Block, error) {
	segs := strings.Split(path, "/")
	si, bi, ok := splitIndex(segs[0])
	if !ok || si < 0 || si >= len(g.Stacks) {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	chain := g.Stacks[si].Blocks
	if bi < 0 || bi >= len(chain) {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	cur := chain[bi]

	for _, seg := range segs[1:] {
		if cur == nil {
			break
		}
		if name, idx, ok := splitNamed(seg); ok {
			list := cur.Statements[name]
			if idx < 0 || idx >= len(list) {
				return nil, fmt.Errorf("%w: %q has no %s", ErrBadPath, path, seg)
			}
			cur = list[idx]
			continue
		}
		child, ok := cur.Values[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %q has no %s", ErrBadPath, path, seg)
		}
		cur = child
	}

	if cur == nil {
		return nil, fmt.Errorf("%w: %q is empty", ErrBadPath, path)
	}
	return cur, nil
}

func splitIndex(seg string) (int, int, bool) {
	a, b, ok := strings.Cut(seg, ".")
	if !ok {
		return 0, 0, false
	}
	x, err1 := strconv.Atoi(a)
	y, err2 := strconv.Atoi(b)
	return x, y, err1 == nil && err2 == nil
}

func splitNamed(seg string) (string, int, bool) {
	name, idx, ok := strings.Cut(seg, ".")
	if !ok {
		return "", 0, false
	}
	n, err := strconv.Atoi(idx)
	if err != nil {
		return "", 0, false
	}
	return name, n, true
}
