package shader

import "fmt"

// segmentKind classifies one step of a parsed uniform path.
type segmentKind int

const (
	// segStruct descends into a structured node.
	segStruct segmentKind = iota
	// segLeaf terminates the path at a single-slot leaf.
	segLeaf
	// segArrayLeaf terminates the path at a whole-array leaf: the name ends
	// in an array subscript with no further nesting ("boneMatrices[0]").
	segArrayLeaf
)

// pathSegment is one parsed step of a reflected uniform name.
type pathSegment struct {
	Ident string
	// IsIndex marks an identifier that was a numeric array index inside the
	// path ("lights[2].color" yields segment "2" with IsIndex set).
	IsIndex bool
	Kind    segmentKind
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// parseUniformPath scans a reflected uniform name left to right, greedily
// and without backtracking: identifier, optional closing bracket marking the
// identifier as an array index, optional dot or opening bracket marking
// descent. A trailing subscript at end-of-name denotes the whole reflected
// array, not per-index leaves.
func parseUniformPath(name string) ([]pathSegment, error) {
	if name == "" {
		return nil, fmt.Errorf("empty uniform name")
	}
	var path []pathSegment
	pos := 0
	for {
		start := pos
		for pos < len(name) && isWordByte(name[pos]) {
			pos++
		}
		if pos == start {
			return nil, fmt.Errorf("malformed uniform name %q at byte %d", name, pos)
		}
		seg := pathSegment{Ident: name[start:pos]}

		if pos < len(name) && name[pos] == ']' {
			seg.IsIndex = true
			pos++
		}

		if pos == len(name) {
			seg.Kind = segLeaf
			return append(path, seg), nil
		}

		switch name[pos] {
		case '.':
			pos++
			seg.Kind = segStruct
			path = append(path, seg)
		case '[':
			pos++
			if trailingSubscript(name[pos:]) {
				seg.Kind = segArrayLeaf
				return append(path, seg), nil
			}
			seg.Kind = segStruct
			path = append(path, seg)
		default:
			return nil, fmt.Errorf("malformed uniform name %q at byte %d", name, pos)
		}

		if pos == len(name) {
			return nil, fmt.Errorf("uniform name %q ends mid-path", name)
		}
	}
}

// trailingSubscript reports whether rest is exactly digits followed by a
// closing bracket at end-of-name, i.e. the "[N]" suffix of a pure array.
func trailingSubscript(rest string) bool {
	if len(rest) < 2 {
		return false
	}
	i := 0
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	return i > 0 && i == len(rest)-1 && rest[i] == ']'
}
