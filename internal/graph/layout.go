// Package graph implements the commit-graph layout engine: a pure
// function that turns an ordered commit list into per-row lane
// columns, color indices, and pixel-space line segments/arrows
// suitable for drawing a DAG in a scrollable list. It holds no state
// and is safe to call concurrently on independent inputs.
package graph

import (
	"math"
	"sort"
	"strings"
)

// Commit is one input row to Layout; order is preserved in the output.
type Commit struct {
	Hash          string `json:"hash"`
	Parents       string `json:"parents"` // space-separated hashes, original order preserved
	ShortHash     string `json:"short_hash"`
	Refs          string `json:"refs"`
	Message       string `json:"message"`
	Author        string `json:"author"`
	DateTimestamp int64  `json:"date_timestamp"`
}

// PrintSegment is a line segment in row-local pixel space.
type PrintSegment struct {
	XTop       float32 `json:"x_top"`
	YTop       float32 `json:"y_top"`
	XBottom    float32 `json:"x_bottom"`
	YBottom    float32 `json:"y_bottom"`
	ColorIndex int     `json:"color_index"`
}

// ArrowElement marks a long-edge break or a short visible edge.
type ArrowElement struct {
	X          float32 `json:"x"`
	Y          float32 `json:"y"`
	ColorIndex int     `json:"color_index"`
	IsDown     bool    `json:"is_down"`
}

// Row is one fully laid-out output row, one per input Commit.
type Row struct {
	Hash          string         `json:"hash"`
	ShortHash     string         `json:"short_hash"`
	Message       string         `json:"message"`
	Author        string         `json:"author"`
	DateTimestamp int64          `json:"date_timestamp"`
	Refs          string         `json:"refs"`
	Parents       string         `json:"parents"`
	NodeColumn    int            `json:"node_column"`
	ColorIndex    int            `json:"color_index"`
	Segments      []PrintSegment `json:"segments"`
	Arrows        []ArrowElement `json:"arrows"`
}

// Params controls the visual thresholds for long-edge collapsing.
type Params struct {
	LaneWidth     float32 `json:"lane_width"`
	RowHeight     float32 `json:"row_height"`
	ShowLongEdges bool    `json:"show_long_edges"`
}

func (p Params) constants() (longEdgeSize, visiblePartSize, edgeWithArrowSize int) {
	if p.ShowLongEdges {
		return 1000, 250, 30
	}
	return 30, 1, math.MaxInt32
}

// Layout computes the full graph drawing for commits, given the set of
// hashes on the main chain (colored 0) and rendering parameters. The
// output preserves input order; it never mutates commits.
func Layout(commits []Commit, mainChain map[string]struct{}, params Params) []Row {
	n := len(commits)
	if n == 0 {
		return nil
	}
	lw, rh := params.LaneWidth, params.RowHeight
	longEdgeSize, visiblePartSize, edgeWithArrowSize := params.constants()

	parentLists := make([][]string, n)
	for i, c := range commits {
		if c.Parents == "" {
			continue
		}
		parentLists[i] = strings.Split(c.Parents, " ")
	}

	hashToRow := make(map[string]int, n)
	for i, c := range commits {
		hashToRow[c.Hash] = i
	}

	layoutIndex := assignLayoutIndices(n, parentLists, hashToRow)

	liToColor := make(map[int]int)
	nextColor := 1
	nodeColors := make([]int, n)
	for i := 0; i < n; i++ {
		li := layoutIndex[i]
		_, isMain := mainChain[commits[i].Hash]
		var ci int
		switch {
		case isMain:
			ci = 0
		default:
			if c, ok := liToColor[li]; ok {
				ci = c
			} else {
				ci = nextColor
				nextColor++
				liToColor[li] = ci
			}
		}
		nodeColors[i] = ci
	}

	type edgeInfo struct {
		childRow, parentRow       int
		upLi, downLi, colorIndex int
	}
	var allEdges []edgeInfo
	for childRow, parents := range parentLists {
		for pi, parentHash := range parents {
			parentRow, ok := hashToRow[parentHash]
			if !ok || parentRow <= childRow {
				continue
			}
			childLi := layoutIndex[childRow]
			parentLi := layoutIndex[parentRow]

			var ci int
			if pi == 0 {
				ci = nodeColors[childRow]
			} else {
				ci = nodeColors[parentRow]
			}
			allEdges = append(allEdges, edgeInfo{
				childRow: childRow, parentRow: parentRow,
				upLi: childLi, downLi: parentLi, colorIndex: ci,
			})
		}
	}

	// Phase 2: column sweep.
	edgesByStart := make(map[int][]int)
	for ei, e := range allEdges {
		firstIntermediate := e.childRow + 1
		lastIntermediate := minInt(e.parentRow-1, n-1)
		if firstIntermediate <= lastIntermediate {
			edgesByStart[firstIntermediate] = append(edgesByStart[firstIntermediate], ei)
		}
	}

	activeEdges := make(map[int]struct{})
	nodeColumns := make([]int, n)
	edgeColumnAtRow := make([]map[int]int, n)
	for i := range edgeColumnAtRow {
		edgeColumnAtRow[i] = make(map[int]int)
	}

	type rowElement struct {
		isNode               bool
		edgeIndex            int
		upLi, downLi         int
		upRow, downRow       int
	}

	compare2 := func(e, n rowElement) int {
		maxEdgeLi := e.upLi
		if e.downLi > maxEdgeLi {
			maxEdgeLi = e.downLi
		}
		if maxEdgeLi != n.upLi {
			return maxEdgeLi - n.upLi
		}
		return e.upRow - n.upRow
	}

	var compareElements func(lhs, rhs rowElement) int
	compareElements = func(lhs, rhs rowElement) int {
		if !lhs.isNode && !rhs.isNode {
			if lhs.upRow == rhs.upRow {
				if lhs.downRow < rhs.downRow {
					vn := rowElement{isNode: true, upLi: lhs.downLi, downLi: lhs.downLi, upRow: lhs.downRow, downRow: lhs.downRow}
					return -compare2(rhs, vn)
				}
				vn := rowElement{isNode: true, upLi: rhs.downLi, downLi: rhs.downLi, upRow: rhs.downRow, downRow: rhs.downRow}
				return compare2(lhs, vn)
			}
			if lhs.upRow < rhs.upRow {
				vn := rowElement{isNode: true, upLi: rhs.upLi, downLi: rhs.upLi, upRow: rhs.upRow, downRow: rhs.upRow}
				return compare2(lhs, vn)
			}
			vn := rowElement{isNode: true, upLi: lhs.upLi, downLi: lhs.upLi, upRow: lhs.upRow, downRow: lhs.upRow}
			return -compare2(rhs, vn)
		}
		if !lhs.isNode && rhs.isNode {
			return compare2(lhs, rhs)
		}
		if lhs.isNode && !rhs.isNode {
			return -compare2(rhs, lhs)
		}
		return 0
	}

	isEdgeVisibleInRow := func(childRow, parentRow, row int) bool {
		span := parentRow - childRow
		switch {
		case span >= longEdgeSize:
			return row-childRow <= visiblePartSize || parentRow-row <= visiblePartSize
		case span >= edgeWithArrowSize:
			return row-childRow <= 1 || parentRow-row <= 1
		default:
			return true
		}
	}

	for row := 0; row < n; row++ {
		for _, ei := range edgesByStart[row] {
			activeEdges[ei] = struct{}{}
		}

		nodeLi := layoutIndex[row]
		elements := make([]rowElement, 0, len(activeEdges)+1)
		elements = append(elements, rowElement{isNode: true, upLi: nodeLi, downLi: nodeLi, upRow: row, downRow: row})

		activeList := make([]int, 0, len(activeEdges))
		for ei := range activeEdges {
			activeList = append(activeList, ei)
		}
		sort.Ints(activeList) // deterministic iteration order before the stable sort below

		for _, ei := range activeList {
			e := allEdges[ei]
			clampedPR := minInt(e.parentRow, n-1)
			if !isEdgeVisibleInRow(e.childRow, clampedPR, row) {
				continue
			}
			elements = append(elements, rowElement{
				isNode: false, edgeIndex: ei,
				upLi: e.upLi, downLi: e.downLi,
				upRow: e.childRow, downRow: e.parentRow,
			})
		}

		sort.SliceStable(elements, func(i, j int) bool {
			return compareElements(elements[i], elements[j]) < 0
		})

		for col, elem := range elements {
			if elem.isNode {
				nodeColumns[row] = col
			} else {
				edgeColumnAtRow[row][elem.edgeIndex] = col
			}
		}

		for ei := range activeEdges {
			lastInterm := minInt(allEdges[ei].parentRow-1, n-1)
			if row >= lastInterm {
				delete(activeEdges, ei)
			}
		}
	}

	// Phase 3: segments and arrows.
	xPos := func(col int) float32 { return float32(col)*lw + lw/2 + 4 }
	const approachLen float32 = 8

	rowSegments := make([][]PrintSegment, n)
	rowArrows := make([][]ArrowElement, n)

	for ei, e := range allEdges {
		ci := e.colorIndex
		clampedParent := minInt(e.parentRow, n-1)
		span := clampedParent - e.childRow
		if span <= 0 {
			continue
		}

		type anchor struct {
			row int
			x   float32
		}
		anchors := []anchor{{e.childRow, xPos(nodeColumns[e.childRow])}}
		for r := e.childRow + 1; r < clampedParent; r++ {
			if r >= n {
				break
			}
			if !isEdgeVisibleInRow(e.childRow, clampedParent, r) {
				continue
			}
			col, ok := edgeColumnAtRow[r][ei]
			if !ok {
				col = nodeColumns[e.childRow]
			}
			anchors = append(anchors, anchor{r, xPos(col)})
		}
		anchors = append(anchors, anchor{clampedParent, xPos(nodeColumns[clampedParent])})

		downArrowRows := make(map[int]struct{})
		upArrowRows := make(map[int]struct{})
		if span >= longEdgeSize {
			downArrowRows[e.childRow+visiblePartSize] = struct{}{}
			if clampedParent >= visiblePartSize {
				upArrowRows[clampedParent-visiblePartSize] = struct{}{}
			}
		}
		if span >= edgeWithArrowSize {
			downArrowRows[e.childRow+1] = struct{}{}
			if clampedParent >= 1 {
				upArrowRows[clampedParent-1] = struct{}{}
			}
		}

		for ai := 0; ai+1 < len(anchors); ai++ {
			rowA, xA := anchors[ai].row, anchors[ai].x
			rowB, xB := anchors[ai+1].row, anchors[ai+1].x
			if rowA >= n {
				continue
			}
			if rowB != rowA+1 {
				continue // gap in visibility: invisible middle of a long edge
			}

			xMid := (xA + xB) / 2
			_, diagUp := upArrowRows[rowA]
			isDiagonal := absf32(xA-xB) > 0.5

			if diagUp && isDiagonal {
				rowSegments[rowA] = append(rowSegments[rowA],
					PrintSegment{XTop: xA, YTop: 0, XBottom: xA, YBottom: approachLen, ColorIndex: ci},
					PrintSegment{XTop: xA, YTop: approachLen, XBottom: xMid, YBottom: rh, ColorIndex: ci},
				)
			} else if diagUp {
				rowSegments[rowA] = append(rowSegments[rowA],
					PrintSegment{XTop: xA, YTop: 0, XBottom: xMid, YBottom: rh, ColorIndex: ci},
				)
			} else {
				rowSegments[rowA] = append(rowSegments[rowA],
					PrintSegment{XTop: xA, YTop: rh / 2, XBottom: xMid, YBottom: rh, ColorIndex: ci},
				)
			}

			if rowB < n {
				if _, ok := downArrowRows[rowB]; ok && isDiagonal {
					rowSegments[rowB] = append(rowSegments[rowB],
						PrintSegment{XTop: xMid, YTop: 0, XBottom: xB, YBottom: rh - approachLen, ColorIndex: ci},
						PrintSegment{XTop: xB, YTop: rh - approachLen, XBottom: xB, YBottom: rh, ColorIndex: ci},
					)
				} else if _, ok := downArrowRows[rowB]; ok {
					rowSegments[rowB] = append(rowSegments[rowB],
						PrintSegment{XTop: xMid, YTop: 0, XBottom: xB, YBottom: rh, ColorIndex: ci},
					)
				} else {
					rowSegments[rowB] = append(rowSegments[rowB],
						PrintSegment{XTop: xMid, YTop: 0, XBottom: xB, YBottom: rh / 2, ColorIndex: ci},
					)
				}
			}
		}

		if span >= longEdgeSize {
			downRow := e.childRow + visiblePartSize
			if downRow < n {
				col, ok := edgeColumnAtRow[downRow][ei]
				if !ok {
					col = nodeColumns[e.childRow]
				}
				rowArrows[downRow] = append(rowArrows[downRow], ArrowElement{X: xPos(col), Y: rh, ColorIndex: ci, IsDown: true})
			}
			if clampedParent >= visiblePartSize {
				upRow := clampedParent - visiblePartSize
				if upRow < n {
					col, ok := edgeColumnAtRow[upRow][ei]
					if !ok {
						col = nodeColumns[clampedParent]
					}
					rowArrows[upRow] = append(rowArrows[upRow], ArrowElement{X: xPos(col), Y: 0, ColorIndex: ci, IsDown: false})
				}
			}
		}
		if span >= edgeWithArrowSize {
			downRow := e.childRow + 1
			if downRow < n {
				col, ok := edgeColumnAtRow[downRow][ei]
				if !ok {
					col = nodeColumns[e.childRow]
				}
				rowArrows[downRow] = append(rowArrows[downRow], ArrowElement{X: xPos(col), Y: rh, ColorIndex: ci, IsDown: true})
			}
			if clampedParent >= 1 {
				upRow := clampedParent - 1
				if upRow < n {
					col, ok := edgeColumnAtRow[upRow][ei]
					if !ok {
						col = nodeColumns[clampedParent]
					}
					rowArrows[upRow] = append(rowArrows[upRow], ArrowElement{X: xPos(col), Y: 0, ColorIndex: ci, IsDown: false})
				}
			}
		}
	}

	result := make([]Row, n)
	for i := 0; i < n; i++ {
		result[i] = Row{
			Hash: commits[i].Hash, ShortHash: commits[i].ShortHash,
			Message: commits[i].Message, Author: commits[i].Author,
			DateTimestamp: commits[i].DateTimestamp, Refs: commits[i].Refs,
			Parents: commits[i].Parents, NodeColumn: nodeColumns[i],
			ColorIndex: nodeColors[i], Segments: rowSegments[i], Arrows: rowArrows[i],
		}
	}
	return result
}

// assignLayoutIndices performs the iterative DFS from each head
// (a row never referenced as a parent), assigning a monotonically
// increasing integer per descended lane.
func assignLayoutIndices(n int, parentLists [][]string, hashToRow map[string]int) []int {
	layoutIndex := make([]int, n)
	currentLi := 1

	parentSet := make(map[int]struct{})
	for _, parents := range parentLists {
		for _, p := range parents {
			if pr, ok := hashToRow[p]; ok {
				parentSet[pr] = struct{}{}
			}
		}
	}
	var heads []int
	for i := 0; i < n; i++ {
		if _, ok := parentSet[i]; !ok {
			heads = append(heads, i)
		}
	}
	sort.Ints(heads)

	dfsWalk := func(head int) {
		if layoutIndex[head] != 0 {
			return
		}
		stack := []int{head}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			firstVisit := layoutIndex[cur] == 0
			if firstVisit {
				layoutIndex[cur] = currentLi
			}
			var next int = -1
			for _, p := range parentLists[cur] {
				if pr, ok := hashToRow[p]; ok && layoutIndex[pr] == 0 {
					next = pr
					break
				}
			}
			if next >= 0 {
				stack = append(stack, next)
				continue
			}
			if firstVisit {
				currentLi++
			}
			stack = stack[:len(stack)-1]
		}
	}

	for _, h := range heads {
		dfsWalk(h)
	}
	for i := 0; i < n; i++ {
		if layoutIndex[i] == 0 {
			dfsWalk(i)
		}
	}
	return layoutIndex
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absf32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
