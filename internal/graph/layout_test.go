package graph

import (
	"strings"
	"testing"
)

func TestLayoutPreservesOrderAndCount(t *testing.T) {
	commits := []Commit{
		{Hash: "a", Parents: ""},
		{Hash: "b", Parents: "a"},
		{Hash: "c", Parents: "b"},
	}
	rows := Layout(commits, map[string]struct{}{"c": {}}, Params{LaneWidth: 20, RowHeight: 20})
	if len(rows) != len(commits) {
		t.Fatalf("got %d rows, want %d", len(rows), len(commits))
	}
	for i, r := range rows {
		if r.Hash != commits[i].Hash {
			t.Fatalf("row %d hash = %q, want %q (order not preserved)", i, r.Hash, commits[i].Hash)
		}
	}
}

func TestMainChainColorsZero(t *testing.T) {
	commits := []Commit{
		{Hash: "A", Parents: ""},
		{Hash: "B", Parents: "A"},
		{Hash: "C", Parents: "B"},
	}
	rows := Layout(commits, map[string]struct{}{"A": {}}, Params{LaneWidth: 20, RowHeight: 20})
	if rows[0].ColorIndex != 0 {
		t.Fatalf("main chain color = %d, want 0", rows[0].ColorIndex)
	}
}

// Linear history A->B->C (each row's parent is the next row) with
// main_chain={A}: every node stays in column 0, A takes color 0 and B, C
// share lane color 1, and the edges A->B and B->C are each drawn as a
// bottom-half plus top-half segment centered on x = 0*20 + 20/2 + 4 = 14.
func TestLinearHistoryColumnsAndEdges(t *testing.T) {
	commits := []Commit{
		{Hash: "A", Parents: "B"},
		{Hash: "B", Parents: "C"},
		{Hash: "C", Parents: ""},
	}
	rows := Layout(commits, map[string]struct{}{"A": {}}, Params{LaneWidth: 20, RowHeight: 20, ShowLongEdges: false})
	for i, r := range rows {
		if r.NodeColumn != 0 {
			t.Fatalf("row %d column = %d, want 0", i, r.NodeColumn)
		}
	}
	wantColors := []int{0, 1, 1}
	for i, want := range wantColors {
		if rows[i].ColorIndex != want {
			t.Fatalf("row %d color = %d, want %d", i, rows[i].ColorIndex, want)
		}
	}
	total := 0
	for i, r := range rows {
		for _, s := range r.Segments {
			if s.XTop != 14 || s.XBottom != 14 {
				t.Fatalf("row %d segment %+v not centered on x=14", i, s)
			}
		}
		total += len(r.Segments)
	}
	if total != 4 {
		t.Fatalf("got %d segments, want 4 (two half-row segments per edge)", total)
	}
}

func TestSingleMergeDistinctColumns(t *testing.T) {
	commits := []Commit{
		{Hash: "M", Parents: "A B"},
		{Hash: "A", Parents: ""},
		{Hash: "B", Parents: ""},
	}
	rows := Layout(commits, map[string]struct{}{}, Params{LaneWidth: 20, RowHeight: 20, ShowLongEdges: false})
	if rows[0].NodeColumn != 0 {
		t.Fatalf("merge commit column = %d, want 0", rows[0].NodeColumn)
	}
	// The first-parent edge M->A ends at A's node in row 1, while the
	// merge edge M->B, drawn in B's color, passes through row 1: the two
	// outgoing edges must occupy distinct columns there.
	nodeX := float32(rows[1].NodeColumn)*20 + 20/2 + 4
	mergeX := float32(-1)
	for _, s := range rows[1].Segments {
		if s.ColorIndex == rows[2].ColorIndex && s.YTop == 0 {
			mergeX = s.XBottom
		}
	}
	if mergeX < 0 || mergeX == nodeX {
		t.Fatalf("merge edge x in row 1 = %v, want a column distinct from the M->A edge at x = %v", mergeX, nodeX)
	}
}

func TestEdgeUpLiLEDownLi(t *testing.T) {
	commits := []Commit{
		{Hash: "M", Parents: "A B"},
		{Hash: "A", Parents: ""},
		{Hash: "B", Parents: ""},
		{Hash: "C", Parents: "A"},
	}
	rows := Layout(commits, map[string]struct{}{}, Params{LaneWidth: 20, RowHeight: 20})
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}

	parentLists := make([][]string, len(commits))
	hashToRow := make(map[string]int, len(commits))
	for i, c := range commits {
		hashToRow[c.Hash] = i
		if c.Parents != "" {
			parentLists[i] = strings.Split(c.Parents, " ")
		}
	}
	li := assignLayoutIndices(len(commits), parentLists, hashToRow)
	for child, parents := range parentLists {
		for _, p := range parents {
			parent, ok := hashToRow[p]
			if !ok || parent <= child {
				continue // not an edge: Layout only draws parents in later rows
			}
			if li[child] > li[parent] {
				t.Fatalf("edge %s->%s: up_li %d > down_li %d", commits[child].Hash, p, li[child], li[parent])
			}
		}
	}
}

func TestEmptyInput(t *testing.T) {
	rows := Layout(nil, map[string]struct{}{}, Params{LaneWidth: 20, RowHeight: 20})
	if rows != nil {
		t.Fatalf("expected nil rows for empty input, got %v", rows)
	}
}
