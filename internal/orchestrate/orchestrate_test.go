package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/pgdatadiff/pgdatadiff/internal/diff"
	"github.com/pgdatadiff/pgdatadiff/internal/schema"
	"github.com/pgdatadiff/pgdatadiff/internal/source"
)

// recordingReporter captures everything the orchestrator reports.
type recordingReporter struct {
	starts []string
	units  []string
	ends   []Summary
}

func (r *recordingReporter) PhaseStart(phase string, units int) {
	r.starts = append(r.starts, fmt.Sprintf("%s:%d", phase, units))
}

func (r *recordingReporter) Unit(name string, res diff.Result, index, total int) {
	r.units = append(r.units, fmt.Sprintf("%s:%s", name, res.Outcome))
}

func (r *recordingReporter) PhaseEnd(phase string, s Summary) {
	r.ends = append(r.ends, s)
}

func twinSchemas(tables map[string][]string, pks map[string][]string, list []string) *schema.MockIntrospector {
	return &schema.MockIntrospector{TableColumns: tables, PrimaryKeys: pks, TableList: list}
}

func makeOrchestrator(first, second *source.MockSource, intro *schema.MockIntrospector, rep Reporter) *Orchestrator {
	return &Orchestrator{
		FirstSchema: intro,
		Tables: &diff.TableDiffer{
			First: first, Second: second,
			FirstSchema: intro, SecondSchema: intro,
			ChunkSize: 100,
		},
		Sequences: &diff.SequenceDiffer{First: first, Second: second},
		Reporter:  rep,
	}
}

func rows(values ...string) *source.MockTable {
	t := &source.MockTable{}
	for i, v := range values {
		t.Rows = append(t.Rows, source.MockRow{Key: []any{int64(i + 1)}, Value: v})
	}
	return t
}

func TestRunDataPhase_MixedOutcomes(t *testing.T) {
	first := &source.MockSource{Tables: map[string]*source.MockTable{
		"accounts": rows("a", "b"),
		"empty":    {},
		"orders":   rows("x", "y"),
	}}
	second := &source.MockSource{Tables: map[string]*source.MockTable{
		"accounts": rows("a", "b"),
		"empty":    {},
		"orders":   rows("x", "tampered"),
	}}
	intro := twinSchemas(
		map[string][]string{
			"accounts": {"id", "v"},
			"empty":    {"id", "v"},
			"orders":   {"id", "v"},
		},
		map[string][]string{
			"accounts": {"id"},
			"empty":    {"id"},
			"orders":   {"id"},
		},
		[]string{"orders", "accounts", "empty"}, // deliberately unsorted
	)

	rep := &recordingReporter{}
	o := makeOrchestrator(first, second, intro, rep)

	summary, err := o.RunDataPhase(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Summary{Matched: 1, Inconclusive: 1, Mismatched: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if !summary.Failed() {
		t.Error("phase with a mismatch should fail")
	}

	// Units run in lexicographic order and the mismatch does not abort
	// the remaining units.
	wantUnits := []string{"accounts:match", "empty:inconclusive", "orders:mismatch"}
	if len(rep.units) != len(wantUnits) {
		t.Fatalf("reported units = %v, want %v", rep.units, wantUnits)
	}
	for i := range wantUnits {
		if rep.units[i] != wantUnits[i] {
			t.Errorf("unit %d = %s, want %s", i, rep.units[i], wantUnits[i])
		}
	}

	if len(rep.starts) != 1 || rep.starts[0] != "table:3" {
		t.Errorf("phase start = %v", rep.starts)
	}
	if len(rep.ends) != 1 || rep.ends[0] != want {
		t.Errorf("phase end = %v", rep.ends)
	}

	if len(o.DataOutcomes) != 3 {
		t.Fatalf("expected 3 recorded outcomes, got %d", len(o.DataOutcomes))
	}
	names := []string{o.DataOutcomes[0].Name, o.DataOutcomes[1].Name, o.DataOutcomes[2].Name}
	if !sort.StringsAreSorted(names) {
		t.Errorf("outcomes not in lexicographic order: %v", names)
	}
}

func TestRunSequencePhase(t *testing.T) {
	first := &source.MockSource{Sequences: map[string]int64{
		"a_seq": 5,
		"b_seq": 3,
		"c_seq": 9,
	}}
	second := &source.MockSource{Sequences: map[string]int64{
		"a_seq": 5,
		"b_seq": 8,
		"c_seq": 2,
	}}
	intro := &schema.MockIntrospector{SequenceList: []string{"c_seq", "a_seq", "b_seq"}}

	rep := &recordingReporter{}
	o := makeOrchestrator(first, second, intro, rep)

	summary, err := o.RunSequencePhase(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Summary{Matched: 1, Inconclusive: 1, Mismatched: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}

	wantUnits := []string{"a_seq:match", "b_seq:inconclusive", "c_seq:mismatch"}
	for i := range wantUnits {
		if rep.units[i] != wantUnits[i] {
			t.Errorf("unit %d = %s, want %s", i, rep.units[i], wantUnits[i])
		}
	}
}

func TestRunDataPhase_EnumerationFailure(t *testing.T) {
	intro := &schema.MockIntrospector{ListErr: errors.New("connection reset")}
	rep := &recordingReporter{}
	o := makeOrchestrator(&source.MockSource{}, &source.MockSource{}, intro, rep)

	if _, err := o.RunDataPhase(context.Background()); err == nil {
		t.Error("expected enumeration error")
	}
	if len(rep.starts) != 0 {
		t.Error("no phase should start when enumeration fails")
	}
}

func TestRunDataPhase_Cancelled(t *testing.T) {
	intro := twinSchemas(
		map[string][]string{"t": {"id"}},
		map[string][]string{"t": {"id"}},
		[]string{"t"},
	)
	o := makeOrchestrator(&source.MockSource{}, &source.MockSource{}, intro, &recordingReporter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.RunDataPhase(ctx); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	s = s.Add(diff.Matched("ok"))
	s = s.Add(diff.Mismatched("bad"))
	s = s.Add(diff.Undecided("skip"))
	s = s.Add(diff.Matched("ok"))

	want := Summary{Matched: 2, Inconclusive: 1, Mismatched: 1}
	if s != want {
		t.Errorf("summary = %+v, want %+v", s, want)
	}
}

func TestSummary_Failed(t *testing.T) {
	if (Summary{Matched: 5}).Failed() {
		t.Error("all-match summary should not fail")
	}
	if (Summary{Inconclusive: 3}).Failed() {
		t.Error("inconclusive units are not failures")
	}
	if !(Summary{Matched: 1, Mismatched: 1}).Failed() {
		t.Error("any mismatch fails the phase")
	}
}
