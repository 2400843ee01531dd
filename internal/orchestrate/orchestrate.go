package orchestrate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pgdatadiff/pgdatadiff/internal/diff"
	"github.com/pgdatadiff/pgdatadiff/internal/logging"
	"github.com/pgdatadiff/pgdatadiff/internal/schema"
)

// Reporter receives per-unit outcomes and phase banners. The core never
// formats colored or animated output itself.
type Reporter interface {
	PhaseStart(phase string, units int)
	Unit(name string, r diff.Result, index, total int)
	PhaseEnd(phase string, s Summary)
}

// UnitOutcome records one compared unit for reporting.
type UnitOutcome struct {
	Name   string      `json:"name"`
	Result diff.Result `json:"result"`
}

// Summary is the immutable aggregate of one phase. Units are folded in
// with Add; a single unit's failure never aborts the phase.
type Summary struct {
	Matched      int `json:"matched"`
	Inconclusive int `json:"inconclusive"`
	Mismatched   int `json:"mismatched"`
}

// Add folds one result into the summary, returning a new value.
func (s Summary) Add(r diff.Result) Summary {
	switch r.Outcome {
	case diff.Match:
		s.Matched++
	case diff.Inconclusive:
		s.Inconclusive++
	case diff.Mismatch:
		s.Mismatched++
	}
	return s
}

// Failed reports whether the phase should fail the process.
func (s Summary) Failed() bool {
	return s.Mismatched > 0
}

// Orchestrator enumerates comparison units from the first source's
// catalog and drives the two engines over them, one unit at a time.
type Orchestrator struct {
	FirstSchema schema.Introspector
	Tables      *diff.TableDiffer
	Sequences   *diff.SequenceDiffer
	Reporter    Reporter
	Log         *slog.Logger

	// DataOutcomes and SequenceOutcomes hold the per-unit results of the
	// executed phases, in run order, for report generation.
	DataOutcomes     []UnitOutcome
	SequenceOutcomes []UnitOutcome
}

// RunDataPhase compares every table, lexicographically ordered for a
// deterministic, reproducible run.
func (o *Orchestrator) RunDataPhase(ctx context.Context) (Summary, error) {
	tables, err := o.FirstSchema.ListTables(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("enumerating tables: %w", err)
	}
	sort.Strings(tables)

	summary, outcomes, err := o.runPhase(ctx, "table", tables, func(ctx context.Context, name string) diff.Result {
		return o.Tables.Compare(ctx, name)
	})
	o.DataOutcomes = outcomes
	return summary, err
}

// RunSequencePhase compares every sequence in lexicographic order.
func (o *Orchestrator) RunSequencePhase(ctx context.Context) (Summary, error) {
	sequences, err := o.FirstSchema.ListSequences(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("enumerating sequences: %w", err)
	}
	sort.Strings(sequences)

	summary, outcomes, err := o.runPhase(ctx, "sequence", sequences, func(ctx context.Context, name string) diff.Result {
		return o.Sequences.Compare(ctx, name)
	})
	o.SequenceOutcomes = outcomes
	return summary, err
}

func (o *Orchestrator) runPhase(ctx context.Context, phase string, units []string, compare func(context.Context, string) diff.Result) (Summary, []UnitOutcome, error) {
	log := o.log()
	o.Reporter.PhaseStart(phase, len(units))

	var summary Summary
	outcomes := make([]UnitOutcome, 0, len(units))
	for i, name := range units {
		if err := ctx.Err(); err != nil {
			return summary, outcomes, fmt.Errorf("%s phase cancelled: %w", phase, err)
		}

		r := compare(ctx, name)
		summary = summary.Add(r)
		outcomes = append(outcomes, UnitOutcome{Name: name, Result: r})
		o.Reporter.Unit(name, r, i+1, len(units))
		log.Debug("unit compared", "phase", phase, "unit", name, "outcome", r.Outcome.String(), "reason", r.Reason)
	}

	o.Reporter.PhaseEnd(phase, summary)
	log.Info("phase complete", "phase", phase,
		"matched", summary.Matched, "inconclusive", summary.Inconclusive, "mismatched", summary.Mismatched)
	return summary, outcomes, nil
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return logging.Discard()
}
