package diff

import (
	"context"
	"testing"

	"github.com/pgdatadiff/pgdatadiff/internal/source"
)

func TestSequenceCompare(t *testing.T) {
	tests := []struct {
		name        string
		first       int64
		second      int64
		wantOutcome Outcome
		wantReason  string
	}{
		{"identical", 5, 5, Match, "sequences are identical (5)"},
		{"first lags", 3, 5, Inconclusive, "first sequence lags second (3 vs 5)"},
		{"first exceeds", 5, 3, Mismatch, "first sequence exceeds second (5 vs 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &SequenceDiffer{
				First:  &source.MockSource{Sequences: map[string]int64{"users_id_seq": tt.first}},
				Second: &source.MockSource{Sequences: map[string]int64{"users_id_seq": tt.second}},
			}
			r := d.Compare(context.Background(), "users_id_seq")
			if r.Outcome != tt.wantOutcome {
				t.Fatalf("outcome = %s, want %s (%s)", r.Outcome, tt.wantOutcome, r.Reason)
			}
			if r.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", r.Reason, tt.wantReason)
			}
		})
	}
}

func TestSequenceCompare_MissingInSecond(t *testing.T) {
	first := &source.MockSource{Sequences: map[string]int64{"users_id_seq": 5}}
	second := &source.MockSource{Sequences: map[string]int64{}}

	d := &SequenceDiffer{First: first, Second: second}
	r := d.Compare(context.Background(), "users_id_seq")

	if r.Outcome != Mismatch {
		t.Fatalf("expected Mismatch, got %s (%s)", r.Outcome, r.Reason)
	}
	if r.Reason != "sequence does not exist in second source" {
		t.Errorf("unexpected reason: %s", r.Reason)
	}
	if first.ResetCalls != 1 || second.ResetCalls != 1 {
		t.Errorf("expected both sessions reset, got %d and %d", first.ResetCalls, second.ResetCalls)
	}
}

func TestSequenceCompare_Idempotent(t *testing.T) {
	d := &SequenceDiffer{
		First:  &source.MockSource{Sequences: map[string]int64{"s": 9}},
		Second: &source.MockSource{Sequences: map[string]int64{"s": 4}},
	}
	r1 := d.Compare(context.Background(), "s")
	r2 := d.Compare(context.Background(), "s")
	if r1 != r2 {
		t.Errorf("results differ across runs: %+v vs %+v", r1, r2)
	}
}
