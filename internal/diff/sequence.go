package diff

import (
	"context"

	"github.com/pgdatadiff/pgdatadiff/internal/source"
)

// SequenceDiffer compares the current value of one named sequence
// between two sources.
type SequenceDiffer struct {
	First  source.Source
	Second source.Source
}

// Compare reads last_value from both sources. A target sequence running
// ahead of the source can be benign (migration artifacts), so lag is
// reported as Inconclusive rather than Mismatch.
func (d *SequenceDiffer) Compare(ctx context.Context, sequence string) Result {
	firstValue, err := d.First.SequenceValue(ctx, sequence)
	if err != nil {
		d.reset(ctx)
		return Mismatched("reading sequence from first source failed: %v", err)
	}
	secondValue, err := d.Second.SequenceValue(ctx, sequence)
	if err != nil {
		d.reset(ctx)
		return Mismatched("sequence does not exist in second source")
	}

	switch {
	case firstValue < secondValue:
		return Undecided("first sequence lags second (%d vs %d)", firstValue, secondValue)
	case firstValue > secondValue:
		return Mismatched("first sequence exceeds second (%d vs %d)", firstValue, secondValue)
	default:
		return Matched("sequences are identical (%d)", firstValue)
	}
}

// reset clears dirty transaction state on both sessions after a failed
// read.
func (d *SequenceDiffer) reset(ctx context.Context) {
	_ = d.First.Reset(ctx)
	_ = d.Second.Reset(ctx)
}
