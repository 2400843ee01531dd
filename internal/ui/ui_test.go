package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pgdatadiff/pgdatadiff/internal/diff"
	"github.com/pgdatadiff/pgdatadiff/internal/orchestrate"
)

func TestConsoleReporter_Unit(t *testing.T) {
	var buf bytes.Buffer
	r := &ConsoleReporter{Out: &buf}

	r.Unit("users", diff.Matched("data is identical"), 1, 3)
	r.Unit("orders", diff.Undecided("table is empty"), 2, 3)
	r.Unit("items", diff.Mismatched("counts differ: 2 != 3"), 3, 3)

	out := buf.String()
	for _, want := range []string{
		"[1/3] users - data is identical",
		"[2/3] orders - table is empty",
		"[3/3] items - counts differ: 2 != 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleReporter_Banners(t *testing.T) {
	var buf bytes.Buffer
	r := &ConsoleReporter{Out: &buf}

	r.PhaseStart("table", 5)
	r.PhaseEnd("table", orchestrate.Summary{Matched: 4, Mismatched: 1})

	out := buf.String()
	if !strings.Contains(out, "Starting table analysis.") {
		t.Errorf("missing start banner:\n%s", out)
	}
	if !strings.Contains(out, "Table analysis complete. 4 matched, 0 inconclusive, 1 mismatched.") {
		t.Errorf("missing end banner:\n%s", out)
	}
}
