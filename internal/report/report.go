package report

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgdatadiff/pgdatadiff/internal/diff"
	"github.com/pgdatadiff/pgdatadiff/internal/orchestrate"
)

// DiffReport is the machine-readable record of one comparison run.
type DiffReport struct {
	Version     string          `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	First       EndpointSummary `json:"first"`
	Second      EndpointSummary `json:"second"`
	ChunkSize   int             `json:"chunk_size"`
	CountOnly   bool            `json:"count_only"`
	Data        *PhaseResult    `json:"data,omitempty"`
	Sequences   *PhaseResult    `json:"sequences,omitempty"`
	Overall     string          `json:"overall"` // PASS, FAIL
	ExitCode    int             `json:"exit_code"`
}

// EndpointSummary describes one compared database, with credentials
// redacted.
type EndpointSummary struct {
	ConnString string `json:"conn_string"`
	Schema     string `json:"schema"`
}

// PhaseResult holds one executed phase's units and aggregate.
type PhaseResult struct {
	Summary orchestrate.Summary       `json:"summary"`
	Units   []orchestrate.UnitOutcome `json:"units"`
}

// Generate assembles a report from the executed phases. A nil phase
// summary means the phase was skipped.
func Generate(firstConn, secondConn, schema string, chunkSize int, countOnly bool, data, sequences *PhaseResult) *DiffReport {
	failed := (data != nil && data.Summary.Failed()) ||
		(sequences != nil && sequences.Summary.Failed())

	overall := "PASS"
	exitCode := 0
	if failed {
		overall = "FAIL"
		exitCode = 1
	}

	return &DiffReport{
		Version:     "1",
		GeneratedAt: time.Now(),
		First:       EndpointSummary{ConnString: Redact(firstConn), Schema: schema},
		Second:      EndpointSummary{ConnString: Redact(secondConn), Schema: schema},
		ChunkSize:   chunkSize,
		CountOnly:   countOnly,
		Data:        data,
		Sequences:   sequences,
		Overall:     overall,
		ExitCode:    exitCode,
	}
}

// Redact strips the password from a connection string.
func Redact(conn string) string {
	u, err := url.Parse(conn)
	if err != nil || u.User == nil {
		return conn
	}
	if _, has := u.User.Password(); has {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}

// WriteJSON writes the report as JSON.
func WriteJSON(r *DiffReport, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON reads a report from a JSON file.
func ReadJSON(path string) (*DiffReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	r := &DiffReport{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return r, nil
}

// FormatText renders the report as human-readable text.
func FormatText(r *DiffReport) string {
	var b strings.Builder

	b.WriteString("=== pgdatadiff Report ===\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	b.WriteString(fmt.Sprintf("First:  %s (schema %s)\n", r.First.ConnString, r.First.Schema))
	b.WriteString(fmt.Sprintf("Second: %s (schema %s)\n", r.Second.ConnString, r.Second.Schema))
	b.WriteString(fmt.Sprintf("Chunk size: %d", r.ChunkSize))
	if r.CountOnly {
		b.WriteString(" (count-only)")
	}
	b.WriteString("\n\n")

	writePhase(&b, "Tables", r.Data)
	writePhase(&b, "Sequences", r.Sequences)

	b.WriteString(fmt.Sprintf("Overall: %s\n", r.Overall))
	return b.String()
}

func writePhase(b *strings.Builder, title string, p *PhaseResult) {
	if p == nil {
		b.WriteString(fmt.Sprintf("%s: skipped\n\n", title))
		return
	}
	b.WriteString(fmt.Sprintf("%s: %d matched, %d inconclusive, %d mismatched\n",
		title, p.Summary.Matched, p.Summary.Inconclusive, p.Summary.Mismatched))
	for _, u := range p.Units {
		marker := " "
		switch u.Result.Outcome {
		case diff.Mismatch:
			marker = "x"
		case diff.Inconclusive:
			marker = "?"
		}
		b.WriteString(fmt.Sprintf("  [%s] %s - %s\n", marker, u.Name, u.Result.Reason))
	}
	b.WriteString("\n")
}
