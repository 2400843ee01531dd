package wizard

import (
	"strings"
	"testing"

	"github.com/pgdatadiff/pgdatadiff/internal/config"
)

func TestNew_PrefillsFromBase(t *testing.T) {
	base := &config.Config{
		Version:   config.CurrentVersion,
		FirstDB:   "postgres://a@localhost/one",
		SecondDB:  "postgres://a@localhost/two",
		ChunkSize: 250,
	}
	m := New(base)

	if got := m.inputs[fieldFirstDB].Value(); got != base.FirstDB {
		t.Errorf("first db prefill = %s", got)
	}
	if got := m.inputs[fieldSecondDB].Value(); got != base.SecondDB {
		t.Errorf("second db prefill = %s", got)
	}
	if got := m.inputs[fieldChunkSize].Value(); got != "250" {
		t.Errorf("chunk size prefill = %s", got)
	}
}

func TestBuildConfig(t *testing.T) {
	m := New(nil)
	m.inputs[fieldFirstDB].SetValue("postgres://a@localhost/one")
	m.inputs[fieldSecondDB].SetValue("postgres://a@localhost/two")
	m.inputs[fieldChunkSize].SetValue("500")

	cfg, err := m.buildConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != 500 {
		t.Errorf("chunk size = %d", cfg.ChunkSize)
	}
	if cfg.Schema != "public" {
		t.Errorf("schema default = %s", cfg.Schema)
	}
}

func TestBuildConfig_DefaultChunkSize(t *testing.T) {
	m := New(nil)
	m.inputs[fieldFirstDB].SetValue("postgres://a@localhost/one")
	m.inputs[fieldSecondDB].SetValue("postgres://a@localhost/two")

	cfg, err := m.buildConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChunkSize != config.DefaultChunkSize {
		t.Errorf("chunk size = %d, want default", cfg.ChunkSize)
	}
}

func TestBuildConfig_Rejections(t *testing.T) {
	m := New(nil)
	m.inputs[fieldFirstDB].SetValue("mysql://a@localhost/one")
	m.inputs[fieldSecondDB].SetValue("postgres://a@localhost/two")
	if _, err := m.buildConfig(); err == nil {
		t.Error("non-postgres scheme should be rejected")
	}

	m = New(nil)
	m.inputs[fieldFirstDB].SetValue("postgres://a@localhost/one")
	m.inputs[fieldSecondDB].SetValue("postgres://a@localhost/two")
	m.inputs[fieldChunkSize].SetValue("-1")
	if _, err := m.buildConfig(); err == nil {
		t.Error("negative chunk size should be rejected")
	}

	m = New(nil)
	m.inputs[fieldChunkSize].SetValue("abc")
	if _, err := m.buildConfig(); err == nil {
		t.Error("non-numeric chunk size should be rejected")
	}
}

func TestView_ShowsFields(t *testing.T) {
	m := New(nil)
	view := m.View()
	for _, want := range []string{"First DB", "Second DB", "Chunk size"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
