package store

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"TrendWarden/internal/model"
)

func TestLoad_MissingFileDefaults(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))
	st, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Version != model.StateVersion {
		t.Errorf("version = %d, want %d", st.Version, model.StateVersion)
	}
	if st.Equity != nil || st.Cash != nil {
		t.Error("equity and cash must default to nil")
	}
	if st.Positions == nil || len(st.Positions) != 0 {
		t.Errorf("positions must default to an empty map, got %v", st.Positions)
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path)

	eq := 1234.5
	cash := 1000.0
	in := &model.BotState{
		Version: model.StateVersion,
		Equity:  &eq,
		Cash:    &cash,
		Positions: map[string]model.Position{
			"XBT/EUR": {Qty: 0.5, Entry: 100, Stop: 90, Risked: 2.5},
		},
		Today: model.DayRisk{Date: "2025-06-10", PnL: -3.2, Trades: 2, LossStreak: 1},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out.Equity != eq || *out.Cash != cash {
		t.Errorf("equity/cash lost: %+v", out)
	}
	if out.Positions["XBT/EUR"] != in.Positions["XBT/EUR"] {
		t.Errorf("position lost: %+v", out.Positions)
	}
	if out.Today != in.Today {
		t.Errorf("day risk lost: %+v", out.Today)
	}
}

func TestLoad_ForwardCompatible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	// Unknown fields and missing fields must not crash the load.
	blob := `{"equity": 50, "unknown_field": {"x": 1}, "today": {"date": "2025-06-10"}}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	st, err := New(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if st.Equity == nil || *st.Equity != 50 {
		t.Errorf("equity = %v, want 50", st.Equity)
	}
	if st.Positions == nil {
		t.Error("missing positions must load as an empty map")
	}
	if st.Version != model.StateVersion {
		t.Errorf("missing version must default to %d, got %d", model.StateVersion, st.Version)
	}
}

func TestLoad_CorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(path).Load(); err == nil {
		t.Error("expected error on corrupt state file")
	}
}

func TestSave_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	st := &model.BotState{Version: model.StateVersion, Positions: map[string]model.Position{}}
	if err := New(path).Save(st); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("state file missing after save: %v", err)
	}
}

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json.lock")

	release, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_, err = AcquireLock(path)
	if err == nil {
		t.Fatal("second acquire must fail while held")
	}
	// The error names the holder and the recovery step for a stale file.
	pid := strconv.Itoa(os.Getpid())
	if !strings.Contains(err.Error(), "pid "+pid) {
		t.Errorf("held error %q does not name holder pid %s", err, pid)
	}
	if !strings.Contains(err.Error(), "remove the file") {
		t.Errorf("held error %q does not name the recovery step", err)
	}
	release()
	release2, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	release2()
}
