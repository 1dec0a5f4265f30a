package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEmitAppendsJSONL(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir, false)

	if err := log.Emit(TypeSessionStart, "run-1", StartPayload("full", "ship it", 12)); err != nil {
		t.Fatalf("Emit() = %v", err)
	}
	if err := log.Emit(TypeRoleComplete, "run-1", RolePayload("critic", false, "approve")); err != nil {
		t.Fatalf("Emit() = %v", err)
	}
	if err := log.Emit(TypeAutoComplete, "run-1", RolePayload("executor", true, "")); err != nil {
		t.Fatalf("Emit() = %v", err)
	}

	f, err := os.Open(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var evs []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		evs = append(evs, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(evs) != 3 {
		t.Fatalf("got %d events, want 3", len(evs))
	}
	if evs[0].Type != TypeSessionStart || evs[0].Source != "cv" || evs[0].Session != "run-1" {
		t.Errorf("first event = %+v", evs[0])
	}
	if evs[1].Payload["role"] != "critic" || evs[1].Payload["verdict"] != "approve" {
		t.Errorf("role payload = %v", evs[1].Payload)
	}

	// Watchdog-synthesized completions carry the sentinel flag.
	if evs[2].Payload["sentinel"] != true {
		t.Errorf("auto-complete payload = %v, want sentinel flag", evs[2].Payload)
	}
	if _, ok := evs[1].Payload["sentinel"]; ok {
		t.Error("genuine completion carries a sentinel flag")
	}
}

func TestEmitMissingDirIsBestEffort(t *testing.T) {
	log := NewLog(filepath.Join(t.TempDir(), "does", "not", "exist"), false)
	if err := log.Emit(TypeWatchdogTick, "run-1", nil); err != nil {
		t.Errorf("Emit() into missing dir = %v, want nil", err)
	}
}
