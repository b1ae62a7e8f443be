package replay

import (
	"path/filepath"
	"testing"
)

func TestReplayValidatorAcceptsIdenticalSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	logger, err := CreateEventLogger(path)
	if err != nil {
		t.Fatalf("CreateEventLogger: %v", err)
	}
	events := []Event{
		{Kind: EventPlayerPosition, Tick: 100, PlayerID: 1, Transform: Transform{X: 10, Y: 64, Z: 10}},
		{Kind: EventPlayerPosition, Tick: 101, PlayerID: 1, Transform: Transform{X: 11, Y: 64, Z: 10}},
	}
	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	validator, err := LoadReplayValidator(path)
	if err != nil {
		t.Fatalf("LoadReplayValidator: %v", err)
	}
	for _, e := range events {
		validator.ValidateEvent(e)
	}
	validator.Finish()
	if !validator.IsValid() {
		t.Fatalf("identical replay should be valid (S13), errors: %v", validator.Errors())
	}
}

func TestReplayValidatorRejectsShiftedPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	logger, err := CreateEventLogger(path)
	if err != nil {
		t.Fatalf("CreateEventLogger: %v", err)
	}
	recorded := []Event{
		{Kind: EventPlayerPosition, Tick: 100, PlayerID: 1, Transform: Transform{X: 10, Y: 64, Z: 10}},
		{Kind: EventPlayerPosition, Tick: 101, PlayerID: 1, Transform: Transform{X: 11, Y: 64, Z: 10}},
	}
	for _, e := range recorded {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	validator, err := LoadReplayValidator(path)
	if err != nil {
		t.Fatalf("LoadReplayValidator: %v", err)
	}
	replayed := []Event{
		{Kind: EventPlayerPosition, Tick: 100, PlayerID: 1, Transform: Transform{X: 10, Y: 64, Z: 10}},
		// Shifted by 1 on X relative to what was recorded.
		{Kind: EventPlayerPosition, Tick: 101, PlayerID: 1, Transform: Transform{X: 12, Y: 64, Z: 10}},
	}
	for _, e := range replayed {
		validator.ValidateEvent(e)
	}
	validator.Finish()
	if validator.IsValid() {
		t.Fatalf("a shifted position must fail validation (S13)")
	}
}

func TestInputLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.jsonl")
	logger, err := CreateInputLogger(path)
	if err != nil {
		t.Fatalf("CreateInputLogger: %v", err)
	}
	want := InputBundle{MoveX: 1, MoveZ: -1, Jump: true, Sequence: 7}
	if err := logger.Log(42, 5, want); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	player, err := LoadReplayPlayer(path)
	if err != nil {
		t.Fatalf("LoadReplayPlayer: %v", err)
	}
	if player.EntryCount() != 1 {
		t.Fatalf("EntryCount() = %d, want 1", player.EntryCount())
	}
	entries := player.InputsForTick(42)
	if len(entries) != 1 {
		t.Fatalf("InputsForTick(42) returned %d entries, want 1", len(entries))
	}
	if entries[0].PlayerID != 5 || entries[0].Input != want {
		t.Fatalf("round-tripped entry = %+v, want player 5 / %+v", entries[0], want)
	}
	if !player.IsFinished() {
		t.Fatalf("player should be finished after draining its only entry")
	}
}
