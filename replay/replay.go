// Package replay implements the deterministic replay harness, component H
// of the simulation core (spec.md §4.7): JSONL input/event logs plus a
// strict structural-equality validator.
//
// Ported from original_source/crates/net/src/replay.rs: the
// InputLogger/EventLogger write-one-JSON-object-per-line shape, the
// ReplayPlayer's load-once-then-index-forward playback (next_input,
// inputs_for_tick, reset), and the ReplayValidator's
// validate_event/finish/is_valid three-call protocol are all reproduced.
// JSON encoding uses the standard library's encoding/json — no JSON
// library appears in the retrieval pack's go.mod files (JSON here plays
// the same "obvious stdlib choice" role encoding/json always does in Go,
// the same way serde_json is the obvious choice in the original), so this
// is stdlib used for its natural purpose rather than standing in for a
// dropped dependency.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
)

// ErrReplayParse is returned when a JSONL line cannot be parsed as an entry
// (spec.md §7 "ReplayParseError").
var ErrReplayParse = errors.New("replay: malformed log line")

// InputBundle is the canonical per-tick player input record (spec.md §4.7:
// "movement axes, jump/sprint flags, yaw/pitch, block actions, inventory
// actions, last-acked tick, sequence").
type InputBundle struct {
	MoveX         float64 `json:"move_x,omitempty"`
	MoveZ         float64 `json:"move_z,omitempty"`
	Jump          bool    `json:"jump,omitempty"`
	Sprint        bool    `json:"sprint,omitempty"`
	Yaw           float64 `json:"yaw,omitempty"`
	Pitch         float64 `json:"pitch,omitempty"`
	BlockAction   string  `json:"block_action,omitempty"`
	InventoryAction string `json:"inventory_action,omitempty"`
	LastAckedTick uint64  `json:"last_acked_tick"`
	Sequence      uint64  `json:"sequence"`
}

// InputLogEntry is one recorded line of the input log.
type InputLogEntry struct {
	Tick     uint64      `json:"tick"`
	PlayerID uint64      `json:"player_id"`
	Input    InputBundle `json:"input"`
}

// Transform is a fixed-point world-space pose (spec.md §4.7: "x,y,z,yaw,
// pitch plus a dimension tag").
type Transform struct {
	X         int64  `json:"x"`
	Y         int64  `json:"y"`
	Z         int64  `json:"z"`
	Yaw       int32  `json:"yaw"`
	Pitch     int32  `json:"pitch"`
	Dimension string `json:"dimension"`
}

// EventKind discriminates the NetworkEvent union (spec.md §4.7).
type EventKind string

const (
	EventPlayerPosition EventKind = "PlayerPosition"
	EventEntitySpawn    EventKind = "EntitySpawn"
	EventEntityUpdate   EventKind = "EntityUpdate"
	EventEntityDespawn  EventKind = "EntityDespawn"
)

// Event is a single observable network event, tagged by Kind. Fields not
// relevant to a given Kind are left zero — this mirrors the original's
// tagged-enum variants flattened into one Go struct, since Go has no sum
// type; structural equality (used by the validator) compares the whole
// struct, so irrelevant zero fields never cause false mismatches between
// two events of the same Kind.
type Event struct {
	Kind       EventKind `json:"type"`
	Tick       uint64    `json:"tick"`
	PlayerID   uint64    `json:"player_id,omitempty"`
	EntityID   uint64    `json:"entity_id,omitempty"`
	EntityType string    `json:"entity_type,omitempty"`
	Transform  Transform `json:"transform"`
}

// Tick_ returns the event's recorded tick.
func (e Event) Tick_() uint64 { return e.Tick }

// InputLogger appends InputLogEntry records as JSONL.
type InputLogger struct {
	w       *bufio.Writer
	f       *os.File
	written uint64
}

// CreateInputLogger creates (truncating) the input log at path.
func CreateInputLogger(path string) (*InputLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: create input log: %w", err)
	}
	return &InputLogger{w: bufio.NewWriter(f), f: f}, nil
}

// Log appends one input entry.
func (l *InputLogger) Log(tick uint64, playerID uint64, input InputBundle) error {
	entry := InputLogEntry{Tick: tick, PlayerID: playerID, Input: input}
	if err := json.NewEncoder(l.w).Encode(entry); err != nil {
		return fmt.Errorf("replay: write input entry: %w", err)
	}
	l.written++
	return nil
}

// Flush flushes buffered writes to disk.
func (l *InputLogger) Flush() error { return l.w.Flush() }

// Close flushes and closes the underlying file.
func (l *InputLogger) Close() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.f.Close()
}

// EntriesWritten returns the number of entries logged so far.
func (l *InputLogger) EntriesWritten() uint64 { return l.written }

// EventLogger appends Event records as JSONL.
type EventLogger struct {
	w       *bufio.Writer
	f       *os.File
	written uint64
}

// CreateEventLogger creates (truncating) the event log at path.
func CreateEventLogger(path string) (*EventLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("replay: create event log: %w", err)
	}
	return &EventLogger{w: bufio.NewWriter(f), f: f}, nil
}

// Log appends one event.
func (l *EventLogger) Log(event Event) error {
	if err := json.NewEncoder(l.w).Encode(event); err != nil {
		return fmt.Errorf("replay: write event: %w", err)
	}
	l.written++
	return nil
}

// Flush flushes buffered writes to disk.
func (l *EventLogger) Flush() error { return l.w.Flush() }

// Close flushes and closes the underlying file.
func (l *EventLogger) Close() error {
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.f.Close()
}

// EventsWritten returns the number of events logged so far.
func (l *EventLogger) EventsWritten() uint64 { return l.written }

func readJSONLLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay: open log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		trimmed := trimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if err := fn(trimmed); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrReplayParse, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("replay: read log: %w", err)
	}
	return nil
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

// ReplayPlayer loads an input log once and replays it tick-by-tick (spec.md
// §4.7 "Player").
type ReplayPlayer struct {
	entries []InputLogEntry
	index   int
}

// LoadReplayPlayer loads a JSONL input log from path.
func LoadReplayPlayer(path string) (*ReplayPlayer, error) {
	var entries []InputLogEntry
	err := readJSONLLines(path, func(line []byte) error {
		var entry InputLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ReplayPlayer{entries: entries}, nil
}

// NextInput returns the next input if it is recorded for exactly tick,
// advancing the cursor; otherwise it returns (zero, false) without
// advancing (spec.md §4.7: "entries for past ticks are skipped silently"
// is handled by InputsForTick, not this method, which only peeks the
// immediate next entry).
func (p *ReplayPlayer) NextInput(tick uint64) (InputLogEntry, bool) {
	if p.index >= len(p.entries) {
		return InputLogEntry{}, false
	}
	entry := p.entries[p.index]
	if entry.Tick != tick {
		return InputLogEntry{}, false
	}
	p.index++
	return entry, true
}

// InputsForTick returns every entry recorded for tick, skipping (and
// consuming) any stale past-tick entries first.
func (p *ReplayPlayer) InputsForTick(tick uint64) []InputLogEntry {
	var inputs []InputLogEntry
	for p.index < len(p.entries) {
		entry := p.entries[p.index]
		switch {
		case entry.Tick == tick:
			inputs = append(inputs, entry)
			p.index++
		case entry.Tick > tick:
			return inputs
		default:
			p.index++
		}
	}
	return inputs
}

// Reset rewinds playback to the beginning.
func (p *ReplayPlayer) Reset() { p.index = 0 }

// EntryCount returns the total number of loaded entries.
func (p *ReplayPlayer) EntryCount() int { return len(p.entries) }

// CurrentPosition returns the current playback cursor.
func (p *ReplayPlayer) CurrentPosition() int { return p.index }

// IsFinished reports whether every entry has been consumed.
func (p *ReplayPlayer) IsFinished() bool { return p.index >= len(p.entries) }

// ValidationError records one mismatch found during replay validation.
type ValidationError struct {
	Tick     uint64
	Message  string
	Expected *Event
	Actual   *Event
}

// ReplayValidator compares an observed event stream against a recorded one
// by strict structural equality (spec.md §4.7 "Validator").
type ReplayValidator struct {
	expected []Event
	index    int
	errors   []ValidationError
}

// LoadReplayValidator loads the expected event stream from a JSONL file.
func LoadReplayValidator(path string) (*ReplayValidator, error) {
	var events []Event
	err := readJSONLLines(path, func(line []byte) error {
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return err
		}
		events = append(events, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ReplayValidator{expected: events}, nil
}

// ValidateEvent compares actual against the next expected event by
// structural equality of the whole record (spec.md: "no floating-point
// slack" — Transform fields are integers, so reflect.DeepEqual is exact).
func (v *ReplayValidator) ValidateEvent(actual Event) {
	if v.index >= len(v.expected) {
		v.errors = append(v.errors, ValidationError{
			Tick:    actual.Tick,
			Message: "unexpected event (no more expected events)",
			Actual:  &actual,
		})
		return
	}
	expected := v.expected[v.index]
	if !reflect.DeepEqual(expected, actual) {
		v.errors = append(v.errors, ValidationError{
			Tick:     actual.Tick,
			Message:  "event mismatch",
			Expected: &expected,
			Actual:   &actual,
		})
	}
	v.index++
}

// Finish flags any trailing expected events that were never observed as
// missing.
func (v *ReplayValidator) Finish() {
	for v.index < len(v.expected) {
		expected := v.expected[v.index]
		v.errors = append(v.errors, ValidationError{
			Tick:     expected.Tick,
			Message:  "missing event (expected but not replayed)",
			Expected: &expected,
		})
		v.index++
	}
}

// Errors returns every validation error found so far.
func (v *ReplayValidator) Errors() []ValidationError { return v.errors }

// IsValid reports whether validation found zero errors.
func (v *ReplayValidator) IsValid() bool { return len(v.errors) == 0 }

// EventsValidated returns the number of expected events matched so far.
func (v *ReplayValidator) EventsValidated() int { return v.index }
