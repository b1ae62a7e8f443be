package block

import "testing"

func TestDefaultRegistryStoneOpaque(t *testing.T) {
	r := NewDefaultRegistry()
	d := r.Descriptor(Stone)
	if !d.Opaque {
		t.Fatalf("stone should be opaque")
	}
	if d.DropItem != "cobblestone" || d.DropCount != 1 {
		t.Fatalf("stone should drop 1 cobblestone, got %q x%d", d.DropItem, d.DropCount)
	}
}

func TestDefaultRegistryAirIsNotOpaque(t *testing.T) {
	r := NewDefaultRegistry()
	d := r.Descriptor(Air)
	if d.Opaque {
		t.Fatalf("air must never be opaque")
	}
}

func TestDefaultRegistryUnknownIDIsTotal(t *testing.T) {
	r := NewDefaultRegistry()
	// Descriptor must be a total function over every uint16, per spec.md
	// §4.1's "consumed read-only" contract: it must never panic.
	d := r.Descriptor(ID(NumBlockIDs))
	_ = d
}
