package usecase

import "testing"

func TestDocumentBridgeReplacesOncePerValue(t *testing.T) {
	handle := &handleFake{}
	bridge := NewDocumentBridge(handle)

	if !bridge.Sync("<p>a</p>") {
		t.Fatal("expected first sync to replace")
	}
	if bridge.Sync("<p>a</p>") {
		t.Fatal("same value must not replace twice")
	}
	if handle.sets != 1 {
		t.Fatalf("expected one replacement, got %d", handle.sets)
	}
	if !bridge.Sync("<p>b</p>") || handle.sets != 2 {
		t.Fatalf("expected new value to replace")
	}
}

func TestDocumentBridgeClearsWithEmptyValue(t *testing.T) {
	handle := &handleFake{content: "<p>old</p>"}
	bridge := NewDocumentBridge(handle)

	if !bridge.Sync("") || handle.content != "" {
		t.Fatalf("expected editor to be cleared, got %q", handle.content)
	}
	if bridge.Sync("") || handle.sets != 1 {
		t.Fatalf("clearing twice must write once, got %d writes", handle.sets)
	}
}

func TestDocumentBridgeNil(t *testing.T) {
	var bridge *DocumentBridge
	if bridge.Sync("<p>a</p>") {
		t.Fatal("nil bridge must not sync")
	}
}
