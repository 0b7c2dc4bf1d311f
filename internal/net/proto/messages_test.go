package proto

import (
	"encoding/json"
	"testing"
)

func TestEncodeStateStampsEnvelope(t *testing.T) {
	data, err := EncodeState(StateMessage{
		Tick:   3,
		Width:  100,
		Height: 200,
		Boxes:  []BoxState{{ID: "box-1", X: 1, Y: 2, Width: 3, Height: 4, Stationary: true}},
	})
	if err != nil {
		t.Fatalf("EncodeState returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal state message: %v", err)
	}
	if got := decoded["ver"]; got != float64(Version) {
		t.Fatalf("ver: got %v want %d", got, Version)
	}
	if got := decoded["type"]; got != TypeState {
		t.Fatalf("type: got %v want %q", got, TypeState)
	}
	boxes, ok := decoded["boxes"].([]any)
	if !ok || len(boxes) != 1 {
		t.Fatalf("boxes: got %v want one entry", decoded["boxes"])
	}
}

func TestEncodeTickAlwaysCarriesPairsArray(t *testing.T) {
	data, err := EncodeTick(TickMessage{Tick: 9})
	if err != nil {
		t.Fatalf("EncodeTick returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal tick message: %v", err)
	}
	if got := decoded["type"]; got != TypeTick {
		t.Fatalf("type: got %v want %q", got, TypeTick)
	}
	if _, ok := decoded["pairs"].([]any); !ok {
		t.Fatalf("pairs must encode as an array even when empty, got %v", decoded["pairs"])
	}
}
