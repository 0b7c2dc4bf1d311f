package proto

import "encoding/json"

const (
	// Version tracks the wire-protocol revision expected by clients.
	Version = 1

	// Outbound message type identifiers.
	TypeState = "state"
	TypeTick  = "tick"
)

// BoxState is the wire form of one box.
type BoxState struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Stationary bool    `json:"stationary,omitempty"`
}

// PairState is one colliding pair, referenced by box IDs.
type PairState struct {
	A string `json:"a"`
	B string `json:"b"`
}

// StateMessage is the full snapshot sent once per subscription.
type StateMessage struct {
	Ver    int        `json:"ver"`
	Type   string     `json:"type"`
	Tick   uint64     `json:"tick"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Boxes  []BoxState `json:"boxes"`
}

// TickMessage is the per-tick diff: positions of the boxes that drift, plus
// the colliding pairs found this tick.
type TickMessage struct {
	Ver      int         `json:"ver"`
	Type     string      `json:"type"`
	Tick     uint64      `json:"tick"`
	Boxes    []BoxState  `json:"boxes"`
	Pairs    []PairState `json:"pairs"`
	CacheHit bool        `json:"cacheHit"`
}

// EncodeState renders a state snapshot, stamping version and type.
func EncodeState(msg StateMessage) ([]byte, error) {
	msg.Ver = Version
	msg.Type = TypeState
	return json.Marshal(msg)
}

// EncodeTick renders a tick diff, stamping version and type.
func EncodeTick(msg TickMessage) ([]byte, error) {
	msg.Ver = Version
	msg.Type = TypeTick
	if msg.Pairs == nil {
		msg.Pairs = []PairState{}
	}
	return json.Marshal(msg)
}
