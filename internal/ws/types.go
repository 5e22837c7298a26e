package ws

import "time"

const (
	// server -> client
	MsgReady = "ready"
	MsgPong  = "pong"

	// client -> server
	MsgPing = "ping"
)

// Message is the envelope for everything written to a client.
type Message struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}
