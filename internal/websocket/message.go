package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewTimerMessage encodes a timer lifecycle notification
// (e.g. "time_entry.started") with the entry as payload.
func NewTimerMessage(action string, payload interface{}) ([]byte, error) {
	return json.Marshal(Message{Action: action, Payload: payload})
}

// NewErrorMessage encodes an error notification for a client.
func NewErrorMessage(message string) []byte {
	b, _ := json.Marshal(Message{Action: "error", Payload: message})
	return b
}
