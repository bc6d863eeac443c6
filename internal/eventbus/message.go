package eventbus

import "time"

// Message is one outbound event frame, written to a subscriber's websocket
// as JSON.
type Message struct {
	Type      string      `json:"type"`
	Room      string      `json:"room"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// batchDroppable is the event type shed first when a subscriber's queue
// backs up — a client that missed a progress batch just re-fetches the
// snapshot, so it is safe to drop.
const batchDroppable = "construction-progress-batch"
