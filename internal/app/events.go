package app

import "encoding/json"

// Relay-to-client event types. The names are the wire contract the
// browser client listens on.
const (
	EventSocketID           = "socketId"
	EventIncomingCall       = "incomingCall"
	EventCallAnswered       = "callAnswered"
	EventCallTerminated     = "callTerminated"
	EventMediaStatusChanged = "mediaStatusChanged"
	EventReceiveMessage     = "receiveMessage"
)

// MediaFlags is the wire shape of "isActive": a single bool for an
// audio or video toggle, an [audio, video] pair for "both". Both forms
// survive a round trip unchanged so recipients always see a combined
// update as one event.
type MediaFlags struct {
	Single bool
	Pair   [2]bool
	IsPair bool
}

func (m *MediaFlags) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &m.Pair); err != nil {
			return err
		}
		m.IsPair = true
		return nil
	}
	return json.Unmarshal(b, &m.Single)
}

func (m MediaFlags) MarshalJSON() ([]byte, error) {
	if m.IsPair {
		return json.Marshal(m.Pair)
	}
	return json.Marshal(m.Single)
}

type socketIDEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type incomingCallEvent struct {
	Type   string          `json:"type"`
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
	Name   string          `json:"name"`
}

type callAnsweredEvent struct {
	Type     string          `json:"type"`
	Signal   json.RawMessage `json:"signal"`
	UserName string          `json:"userName"`
}

type callTerminatedEvent struct {
	Type string `json:"type"`
}

type mediaStatusChangedEvent struct {
	Type      string     `json:"type"`
	MediaType string     `json:"mediaType"`
	IsActive  MediaFlags `json:"isActive"`
}

type receiveMessageEvent struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
}
