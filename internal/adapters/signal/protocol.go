package signal

import (
	"encoding/json"

	"github.com/vchern/peerline/internal/app"
	"github.com/vchern/peerline/internal/domain"
)

// Client-to-relay payloads. Field names are the wire contract the
// browser client emits; the signal blobs stay opaque end to end.

type initiateCallPayload struct {
	Type       string          `json:"type"`
	TargetID   string          `json:"targetId"`
	SignalData json.RawMessage `json:"signalData"`
	SenderName string          `json:"senderName"`
}

type answerCallPayload struct {
	Type        string          `json:"type"`
	Signal      json.RawMessage `json:"signal"`
	To          string          `json:"to"`
	UserName    string          `json:"userName"`
	MediaType   string          `json:"mediaType"`
	MediaStatus app.MediaFlags  `json:"mediaStatus"`
}

type terminateCallPayload struct {
	Type     string `json:"type"`
	TargetID string `json:"targetId"`
}

type changeMediaStatusPayload struct {
	Type      string         `json:"type"`
	MediaType string         `json:"mediaType"`
	IsActive  app.MediaFlags `json:"isActive"`
}

type sendMessagePayload struct {
	Type       string `json:"type"`
	TargetID   string `json:"targetId"`
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
}

func mediaKind(s string) (domain.MediaKind, bool) {
	switch domain.MediaKind(s) {
	case domain.MediaAudio, domain.MediaVideo, domain.MediaBoth:
		return domain.MediaKind(s), true
	}
	return "", false
}
