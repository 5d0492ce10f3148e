// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxPeerNameLen = 36

var (
	ErrNameTooLong = errors.New("display name too long")
	ErrNameEmpty   = errors.New("display name empty")
)

// PeerID is the relay-assigned routing key for one live connection.
// It is valid only while that connection is open and is never reused
// for a concurrently-live peer.
type PeerID string

// Peer is a connected participant as the relay knows it: an identifier
// plus the display name the client last announced about itself.
type Peer struct {
	ID   PeerID `json:"id"`
	Name string `json:"name"`
}

func (p *Peer) SetName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxPeerNameLen {
		return ErrNameTooLong
	}
	p.Name = name
	return nil
}
