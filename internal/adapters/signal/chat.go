package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/domain"
)

func (ctl *Controller) handleSendMessage(id domain.PeerID, data []byte) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad sendMessage payload")
		return
	}
	if p.TargetID == "" || p.Message == "" {
		return
	}
	ctl.Relay.SendChat(id, domain.PeerID(p.TargetID), p.Message, p.SenderName)
}
