package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/app"
	"github.com/vchern/peerline/internal/domain"
)

func (ctl *Controller) handleChangeMediaStatus(id domain.PeerID, data []byte) {
	var p changeMediaStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad changeMediaStatus payload")
		return
	}
	kind, ok := mediaKind(p.MediaType)
	if !ok {
		log.Warn().Str("module", "signal").Str("peer", string(id)).Str("mediaType", p.MediaType).Msg("unknown media kind")
		return
	}
	if kind == domain.MediaBoth && !p.IsActive.IsPair {
		log.Warn().Str("module", "signal").Str("peer", string(id)).Msg("media kind 'both' requires a flag pair")
		return
	}
	ctl.Relay.ChangeMediaStatus(id, app.MediaChange{Kind: kind, Flags: p.IsActive})
}
