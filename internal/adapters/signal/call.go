package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vchern/peerline/internal/app"
	"github.com/vchern/peerline/internal/domain"
)

func (ctl *Controller) handleInitiateCall(ctx context.Context, id domain.PeerID, data []byte) {
	var p initiateCallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad initiateCall payload")
		return
	}
	if p.TargetID == "" {
		log.Warn().Str("module", "signal").Str("peer", string(id)).Msg("initiateCall without target")
		return
	}
	ctl.Relay.Initiate(ctx, id, domain.PeerID(p.TargetID), p.SignalData, p.SenderName)
}

func (ctl *Controller) handleAnswerCall(ctx context.Context, id domain.PeerID, data []byte) {
	var p answerCallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answerCall payload")
		return
	}
	kind, ok := mediaKind(p.MediaType)
	if !ok {
		kind = domain.MediaBoth
	}
	ctl.Relay.Answer(ctx, id, domain.PeerID(p.To), p.Signal, p.UserName, app.MediaChange{
		Kind:  kind,
		Flags: p.MediaStatus,
	})
}

func (ctl *Controller) handleTerminateCall(ctx context.Context, id domain.PeerID, data []byte) {
	var p terminateCallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad terminateCall payload")
		return
	}
	// The session table, not the client-provided target, decides who
	// gets notified.
	ctl.Relay.Terminate(ctx, id)
}
