package worker_handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/eudesrpj/salva-plantao-app-sub001/internal/utils/types"
)

// HandleSweepExpired runs one expiry sweep. The sweep itself is
// idempotent, so a retried or overlapping job does no harm.
func (wh *WorkerHandler) HandleSweepExpired(ctx context.Context, raw json.RawMessage) error {
	var payload types.SweepPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid sweep payload: %w", err)
	}

	deleted, appErr := wh.Chat.SweepExpired(ctx)
	if appErr != nil {
		return appErr
	}

	log.Debug().Int64("deleted", deleted).Str("triggered_by", payload.TriggeredBy).Msg("sweep job completed")
	return nil
}
