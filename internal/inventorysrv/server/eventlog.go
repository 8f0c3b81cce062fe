package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/eventbus"
	"github.com/tansive/tansive-inventory/internal/inventorysrv/ingest"
)

const (
	eventTopics        = "event.*"
	notificationTopics = "notification.*"
)

// StartEventLog writes every work item and notification published on bus
// to the logger of ctx. The returned function unsubscribes and waits for
// the pending messages to be written.
func StartEventLog(ctx context.Context, bus *eventbus.Bus, bufferSize int) func() {
	events, unsubscribeEvents := bus.Subscribe(eventTopics, bufferSize)
	notifications, unsubscribeNotifications := bus.Subscribe(notificationTopics, bufferSize)

	var wg sync.WaitGroup
	consume := func(ch <-chan eventbus.Event) {
		defer wg.Done()
		for e := range ch {
			logBusEvent(log.Ctx(ctx), e)
		}
	}
	wg.Add(2)
	go consume(events)
	go consume(notifications)

	return func() {
		unsubscribeEvents()
		unsubscribeNotifications()
		wg.Wait()
	}
}

func logBusEvent(logger *zerolog.Logger, e eventbus.Event) {
	switch data := e.Data.(type) {
	case ingest.Event:
		ev := logger.Info()
		if data.Kind == ingest.EventIndex {
			ev = logger.Debug().Str("action", string(data.Action)).Str("entity_type", string(data.EntityType))
			if data.EntityUUID != nil {
				ev = ev.Str("entity_uuid", data.EntityUUID.String())
			}
		}
		ev.Str("topic", e.Topic).
			Str("chain_id", data.ChainID.String()).
			Str("project_uuid", data.ProjectUUID.String()).
			Int("components", len(data.Components)).
			Int("on_success", len(data.OnSuccess)).
			Msg("work item")
	case ingest.Notification:
		ev := logger.Info()
		if data.Level == ingest.LevelError {
			ev = logger.Error().Str("cause", data.Cause)
		}
		ev.Str("topic", e.Topic).
			Str("group", string(data.Group)).
			Str("project_uuid", data.ProjectUUID.String()).
			Str("bom_upload_token", data.Token.String()).
			Str("title", data.Title).
			Msg(data.Content)
	default:
		logger.Warn().Str("topic", e.Topic).Msgf("unexpected message %T", e.Data)
	}
}
