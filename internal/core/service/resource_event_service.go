package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

type resourceEventService struct {
	stream ports.ResourceEventPublisher
	live   ports.LiveBroadcaster
	log    zerolog.Logger
}

// NewResourceEventService returns the processor run by the dispatcher
// workers for every committed resource mutation.
func NewResourceEventService(stream ports.ResourceEventPublisher, live ports.LiveBroadcaster, log zerolog.Logger) ports.ResourceEventProcessor {
	return &resourceEventService{stream: stream, live: live, log: log}
}

// Process broadcasts ev to live clients and appends it to the outbound
// stream. Live delivery does not depend on the stream.
func (s *resourceEventService) Process(ctx context.Context, ev domain.ResourceEvent) error {
	if s.live != nil {
		s.live.Broadcast(ev)
	}

	if s.stream != nil {
		if err := s.stream.PublishResourceEvent(ctx, ev); err != nil {
			return fmt.Errorf("publish %s: %w", ev.Type, err)
		}
	}

	s.log.Debug().
		Str("type", string(ev.Type)).
		Str("resource_id", ev.ResourceID.String()).
		Msg("resource event fanned out")
	return nil
}
