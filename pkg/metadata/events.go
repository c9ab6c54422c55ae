package metadata

import (
	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/rs/zerolog/log"
)

// Subscribe wires cluster-wide cache events to s.
func (s *Service) Subscribe(bus *common.EventBus) {
	bus.On(common.EventMetadataClear, func(e common.Event) {
		log.Info().Str("origin", e.Origin).Msg("clear requested")
		s.ForceClear()
	})

	bus.On(common.EventUserInvalidate, func(e common.Event) {
		userId, _ := e.Data["user_id"].(string)
		if userId == "" {
			return
		}
		s.InvalidateUser(userId)
	})
}
