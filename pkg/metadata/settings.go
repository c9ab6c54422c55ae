package metadata

import (
	"time"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
)

// SettingsSource notifies subscribers after the metadata settings change.
type SettingsSource interface {
	OnMetadataChange(fn func(prev, next types.MetadataConfig))
}

// Reconfigurable is the part of the service driven by settings changes.
type Reconfigurable interface {
	Reconfigure(period time.Duration)
	ForceClear()
}

// WatchSettings re-arms the scheduler when the reload period changes and
// clears the cache whenever the clear trigger flips. The retry count, region
// and endpoint are picked up by the client factory on the next construction.
func WatchSettings(src SettingsSource, target Reconfigurable) {
	src.OnMetadataChange(func(prev, next types.MetadataConfig) {
		if next.ReloadPeriod != prev.ReloadPeriod {
			log.Info().
				Dur("old_period", prev.ReloadPeriod).
				Dur("new_period", next.ReloadPeriod).
				Msg("metadata reload period changed")
			target.Reconfigure(next.ReloadPeriod)
		}
		if next.ClearTrigger != prev.ClearTrigger {
			log.Info().Bool("value", next.ClearTrigger).Msg("metadata clear trigger changed")
			target.ForceClear()
		}
	})
}
