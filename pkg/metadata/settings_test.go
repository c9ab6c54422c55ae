package metadata

import (
	"testing"
	"time"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/stretchr/testify/assert"
)

type fakeSettings struct {
	listeners []func(prev, next types.MetadataConfig)
}

func (f *fakeSettings) OnMetadataChange(fn func(prev, next types.MetadataConfig)) {
	f.listeners = append(f.listeners, fn)
}

func (f *fakeSettings) change(prev, next types.MetadataConfig) {
	for _, fn := range f.listeners {
		fn(prev, next)
	}
}

type recordingTarget struct {
	periods []time.Duration
	clears  int
}

func (r *recordingTarget) Reconfigure(period time.Duration) { r.periods = append(r.periods, period) }
func (r *recordingTarget) ForceClear()                      { r.clears++ }

func TestWatchSettings(t *testing.T) {
	base := types.MetadataConfig{ReloadPeriod: time.Hour, MaxRetries: 3, Region: "us-east-1"}

	tests := []struct {
		name    string
		next    func(types.MetadataConfig) types.MetadataConfig
		periods []time.Duration
		clears  int
	}{
		{
			name:    "period change re-arms",
			next:    func(c types.MetadataConfig) types.MetadataConfig { c.ReloadPeriod = 5 * time.Minute; return c },
			periods: []time.Duration{5 * time.Minute},
		},
		{
			name:   "trigger flip clears",
			next:   func(c types.MetadataConfig) types.MetadataConfig { c.ClearTrigger = !c.ClearTrigger; return c },
			clears: 1,
		},
		{
			name: "client settings only",
			next: func(c types.MetadataConfig) types.MetadataConfig {
				c.MaxRetries = 9
				c.Region = "eu-west-1"
				return c
			},
		},
		{
			name: "period and trigger together",
			next: func(c types.MetadataConfig) types.MetadataConfig {
				c.ReloadPeriod = time.Minute
				c.ClearTrigger = true
				return c
			},
			periods: []time.Duration{time.Minute},
			clears:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSettings{}
			target := &recordingTarget{}
			WatchSettings(src, target)

			src.change(base, tt.next(base))
			assert.Equal(t, tt.periods, target.periods)
			assert.Equal(t, tt.clears, target.clears)
		})
	}
}
