package gateway

import (
	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/beam-cloud/s3meta/pkg/types"
)

// metadataSettings exposes the metadata section of the app config to
// metadata.WatchSettings.
type metadataSettings struct {
	cm *common.ConfigManager[types.AppConfig]
}

func (s metadataSettings) OnMetadataChange(fn func(prev, next types.MetadataConfig)) {
	s.cm.OnChange(func(prev, next types.AppConfig) {
		fn(prev.Metadata, next.Metadata)
	})
}
