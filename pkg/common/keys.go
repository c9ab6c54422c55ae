package common

var (
	// Metadata keys
	metadataEvents     string = "metadata:events"
	metadataClearCount string = "metadata:clear:count"
	metadataClearLast  string = "metadata:clear:last"
)

var Keys = &redisKeys{}

type redisKeys struct{}

func (rk *redisKeys) MetadataEvents() string {
	return metadataEvents
}

func (rk *redisKeys) MetadataClearCount() string {
	return metadataClearCount
}

func (rk *redisKeys) MetadataClearLast() string {
	return metadataClearLast
}
