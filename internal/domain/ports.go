package domain

import "context"

// ReadingPublisher forwards recorded water levels to downstream consumers.
type ReadingPublisher interface {
	Publish(ctx context.Context, records ...WaterLevelRecord) error
}
