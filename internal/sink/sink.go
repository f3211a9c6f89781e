package sink

import (
	"context"

	"catalog/consolidator/internal/domain"
)

// Sink materializes a consolidated dataset.
type Sink interface {
	Name() string
	Write(ctx context.Context, dataset *domain.Dataset) error
}
