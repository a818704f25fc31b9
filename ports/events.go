package ports

import (
	"context"

	"github.com/degenlabs/flipgate/core"
)

// EventPublisher notifies other systems about confirmed settlements.
type EventPublisher interface {
	PublishSettlement(ctx context.Context, settlement core.Settlement) error
}
