package sweeper

import (
	"context"
)

// Sweeper is a background pass over stored market state that runs beside the
// raw log consumer
type Sweeper interface {
	// Start runs passes until ctx is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop ends the loop and waits for the running pass to return
	Stop(ctx context.Context) error

	// Name identifies the sweeper in logs
	Name() string
}
