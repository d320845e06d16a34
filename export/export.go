package export

import (
	"context"

	"chanmask/mask"
)

type Exporter interface {
	// Write exports the mask results it reads from the channel until the
	// channel is closed.
	Write(ctx context.Context, results <-chan mask.Result) error
}
