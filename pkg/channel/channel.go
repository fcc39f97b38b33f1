package channel

import (
	"context"

	"earthquery/pkg/bus"
)

// Deliver hands one raw inbound directive message to the gateway pipeline.
type Deliver func(context.Context, bus.InboundMessage) error

// Adapter bridges one external transport (for example Redis Streams) into
// earthquery.
type Adapter interface {
	Name() string
	Run(context.Context, Deliver) error
}
