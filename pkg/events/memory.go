package events

import (
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/ghuser/crm/pkg/logger"
)

const memoryOutputBuffer = 256

// NewInMemoryEventBus returns a bus on Watermill's gochannel transport.
// Every subscriber of a topic sees every message, nothing survives a
// restart, and PublishTx returns ErrNoTxSupport.
func NewInMemoryEventBus(log logger.Logger, opts ...Option) *EventBus {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: memoryOutputBuffer,
	}, newWatermillLogger(log))

	q := newBus(log, opts)
	q.publisher = ps
	q.subscriber = ps
	return q
}
