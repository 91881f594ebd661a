package docstore

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const topicPrefix = "docstore."

// changeFeed fans out "collection changed" events to live queries
type changeFeed struct {
	pubsub *gochannel.GoChannel
}

func newChangeFeed(log *slog.Logger) *changeFeed {
	var wlog watermill.LoggerAdapter = watermill.NopLogger{}
	if log != nil {
		wlog = watermill.NewSlogLogger(log)
	}
	return &changeFeed{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wlog),
	}
}

func (f *changeFeed) publish(collection string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(collection))
	return f.pubsub.Publish(topicPrefix+collection, msg)
}

func (f *changeFeed) subscribe(ctx context.Context, collection string) (<-chan *message.Message, error) {
	return f.pubsub.Subscribe(ctx, topicPrefix+collection)
}

func (f *changeFeed) close() error {
	return f.pubsub.Close()
}
