package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/degenlabs/flipgate/core"
)

func TestPublishSettlement(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, SettledTopic)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub)

	confirmedAt := time.Now()
	err = publisher.PublishSettlement(ctx, core.Settlement{
		Wallet:         "wallet-abc",
		AmountLamports: 10_000_000,
		TxSignature:    "tx-sig",
		ConfirmedAt:    confirmedAt,
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		var event SettlementEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "wallet-abc", event.Wallet)
		assert.Equal(t, uint64(10_000_000), event.AmountLamports)
		assert.Equal(t, "tx-sig", event.TxSignature)
		assert.Equal(t, confirmedAt.Unix(), event.ConfirmedAt)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("settlement event was not delivered")
	}
}
