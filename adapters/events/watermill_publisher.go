package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/degenlabs/flipgate/core"
	"github.com/degenlabs/flipgate/ports"
)

// SettledTopic carries confirmed payout settlements.
const SettledTopic = "flipgate.play.settled"

// SettlementEvent is the wire form of a confirmed payout.
type SettlementEvent struct {
	Wallet         string `json:"wallet"`
	AmountLamports uint64 `json:"amount_lamports"`
	TxSignature    string `json:"tx_signature"`
	ConfirmedAt    int64  `json:"confirmed_at"`
}

// WatermillPublisher implements the EventPublisher port using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill-backed publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SettledTopic,
	}
}

// PublishSettlement publishes a settlement event.
func (p *WatermillPublisher) PublishSettlement(ctx context.Context, settlement core.Settlement) error {
	event := SettlementEvent{
		Wallet:         settlement.Wallet,
		AmountLamports: settlement.AmountLamports,
		TxSignature:    settlement.TxSignature,
		ConfirmedAt:    settlement.ConfirmedAt.Unix(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal settlement event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish settlement event: %w", err)
	}
	return nil
}
