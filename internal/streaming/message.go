package streaming

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

type MessageType string

const MessageTypeVerdict MessageType = "verdict"

// Message is the wire envelope for verdict events on the settlement topic.
// Only terminal verdicts are published; pending claims resolve themselves.
type Message struct {
	Type          MessageType `json:"type"`
	TraceID       string      `json:"trace_id,omitempty"`
	OrderID       string      `json:"order_id,omitempty"`
	TxHash        string      `json:"tx_hash"`
	BuyerRef      string      `json:"buyer_ref,omitempty"`
	Outcome       string      `json:"outcome"`
	Reason        string      `json:"reason,omitempty"`
	Amount        string      `json:"amount,omitempty"`
	Confirmations uint64      `json:"confirmations,omitempty"`
	ChainTime     int64       `json:"chain_time,omitempty"`
	EmittedAt     int64       `json:"emitted_at"`
}

func Encode(msg Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, errors.New("message type is required")
	}
	if msg.TxHash == "" {
		return nil, errors.New("tx_hash is required")
	}
	if msg.Outcome == "" {
		return nil, errors.New("outcome is required")
	}
	return json.Marshal(msg)
}

func Decode(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Type == "" {
		return Message{}, errors.New("message type is missing")
	}
	if msg.TxHash == "" {
		return Message{}, errors.New("tx_hash is missing")
	}
	if msg.Outcome == "" {
		return Message{}, errors.New("outcome is missing")
	}
	return msg, nil
}

// Verdict reconstructs the domain verdict carried by the message. A
// malformed amount is dropped rather than failing settlement, which only
// depends on the outcome.
func (m Message) Verdict() domain.Verdict {
	verdict := domain.Verdict{
		Outcome:       domain.Outcome(m.Outcome),
		Reason:        domain.ReasonCode(m.Reason),
		Confirmations: m.Confirmations,
	}
	if m.Amount != "" {
		if amount, err := decimal.NewFromString(m.Amount); err == nil {
			verdict.Amount = amount
		}
	}
	if m.ChainTime != 0 {
		verdict.Timestamp = time.Unix(m.ChainTime, 0).UTC()
	}
	return verdict
}
