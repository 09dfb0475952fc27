package streaming

import (
	"testing"

	"github.com/lokix94/peru-hub-sub000/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload, err := Encode(Message{
		Type:          MessageTypeVerdict,
		OrderID:       "order-1",
		TxHash:        "0xabc",
		Outcome:       string(domain.OutcomeVerified),
		Amount:        "5.25",
		Confirmations: 4,
		ChainTime:     1700000000,
		EmittedAt:     1700000100,
	})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.OrderID != "order-1" || decoded.Confirmations != 4 {
		t.Errorf("unexpected message: %+v", decoded)
	}

	verdict := decoded.Verdict()
	if !verdict.Verified() {
		t.Error("expected verified verdict")
	}
	if verdict.Amount.String() != "5.25" {
		t.Errorf("unexpected amount: %s", verdict.Amount)
	}
	if verdict.Timestamp.Unix() != 1700000000 {
		t.Errorf("unexpected timestamp: %v", verdict.Timestamp)
	}
}

func TestEncodeValidates(t *testing.T) {
	if _, err := Encode(Message{TxHash: "0xabc", Outcome: "verified"}); err == nil {
		t.Error("expected error for missing type")
	}
	if _, err := Encode(Message{Type: MessageTypeVerdict, Outcome: "verified"}); err == nil {
		t.Error("expected error for missing tx_hash")
	}
	if _, err := Encode(Message{Type: MessageTypeVerdict, TxHash: "0xabc"}); err == nil {
		t.Error("expected error for missing outcome")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte(`{`)); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := Decode([]byte(`{"tx_hash":"0xabc"}`)); err == nil {
		t.Error("expected error for missing fields")
	}
}

func TestVerdictToleratesBadAmount(t *testing.T) {
	msg := Message{
		Type:    MessageTypeVerdict,
		TxHash:  "0xabc",
		Outcome: string(domain.OutcomeRejected),
		Reason:  string(domain.ReasonWrongToken),
		Amount:  "not-a-number",
	}
	verdict := msg.Verdict()
	if !verdict.Amount.IsZero() {
		t.Errorf("expected zero amount, got %s", verdict.Amount)
	}
	if verdict.Reason != domain.ReasonWrongToken {
		t.Errorf("unexpected reason: %s", verdict.Reason)
	}
}
