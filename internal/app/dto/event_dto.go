package dto

import (
	"encoding/base64"
	"math/big"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
)

// PaymentEventDTO is the wire envelope for every lifecycle event kind.
// Amounts travel as decimal strings because on-chain values overflow every
// fixed-width JSON number; the converters parse them into big ints.
type PaymentEventDTO struct {
	ID             string `json:"id"` // transport-level event id, used for deduplication
	Type           string `json:"type"`
	OrderID        string `json:"order_id,omitempty"`
	Sender         string `json:"sender,omitempty"`
	Recipient      string `json:"recipient,omitempty"`
	Amount         string `json:"amount,omitempty"`
	Fee            string `json:"fee,omitempty"`
	GasUsed        string `json:"gas_used,omitempty"`
	VoiceHash      string `json:"voice_hash,omitempty"` // base64
	Metadata       string `json:"metadata,omitempty"`
	Reason         string `json:"reason,omitempty"`
	User           string `json:"user,omitempty"`
	NewScore       int64  `json:"new_score,omitempty"`
	BlockTimestamp int64  `json:"block_timestamp"`
}

// ToInitiated converts the envelope to the typed initiation event.
func (d *PaymentEventDTO) ToInitiated() *model.PaymentInitiated {
	voiceHash, _ := base64.StdEncoding.DecodeString(d.VoiceHash)
	return &model.PaymentInitiated{
		OrderID:        d.OrderID,
		Sender:         d.Sender,
		Recipient:      d.Recipient,
		Amount:         parseBig(d.Amount),
		VoiceHash:      voiceHash,
		Metadata:       d.Metadata,
		BlockTimestamp: d.BlockTimestamp,
	}
}

// ToCompleted converts the envelope to the typed completion event.
// GasUsed stays nil when the receipt did not carry it.
func (d *PaymentEventDTO) ToCompleted() *model.PaymentCompleted {
	ev := &model.PaymentCompleted{
		OrderID:        d.OrderID,
		Amount:         parseBig(d.Amount),
		Fee:            parseBig(d.Fee),
		BlockTimestamp: d.BlockTimestamp,
	}
	if d.GasUsed != "" {
		ev.GasUsed = parseBig(d.GasUsed)
	}
	return ev
}

// ToCancelled converts the envelope to the typed cancellation event.
func (d *PaymentEventDTO) ToCancelled() *model.PaymentCancelled {
	return &model.PaymentCancelled{
		OrderID:        d.OrderID,
		Reason:         d.Reason,
		BlockTimestamp: d.BlockTimestamp,
	}
}

// ToReputationUpdated converts the envelope to the typed reputation event.
func (d *PaymentEventDTO) ToReputationUpdated() *model.ReputationUpdated {
	return &model.ReputationUpdated{
		User:           d.User,
		NewScore:       d.NewScore,
		BlockTimestamp: d.BlockTimestamp,
	}
}

// parseBig reads a decimal string into a big int, treating anything
// unparseable as zero. Negative amounts never occur on-chain.
func parseBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return new(big.Int)
	}
	return v
}
