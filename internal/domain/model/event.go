package model

import "math/big"

// Event kinds as they appear on the wire. One handler entry point exists
// per kind; the event source delivers them in chain order, one at a time.
const (
	KindInitiated         = "payment_initiated"
	KindCompleted         = "payment_completed"
	KindCancelled         = "payment_cancelled"
	KindReputationUpdated = "reputation_updated"
)

// PaymentInitiated is emitted when an order is opened on-chain.
type PaymentInitiated struct {
	OrderID        string
	Sender         string
	Recipient      string
	Amount         *big.Int
	VoiceHash      []byte
	Metadata       string // JSON-ish, parsed by the currency classifier
	BlockTimestamp int64
}

// PaymentCompleted is emitted when an order settles.
type PaymentCompleted struct {
	OrderID        string
	Amount         *big.Int
	Fee            *big.Int
	GasUsed        *big.Int // nil when the receipt did not carry it
	BlockTimestamp int64
}

// PaymentCancelled is emitted when an order is cancelled before settlement.
type PaymentCancelled struct {
	OrderID        string
	Reason         string
	BlockTimestamp int64
}

// ReputationUpdated carries an absolute score for a user, not a delta.
type ReputationUpdated struct {
	User           string
	NewScore       int64
	BlockTimestamp int64
}
