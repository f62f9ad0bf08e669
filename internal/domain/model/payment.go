package model

import "math/big"

// PaymentStatus is the lifecycle state of a payment order.
// PENDING is the only non-terminal state; COMPLETED and CANCELLED are
// terminal and a payment never returns to PENDING.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusCancelled PaymentStatus = "CANCELLED"
)

// ProtocolStatID is the fixed key of the protocol-wide stats row.
// There is exactly one such row in the store.
const ProtocolStatID = "protocol"

// DefaultReputation is the neutral score assigned to users on first sighting.
const DefaultReputation = 100

// Payment represents one payment order emitted by the on-chain contract.
// All monetary fields carry exact wei-denominated integers.
type Payment struct {
	ID                 string        `json:"id"` // string form of the on-chain order number
	Sender             string        `json:"sender"`
	Recipient          string        `json:"recipient"`
	Amount             *big.Int      `json:"amount"`
	Currency           string        `json:"currency"`
	PlatformFee        *big.Int      `json:"platform_fee"` // zero until completion
	NetAmount          *big.Int      `json:"net_amount"`   // amount - platformFee, set on completion
	GasUsed            *big.Int      `json:"gas_used,omitempty"`
	Status             PaymentStatus `json:"status"`
	VoiceHash          []byte        `json:"voice_hash,omitempty"`
	InitiatedAt        int64         `json:"initiated_at"`
	CompletedAt        int64         `json:"completed_at,omitempty"` // zero means unset
	CancelledAt        int64         `json:"cancelled_at,omitempty"` // zero means unset
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	SenderUser         string        `json:"sender_user"`    // User.Address foreign key
	RecipientUser      string        `json:"recipient_user"` // User.Address foreign key
}

// User accumulates per-address totals across the whole payment history.
// Sums and counts only ever increase; reputation may move in either direction.
type User struct {
	Address               string   `json:"address"`
	TotalSent             *big.Int `json:"total_sent"`
	TotalReceived         *big.Int `json:"total_received"`
	PaymentsSentCount     uint64   `json:"payments_sent_count"`
	PaymentsReceivedCount uint64   `json:"payments_received_count"`
	Reputation            int64    `json:"reputation"`
	FirstTransactionAt    int64    `json:"first_transaction_at"` // immutable once set
	LastTransactionAt     int64    `json:"last_transaction_at"`  // monotonically advanced
}

// DailyStat is the rollup for one canonical day bucket.
// Volume and fees cover payments completed within the bucket; TotalPayments
// counts orders initiated within it.
type DailyStat struct {
	Date              int64    `json:"date"` // bucket start, unix seconds
	TotalVolume       *big.Int `json:"total_volume"`
	TotalFees         *big.Int `json:"total_fees"`
	TotalPayments     uint64   `json:"total_payments"`
	CompletedPayments uint64   `json:"completed_payments"`
	CancelledPayments uint64   `json:"cancelled_payments"`
	AverageAmount     *big.Int `json:"average_amount"` // TotalVolume / CompletedPayments, truncating
}

// CurrencyStat is the rollup for one normalized currency code.
type CurrencyStat struct {
	Currency      string   `json:"currency"`
	TotalVolume   *big.Int `json:"total_volume"`
	TotalPayments uint64   `json:"total_payments"`
	AverageAmount *big.Int `json:"average_amount"`
	LastUpdated   int64    `json:"last_updated"`
}

// ProtocolStat is the single protocol-wide rollup, stored under ProtocolStatID.
type ProtocolStat struct {
	ID                     string   `json:"id"`
	TotalVolumeAllTime     *big.Int `json:"total_volume_all_time"`
	TotalFeesAllTime       *big.Int `json:"total_fees_all_time"`
	AveragePaymentAmount   *big.Int `json:"average_payment_amount"`
	TotalPaymentsAllTime   uint64   `json:"total_payments_all_time"`
	TotalCompletedPayments uint64   `json:"total_completed_payments"`
	TotalCancelledPayments uint64   `json:"total_cancelled_payments"`
	TotalUniqueUsers       uint64   `json:"total_unique_users"`
	LastUpdated            int64    `json:"last_updated"`
}

// NewUser returns a User with zeroed counters and the neutral reputation.
func NewUser(address string) *User {
	return &User{
		Address:       address,
		TotalSent:     new(big.Int),
		TotalReceived: new(big.Int),
		Reputation:    DefaultReputation,
	}
}

// NewDailyStat returns an all-zero rollup for the given bucket start.
func NewDailyStat(date int64) *DailyStat {
	return &DailyStat{
		Date:          date,
		TotalVolume:   new(big.Int),
		TotalFees:     new(big.Int),
		AverageAmount: new(big.Int),
	}
}

// NewCurrencyStat returns an all-zero rollup for the given currency code.
func NewCurrencyStat(currency string) *CurrencyStat {
	return &CurrencyStat{
		Currency:      currency,
		TotalVolume:   new(big.Int),
		AverageAmount: new(big.Int),
	}
}

// NewProtocolStat returns the all-zero protocol row.
func NewProtocolStat() *ProtocolStat {
	return &ProtocolStat{
		ID:                   ProtocolStatID,
		TotalVolumeAllTime:   new(big.Int),
		TotalFeesAllTime:     new(big.Int),
		AveragePaymentAmount: new(big.Int),
	}
}
