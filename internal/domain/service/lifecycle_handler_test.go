package service_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/gboigwe/nuru-sub002/internal/domain/model"
	"github.com/gboigwe/nuru-sub002/internal/domain/service"
	"github.com/gboigwe/nuru-sub002/internal/infrastructure/memstore"
)

func newHandler() (*service.LifecycleHandler, *memstore.MemStore) {
	store := memstore.New()
	return service.NewLifecycleHandler(store, "ETH"), store
}

func initiated(orderID, sender, recipient string, amount int64, ts int64) *model.PaymentInitiated {
	return &model.PaymentInitiated{
		OrderID:        orderID,
		Sender:         sender,
		Recipient:      recipient,
		Amount:         big.NewInt(amount),
		Metadata:       `{"currency":"ETH"}`,
		BlockTimestamp: ts,
	}
}

func completed(orderID string, amount, fee int64, ts int64) *model.PaymentCompleted {
	return &model.PaymentCompleted{
		OrderID:        orderID,
		Amount:         big.NewInt(amount),
		Fee:            big.NewInt(fee),
		GasUsed:        big.NewInt(21000),
		BlockTimestamp: ts,
	}
}

func TestInitiateThenComplete(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	if err := handler.OnInitiated(ctx, initiated("1", "0xA", "0xB", 100, 1000)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	if err := handler.OnCompleted(ctx, completed("1", 100, 5, 2000)); err != nil {
		t.Fatalf("failed to process completion: %v", err)
	}

	payment, err := store.GetPayment(ctx, "1")
	if err != nil || payment == nil {
		t.Fatalf("payment not found: %v", err)
	}
	if payment.Status != model.StatusCompleted {
		t.Errorf("expected status COMPLETED, got %s", payment.Status)
	}
	if payment.NetAmount.Cmp(big.NewInt(95)) != 0 {
		t.Errorf("expected net amount 95, got %s", payment.NetAmount)
	}
	if payment.PlatformFee.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("expected platform fee 5, got %s", payment.PlatformFee)
	}
	if payment.CompletedAt != 2000 {
		t.Errorf("expected completedAt 2000, got %d", payment.CompletedAt)
	}
	if payment.CancelledAt != 0 {
		t.Errorf("expected cancelledAt unset, got %d", payment.CancelledAt)
	}

	sender, _ := store.GetUser(ctx, "0xA")
	if sender == nil {
		t.Fatal("sender not found")
	}
	if sender.TotalSent.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected totalSent 100, got %s", sender.TotalSent)
	}
	if sender.PaymentsSentCount != 1 {
		t.Errorf("expected paymentsSentCount 1, got %d", sender.PaymentsSentCount)
	}
	if sender.FirstTransactionAt != 1000 {
		t.Errorf("expected firstTransactionAt 1000, got %d", sender.FirstTransactionAt)
	}
	if sender.LastTransactionAt != 2000 {
		t.Errorf("expected lastTransactionAt 2000, got %d", sender.LastTransactionAt)
	}

	recipient, _ := store.GetUser(ctx, "0xB")
	if recipient == nil {
		t.Fatal("recipient not found")
	}
	if recipient.TotalReceived.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected totalReceived 100, got %s", recipient.TotalReceived)
	}
	if recipient.PaymentsReceivedCount != 1 {
		t.Errorf("expected paymentsReceivedCount 1, got %d", recipient.PaymentsReceivedCount)
	}

	day, _ := store.GetDailyStat(ctx, service.DayBucket(2000))
	if day == nil {
		t.Fatal("daily stat not found")
	}
	if day.TotalVolume.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected daily volume 100, got %s", day.TotalVolume)
	}
	if day.TotalFees.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("expected daily fees 5, got %s", day.TotalFees)
	}
	if day.TotalPayments != 1 || day.CompletedPayments != 1 {
		t.Errorf("expected 1 initiated and 1 completed, got %d/%d", day.TotalPayments, day.CompletedPayments)
	}
	if day.AverageAmount.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected daily average 100, got %s", day.AverageAmount)
	}

	proto, _ := store.GetProtocolStat(ctx)
	if proto == nil {
		t.Fatal("protocol stat not found")
	}
	if proto.TotalVolumeAllTime.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected protocol volume 100, got %s", proto.TotalVolumeAllTime)
	}
	if proto.TotalFeesAllTime.Cmp(big.NewInt(5)) != 0 {
		t.Errorf("expected protocol fees 5, got %s", proto.TotalFeesAllTime)
	}
	if proto.TotalPaymentsAllTime != 1 || proto.TotalCompletedPayments != 1 {
		t.Errorf("expected 1 initiated and 1 completed, got %d/%d", proto.TotalPaymentsAllTime, proto.TotalCompletedPayments)
	}
	if proto.TotalUniqueUsers != 2 {
		t.Errorf("expected 2 unique users, got %d", proto.TotalUniqueUsers)
	}

	currency, _ := store.GetCurrencyStat(ctx, "ETH")
	if currency == nil {
		t.Fatal("currency stat not found")
	}
	if currency.TotalVolume.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("expected currency volume 100, got %s", currency.TotalVolume)
	}
	if currency.TotalPayments != 1 {
		t.Errorf("expected 1 currency payment, got %d", currency.TotalPayments)
	}
}

func TestCompletionBucketsByOwnTimestamp(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	// Initiated at the very end of day 0, completed at the start of day 1
	if err := handler.OnInitiated(ctx, initiated("1", "0xA", "0xB", 50, 86399)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	if err := handler.OnCompleted(ctx, completed("1", 50, 1, 86401)); err != nil {
		t.Fatalf("failed to process completion: %v", err)
	}

	day0, _ := store.GetDailyStat(ctx, 0)
	if day0 == nil {
		t.Fatal("day 0 stat not found")
	}
	if day0.TotalPayments != 1 || day0.CompletedPayments != 0 {
		t.Errorf("expected day 0 to hold only the initiation, got %d/%d", day0.TotalPayments, day0.CompletedPayments)
	}
	if day0.TotalVolume.Sign() != 0 {
		t.Errorf("expected day 0 volume 0, got %s", day0.TotalVolume)
	}

	day1, _ := store.GetDailyStat(ctx, 86400)
	if day1 == nil {
		t.Fatal("day 1 stat not found")
	}
	if day1.TotalPayments != 0 || day1.CompletedPayments != 1 {
		t.Errorf("expected day 1 to hold only the completion, got %d/%d", day1.TotalPayments, day1.CompletedPayments)
	}
	if day1.TotalVolume.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("expected day 1 volume 50, got %s", day1.TotalVolume)
	}
}

func TestCompleteUnknownOrderIsDropped(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	if err := handler.OnCompleted(ctx, completed("999", 100, 5, 1000)); err != nil {
		t.Fatalf("expected no error for unknown order, got %v", err)
	}
	if err := handler.OnCancelled(ctx, &model.PaymentCancelled{OrderID: "998", Reason: "nope", BlockTimestamp: 1000}); err != nil {
		t.Fatalf("expected no error for unknown order, got %v", err)
	}

	proto, _ := store.GetProtocolStat(ctx)
	if proto != nil {
		t.Errorf("expected no protocol stat to be created, got %+v", proto)
	}
	users, _ := store.GetAllUsers(ctx)
	if len(users) != 0 {
		t.Errorf("expected no users to be created, got %d", len(users))
	}
	if handler.DroppedEvents() != 2 {
		t.Errorf("expected 2 dropped events, got %d", handler.DroppedEvents())
	}
}

func TestCancellation(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	if err := handler.OnInitiated(ctx, initiated("1", "0xA", "0xB", 100, 1000)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	if err := handler.OnCancelled(ctx, &model.PaymentCancelled{OrderID: "1", Reason: "timeout", BlockTimestamp: 2000}); err != nil {
		t.Fatalf("failed to process cancellation: %v", err)
	}

	payment, _ := store.GetPayment(ctx, "1")
	if payment.Status != model.StatusCancelled {
		t.Errorf("expected status CANCELLED, got %s", payment.Status)
	}
	if payment.CancellationReason != "timeout" {
		t.Errorf("expected reason %q, got %q", "timeout", payment.CancellationReason)
	}
	if payment.CancelledAt != 2000 {
		t.Errorf("expected cancelledAt 2000, got %d", payment.CancelledAt)
	}

	day, _ := store.GetDailyStat(ctx, 0)
	if day.CancelledPayments != 1 {
		t.Errorf("expected 1 cancelled payment, got %d", day.CancelledPayments)
	}
	if day.TotalVolume.Sign() != 0 {
		t.Errorf("cancelled payments must not add volume, got %s", day.TotalVolume)
	}

	proto, _ := store.GetProtocolStat(ctx)
	if proto.TotalCancelledPayments != 1 {
		t.Errorf("expected 1 cancelled payment, got %d", proto.TotalCancelledPayments)
	}
	if proto.TotalVolumeAllTime.Sign() != 0 {
		t.Errorf("cancelled payments must not add volume, got %s", proto.TotalVolumeAllTime)
	}

	// No currency stat either
	currencies, _ := store.GetAllCurrencyStats(ctx)
	if len(currencies) != 0 {
		t.Errorf("expected no currency stats, got %d", len(currencies))
	}
}

func TestUniqueUserCounting(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	// Two brand-new addresses: +2
	if err := handler.OnInitiated(ctx, initiated("1", "0xA", "0xB", 10, 1000)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	proto, _ := store.GetProtocolStat(ctx)
	if proto.TotalUniqueUsers != 2 {
		t.Fatalf("expected 2 unique users, got %d", proto.TotalUniqueUsers)
	}

	// Known sender, new recipient: +1
	if err := handler.OnInitiated(ctx, initiated("2", "0xA", "0xC", 10, 1001)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	proto, _ = store.GetProtocolStat(ctx)
	if proto.TotalUniqueUsers != 3 {
		t.Fatalf("expected 3 unique users, got %d", proto.TotalUniqueUsers)
	}

	// Both known: +0
	if err := handler.OnInitiated(ctx, initiated("3", "0xA", "0xB", 10, 1002)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	proto, _ = store.GetProtocolStat(ctx)
	if proto.TotalUniqueUsers != 3 {
		t.Fatalf("expected 3 unique users, got %d", proto.TotalUniqueUsers)
	}

	// Self-payment from a new address: +1, not +2
	if err := handler.OnInitiated(ctx, initiated("4", "0xD", "0xD", 10, 1003)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	proto, _ = store.GetProtocolStat(ctx)
	if proto.TotalUniqueUsers != 4 {
		t.Fatalf("expected 4 unique users, got %d", proto.TotalUniqueUsers)
	}
}

func TestReputationChanged(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	// Creates the user with the neutral default, then overwrites the score
	if err := handler.OnReputationChanged(ctx, &model.ReputationUpdated{User: "0xA", NewScore: 42, BlockTimestamp: 1000}); err != nil {
		t.Fatalf("failed to process reputation update: %v", err)
	}

	u, _ := store.GetUser(ctx, "0xA")
	if u == nil {
		t.Fatal("user not found")
	}
	if u.Reputation != 42 {
		t.Errorf("expected reputation 42, got %d", u.Reputation)
	}
	if u.PaymentsSentCount != 0 || u.PaymentsReceivedCount != 0 {
		t.Errorf("reputation updates must not touch counters, got %d/%d", u.PaymentsSentCount, u.PaymentsReceivedCount)
	}
	if u.TotalSent.Sign() != 0 || u.TotalReceived.Sign() != 0 {
		t.Errorf("reputation updates must not touch sums")
	}

	// Absolute set, not a delta; scores may go down
	if err := handler.OnReputationChanged(ctx, &model.ReputationUpdated{User: "0xA", NewScore: 7, BlockTimestamp: 1001}); err != nil {
		t.Fatalf("failed to process reputation update: %v", err)
	}
	u, _ = store.GetUser(ctx, "0xA")
	if u.Reputation != 7 {
		t.Errorf("expected reputation 7, got %d", u.Reputation)
	}
}

// TestReplayedCompletionDoubleCounts pins the current behavior: the handler
// performs no idempotency check, so an event source that redelivers a
// completion double-counts every aggregate. Deduplication belongs to the
// transport layer.
func TestReplayedCompletionDoubleCounts(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	if err := handler.OnInitiated(ctx, initiated("1", "0xA", "0xB", 100, 1000)); err != nil {
		t.Fatalf("failed to process initiation: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := handler.OnCompleted(ctx, completed("1", 100, 5, 2000)); err != nil {
			t.Fatalf("failed to process completion: %v", err)
		}
	}

	sender, _ := store.GetUser(ctx, "0xA")
	if sender.TotalSent.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("expected replay to double totalSent to 200, got %s", sender.TotalSent)
	}
	proto, _ := store.GetProtocolStat(ctx)
	if proto.TotalCompletedPayments != 2 {
		t.Errorf("expected replay to count 2 completions, got %d", proto.TotalCompletedPayments)
	}
	if proto.TotalVolumeAllTime.Cmp(big.NewInt(200)) != 0 {
		t.Errorf("expected replay to double volume to 200, got %s", proto.TotalVolumeAllTime)
	}
}

// TestVolumeConsistency checks the cross-aggregate invariant: protocol
// volume equals the sum over daily buckets and the sum over currencies.
func TestVolumeConsistency(t *testing.T) {
	ctx := context.Background()
	handler, store := newHandler()

	amounts := []int64{100, 250, 333, 7, 90001}
	for i, amount := range amounts {
		orderID := string(rune('1' + i))
		ts := int64(1000 + i*40000) // spread across buckets
		ev := initiated(orderID, "0xA", "0xB", amount, ts)
		if i%2 == 0 {
			ev.Metadata = `{"currency":"USDC"}`
		}
		if err := handler.OnInitiated(ctx, ev); err != nil {
			t.Fatalf("failed to process initiation: %v", err)
		}
		if err := handler.OnCompleted(ctx, completed(orderID, amount, 1, ts+100)); err != nil {
			t.Fatalf("failed to process completion: %v", err)
		}
	}

	proto, _ := store.GetProtocolStat(ctx)

	dailySum := big.NewInt(0)
	days, _ := store.GetAllDailyStats(ctx)
	for _, d := range days {
		dailySum.Add(dailySum, d.TotalVolume)
	}
	if proto.TotalVolumeAllTime.Cmp(dailySum) != 0 {
		t.Errorf("protocol volume %s != daily sum %s", proto.TotalVolumeAllTime, dailySum)
	}

	currencySum := big.NewInt(0)
	currencies, _ := store.GetAllCurrencyStats(ctx)
	for _, c := range currencies {
		currencySum.Add(currencySum, c.TotalVolume)
	}
	if proto.TotalVolumeAllTime.Cmp(currencySum) != 0 {
		t.Errorf("protocol volume %s != currency sum %s", proto.TotalVolumeAllTime, currencySum)
	}

	if proto.TotalCompletedPayments+proto.TotalCancelledPayments > proto.TotalPaymentsAllTime {
		t.Errorf("terminal payments exceed initiated: %d+%d > %d",
			proto.TotalCompletedPayments, proto.TotalCancelledPayments, proto.TotalPaymentsAllTime)
	}

	// Truncating-average bound: avg*count <= volume < avg*count + count
	count := new(big.Int).SetUint64(proto.TotalCompletedPayments)
	lower := new(big.Int).Mul(proto.AveragePaymentAmount, count)
	upper := new(big.Int).Add(lower, count)
	if lower.Cmp(proto.TotalVolumeAllTime) > 0 || proto.TotalVolumeAllTime.Cmp(upper) >= 0 {
		t.Errorf("average %s violates truncation bound for volume %s count %s",
			proto.AveragePaymentAmount, proto.TotalVolumeAllTime, count)
	}
}
