package utils

import (
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gboigwe/nuru-sub002/internal/app/dto"
	"github.com/gboigwe/nuru-sub002/internal/domain/model"
)

// EventGenerator produces plausible payment lifecycle sequences for demo
// and load-testing runs: initiations followed by completions or
// cancellations of earlier orders, in order.
type EventGenerator struct {
	nextOrder uint64
	pending   []pendingOrder
}

type pendingOrder struct {
	id     string
	amount *big.Int
}

// NewEventGenerator creates a new lifecycle event generator
func NewEventGenerator() *EventGenerator {
	return &EventGenerator{nextOrder: 1}
}

// GenerateBatch creates count events: roughly half open new orders, the
// rest settle or cancel previously opened ones.
func (g *EventGenerator) GenerateBatch(count int) []*dto.PaymentEventDTO {
	currencies := []string{"ETH", "USDC", "DAI", "USDT", "CUSD"}
	now := time.Now().Unix()

	events := make([]*dto.PaymentEventDTO, 0, count)
	for i := 0; i < count; i++ {
		randInt := time.Now().Nanosecond()

		// Settle an earlier order when one is available and the coin flip says so
		if len(g.pending) > 0 && i%2 == 1 {
			order := g.pending[0]
			g.pending = g.pending[1:]

			if randInt%10 == 0 {
				events = append(events, &dto.PaymentEventDTO{
					ID:             uuid.New().String(),
					Type:           model.KindCancelled,
					OrderID:        order.id,
					Reason:         "user cancelled",
					BlockTimestamp: now,
				})
			} else {
				// 0.5% platform fee
				fee := new(big.Int).Div(order.amount, big.NewInt(200))
				events = append(events, &dto.PaymentEventDTO{
					ID:             uuid.New().String(),
					Type:           model.KindCompleted,
					OrderID:        order.id,
					Amount:         order.amount.String(),
					Fee:            fee.String(),
					GasUsed:        strconv.Itoa(21000 + randInt%50000),
					BlockTimestamp: now,
				})
			}
			continue
		}

		// Open a new order: 0.001 to ~5 ETH-denominated wei amounts
		amount := new(big.Int).Mul(
			big.NewInt(int64(1+randInt%5000)),
			big.NewInt(1_000_000_000_000_000), // 0.001 ether in wei
		)
		orderID := strconv.FormatUint(g.nextOrder, 10)
		g.nextOrder++
		g.pending = append(g.pending, pendingOrder{id: orderID, amount: amount})

		events = append(events, &dto.PaymentEventDTO{
			ID:             uuid.New().String(),
			Type:           model.KindInitiated,
			OrderID:        orderID,
			Sender:         fmt.Sprintf("0xsender%02d", randInt%20),
			Recipient:      fmt.Sprintf("0xrecipient%02d", (randInt/7)%20),
			Amount:         amount.String(),
			Metadata:       fmt.Sprintf(`{"currency":%q}`, currencies[randInt%len(currencies)]),
			BlockTimestamp: now,
		})
	}

	return events
}
