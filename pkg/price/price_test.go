package price

import (
	"testing"

	"github.com/demigunkan/marketstatus/internal/fixtures"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/demigunkan/marketstatus/pkg/orderbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureBook(t *testing.T) *orderbook.Orderbook {
	t.Helper()
	ob := orderbook.New("BTC-USD", fixtures.BTCUSDDepth)
	require.NoError(t, ob.Init(fixtures.BTCUSDBids(), fixtures.BTCUSDAsks()))
	return ob
}

func TestGetTips(t *testing.T) {
	ob := fixtureBook(t)

	tips := GetTips(ob)
	require.Equal(t, StatusSuccess, tips.Status)
	assert.Equal(t, types.Level{Quantity: "0.19157204", Rate: "29954.31800000"}, tips.Bid)
	assert.Equal(t, types.Level{Quantity: "0.19500000", Rate: "29964.38100000"}, tips.Ask)

	assert.Equal(t, tips, GetTips(ob))
}

func TestGetTips_Empty(t *testing.T) {
	tips := GetTips(orderbook.New("BTC-USD", fixtures.BTCUSDDepth))

	assert.Equal(t, StatusEmpty, tips.Status)
	assert.Equal(t, EmptyMessage, tips.Message)
}

func TestPriceImpact(t *testing.T) {
	ob := fixtureBook(t)

	tests := []struct {
		name   string
		buy    bool
		amount float64
		limit  float64
		status Status
		price  float64
		filled float64
	}{
		{name: "buy within cap", buy: true, amount: 1.19769275, limit: 29969.51241, status: StatusSuccess, price: 29969.31162, filled: 1.19769275},
		{name: "buy cap binds", buy: true, amount: 1.252688885, limit: 29969.09332, status: StatusCapReached, price: 29969.09332, filled: 1.1476293},
		{name: "buy without cap", buy: true, amount: 0.1, limit: NoBuyCap, status: StatusSuccess, price: 29964.381, filled: 0.1},
		{name: "sell within cap", buy: false, amount: 1.27182171, limit: 29946.98129, status: StatusSuccess, price: 29946.98921, filled: 1.27182171},
		{name: "sell cap binds", buy: false, amount: 1.27182171, limit: 29948.44993, status: StatusCapReached, price: 29948.44993, filled: 1.0705354},
		{name: "sell without cap", buy: false, amount: 0.1, limit: NoSellCap, status: StatusSuccess, price: 29954.318, filled: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			impact := PriceImpact(ob, tt.amount, tt.limit, tt.buy)

			require.Equal(t, tt.status, impact.Status)
			assert.InDelta(t, tt.price, impact.EffectivePrice, 1e-5)
			assert.InDelta(t, tt.filled, impact.Amount, 1e-5)
		})
	}
}

func TestPriceImpact_InsufficientLiquidity(t *testing.T) {
	ob := fixtureBook(t)

	assert.Equal(t, StatusFailed, BuyPrice(ob, 17.47, 30062).Status)
	assert.Equal(t, StatusFailed, BuyPrice(ob, 100, NoBuyCap).Status)
	assert.Equal(t, StatusFailed, SellPrice(ob, 5.37, 29902.96).Status)
}

func TestPriceImpact_Empty(t *testing.T) {
	ob := orderbook.New("BTC-USD", fixtures.BTCUSDDepth)

	impact := BuyPrice(ob, 1, NoBuyCap)
	assert.Equal(t, StatusEmpty, impact.Status)
	assert.Equal(t, EmptyMessage, impact.Message)
}
