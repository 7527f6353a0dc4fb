package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

func TestOrderCreatedView(t *testing.T) {
	require.NoError(t, view.Register(OrderCreatedView))
	defer view.Unregister(OrderCreatedView)

	ctx, err := tag.New(context.Background(), tag.Upsert(OrderType, "bid"))
	require.NoError(t, err)
	stats.Record(ctx, OrderCreated.M(1))
	stats.Record(ctx, OrderCreated.M(1))

	rows, err := view.RetrieveData(OrderCreatedView.Name)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(2), rows[0].Data.(*view.CountData).Value)
}

func TestOperationTimer(t *testing.T) {
	stop := OperationTimer(context.Background(), "bill")
	require.GreaterOrEqual(t, int64(stop()), int64(0))
}
