package metrics

import (
	"context"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"github.com/capmarket/capmarket/build"
)

// Distributions
var defaultMillisecondsDistribution = view.Distribution(
	0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, // Very short intervals for fast operations
	10, 20, 30, 40, 50, 60, 70, 80, 90, 100, // 10 ms intervals up to 100 ms
	150, 200, 250, 300, 350, 400, 450, 500, // 50 ms intervals from 100 to 500 ms
	600, 700, 800, 900, 1000, // 100 ms intervals from 500 to 1000 ms
	2000, 3000, 4000, 5000, 10000, 20000, 30000, 60000,
)

// payouts are in ledger units, which routinely exceed the int64 range
var payoutDistribution = view.Distribution(
	1, 1e3, 1e6, 1e9, 1e12, 1e15, 1e18, 1e19, 1e20, 1e21, 1e22, 1e24,
)

// Tags
var (
	Version, _ = tag.NewKey("version")
	Commit, _  = tag.NewKey("commit")

	OrderType, _     = tag.NewKey("order_type")
	CloseReason, _   = tag.NewKey("close_reason")
	RequestStatus, _ = tag.NewKey("request_status")
	Operation, _     = tag.NewKey("operation")
	Endpoint, _      = tag.NewKey("endpoint")
)

// Measures
var (
	MarketInfo = stats.Int64("info", "Arbitrary counter to tag market info to", stats.UnitDimensionless)

	OrderCreated          = stats.Int64("market/order_created", "Counter for created orders", stats.UnitDimensionless)
	OrderCanceled         = stats.Int64("market/order_canceled", "Counter for canceled orders", stats.UnitDimensionless)
	DealOpened            = stats.Int64("market/deal_opened", "Counter for opened deals", stats.UnitDimensionless)
	DealClosed            = stats.Int64("market/deal_closed", "Counter for closed deals", stats.UnitDimensionless)
	DealBilled            = stats.Int64("market/deal_billed", "Counter for billing runs that paid out", stats.UnitDimensionless)
	BilledAmount          = stats.Float64("market/billed_amount", "Amount paid out per billing run in ledger units", stats.UnitDimensionless)
	ChangeRequestCreated  = stats.Int64("market/change_request_created", "Counter for created change requests", stats.UnitDimensionless)
	ChangeRequestResolved = stats.Int64("market/change_request_resolved", "Counter for resolved change requests", stats.UnitDimensionless)
	OperationDuration     = stats.Float64("market/operation_ms", "Duration of market operations", stats.UnitMilliseconds)
	OracleRate            = stats.Float64("oracle/rate", "Last oracle rate", stats.UnitDimensionless)

	APIRequestDuration = stats.Float64("api/request_duration_ms", "Duration of API requests", stats.UnitMilliseconds)
	EventsPublished    = stats.Int64("events/published", "Counter for events exported to the event sink", stats.UnitDimensionless)
	EventsDropped      = stats.Int64("events/dropped", "Counter for events the event sink failed to export", stats.UnitDimensionless)
)

var (
	InfoView = &view.View{
		Name:        "info",
		Description: "Market node information",
		Measure:     MarketInfo,
		Aggregation: view.LastValue(),
		TagKeys:     []tag.Key{Version, Commit},
	}
	OrderCreatedView = &view.View{
		Measure:     OrderCreated,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{OrderType},
	}
	OrderCanceledView = &view.View{
		Measure:     OrderCanceled,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{OrderType},
	}
	DealOpenedView = &view.View{
		Measure:     DealOpened,
		Aggregation: view.Count(),
	}
	DealClosedView = &view.View{
		Measure:     DealClosed,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{CloseReason},
	}
	DealBilledView = &view.View{
		Measure:     DealBilled,
		Aggregation: view.Count(),
	}
	BilledAmountView = &view.View{
		Measure:     BilledAmount,
		Aggregation: payoutDistribution,
	}
	ChangeRequestCreatedView = &view.View{
		Measure:     ChangeRequestCreated,
		Aggregation: view.Count(),
	}
	ChangeRequestResolvedView = &view.View{
		Measure:     ChangeRequestResolved,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{RequestStatus},
	}
	OperationDurationView = &view.View{
		Measure:     OperationDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Operation},
	}
	OracleRateView = &view.View{
		Measure:     OracleRate,
		Aggregation: view.LastValue(),
	}
	APIRequestDurationView = &view.View{
		Measure:     APIRequestDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{Endpoint},
	}
	EventsPublishedView = &view.View{
		Measure:     EventsPublished,
		Aggregation: view.Count(),
	}
	EventsDroppedView = &view.View{
		Measure:     EventsDropped,
		Aggregation: view.Count(),
	}
)

var views = []*view.View{
	InfoView,
	APIRequestDurationView,
}

// DefaultViews is an array of OpenCensus views for metric gathering purposes
var DefaultViews = func() []*view.View {
	return views
}()

// RegisterViews adds views to the default list without modifying this file.
func RegisterViews(v ...*view.View) {
	views = append(views, v...)
}

var MarketNodeViews = append([]*view.View{
	OrderCreatedView,
	OrderCanceledView,
	DealOpenedView,
	DealClosedView,
	DealBilledView,
	BilledAmountView,
	ChangeRequestCreatedView,
	ChangeRequestResolvedView,
	OperationDurationView,
	OracleRateView,
	EventsPublishedView,
	EventsDroppedView,
}, DefaultViews...)

// SinceInMilliseconds returns the duration of time since the provide time as a float64.
func SinceInMilliseconds(startTime time.Time) float64 {
	return float64(build.Clock.Since(startTime).Milliseconds())
}

// Timer is a function stopwatch, calling it starts the timer,
// calling the returned function will record the duration.
func Timer(ctx context.Context, m *stats.Float64Measure) func() time.Duration {
	start := build.Clock.Now()
	return func() time.Duration {
		stats.Record(ctx, m.M(SinceInMilliseconds(start)))
		return build.Clock.Since(start)
	}
}

// OperationTimer times a market operation under the operation tag.
func OperationTimer(ctx context.Context, op string) func() time.Duration {
	ctx, _ = tag.New(ctx, tag.Upsert(Operation, op))
	return Timer(ctx, OperationDuration)
}

// Exporter registers the market views and returns the prometheus handler
// serving them.
func Exporter(namespace string) (*prometheus.Exporter, error) {
	if err := view.Register(MarketNodeViews...); err != nil {
		return nil, err
	}

	ctx, _ := tag.New(context.Background(),
		tag.Upsert(Version, build.BuildVersion),
		tag.Upsert(Commit, build.CurrentCommit),
	)
	stats.Record(ctx, MarketInfo.M(1))

	registry := promclient.DefaultRegisterer.(*promclient.Registry)
	return prometheus.NewExporter(prometheus.Options{
		Registry:  registry,
		Namespace: namespace,
	})
}
