package market

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hannahhoward/go-pubsub"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"

	"github.com/capmarket/capmarket/chain/types"
	"github.com/capmarket/capmarket/journal"
	"github.com/capmarket/capmarket/metrics"
)

// JournalSystem is the journal system market events are recorded under.
const JournalSystem = "market"

type EventType string

const (
	EvtOrderCreated          EventType = "order_created"
	EvtOrderCanceled         EventType = "order_canceled"
	EvtDealOpened            EventType = "deal_opened"
	EvtDealClosed            EventType = "deal_closed"
	EvtBilled                EventType = "billed"
	EvtChangeRequestCreated  EventType = "change_request_created"
	EvtChangeRequestResolved EventType = "change_request_resolved"
	EvtWorkerAnnounced       EventType = "worker_announced"
	EvtWorkerConfirmed       EventType = "worker_confirmed"
	EvtWorkerRemoved         EventType = "worker_removed"
	EvtBenchmarksUpdated     EventType = "benchmarks_updated"
	EvtNetflagsUpdated       EventType = "netflags_updated"
)

var allEventTypes = []EventType{
	EvtOrderCreated,
	EvtOrderCanceled,
	EvtDealOpened,
	EvtDealClosed,
	EvtBilled,
	EvtChangeRequestCreated,
	EvtChangeRequestResolved,
	EvtWorkerAnnounced,
	EvtWorkerConfirmed,
	EvtWorkerRemoved,
	EvtBenchmarksUpdated,
	EvtNetflagsUpdated,
}

// Close reasons carried by deal_closed events.
const (
	CloseByParty       = "party"
	CloseExpired       = "expired"
	CloseUnderfunded   = "underfunded"
	CloseRenewalFailed = "renewal_failed"
)

// Event is an observable market state change. Only the fields relevant to
// the event type are set.
type Event struct {
	Type      EventType
	Timestamp uint64

	OrderID   uint64          `json:",omitempty"`
	OrderType types.OrderType `json:",omitempty"`
	DealID    uint64          `json:",omitempty"`
	RequestID uint64          `json:",omitempty"`

	Worker address.Address
	Master address.Address

	// Amount is the payout of a billed event.
	Amount abi.TokenAmount
	Status types.RequestStatus `json:",omitempty"`
	Reason string              `json:",omitempty"`
	Count  uint64              `json:",omitempty"`
}

// Key identifies the entity an event is about, as <type>/<id>.
func (e Event) Key() string {
	switch e.Type {
	case EvtOrderCreated, EvtOrderCanceled:
		return fmt.Sprintf("%s/%d", e.Type, e.OrderID)
	case EvtDealOpened, EvtDealClosed, EvtBilled:
		return fmt.Sprintf("%s/%d", e.Type, e.DealID)
	case EvtChangeRequestCreated, EvtChangeRequestResolved:
		return fmt.Sprintf("%s/%d", e.Type, e.RequestID)
	case EvtWorkerAnnounced, EvtWorkerConfirmed, EvtWorkerRemoved:
		return fmt.Sprintf("%s/%s", e.Type, e.Worker)
	default:
		return fmt.Sprintf("%s/%d", e.Type, e.Count)
	}
}

type subscriberFn func(Event)

func newEventPubSub() *pubsub.PubSub {
	return pubsub.New(func(event pubsub.Event, subFn pubsub.SubscriberFn) error {
		evt, ok := event.(Event)
		if !ok {
			return xerrors.Errorf("wrong type of event")
		}
		sub, ok := subFn.(subscriberFn)
		if !ok {
			return xerrors.Errorf("wrong type of subscriber")
		}
		sub(evt)
		return nil
	})
}

// SubscribeEvents registers a callback receiving every committed event in
// commit order. Callbacks run synchronously and may call back into the
// market.
func (m *Market) SubscribeEvents(cb func(Event)) pubsub.Unsubscribe {
	return m.ps.Subscribe(subscriberFn(cb))
}

func (m *Market) registerEventTypes() {
	m.evtTypes = make(map[EventType]journal.EventType, len(allEventTypes))
	for _, t := range allEventTypes {
		m.evtTypes[t] = m.journal.RegisterEventType(JournalSystem, string(t))
	}
}

func (m *Market) publish(ctx context.Context, evts []Event) {
	for _, evt := range evts {
		evt := evt
		journal.MaybeRecordEvent(m.journal, m.evtTypes[evt.Type], func() interface{} {
			return evt
		})
		recordMetrics(ctx, evt)

		if err := m.ps.Publish(evt); err != nil {
			// In theory we shouldn't ever get an error here
			log.Errorf("unexpected error publishing market event: %s", err)
		}
	}
}

func recordMetrics(ctx context.Context, evt Event) {
	switch evt.Type {
	case EvtOrderCreated:
		ctx, _ = tag.New(ctx, tag.Upsert(metrics.OrderType, evt.OrderType.String()))
		stats.Record(ctx, metrics.OrderCreated.M(1))
	case EvtOrderCanceled:
		ctx, _ = tag.New(ctx, tag.Upsert(metrics.OrderType, evt.OrderType.String()))
		stats.Record(ctx, metrics.OrderCanceled.M(1))
	case EvtDealOpened:
		stats.Record(ctx, metrics.DealOpened.M(1))
	case EvtDealClosed:
		ctx, _ = tag.New(ctx, tag.Upsert(metrics.CloseReason, evt.Reason))
		stats.Record(ctx, metrics.DealClosed.M(1))
	case EvtBilled:
		if !evt.Amount.IsZero() {
			f, _ := new(big.Float).SetInt(evt.Amount.Int).Float64()
			stats.Record(ctx, metrics.DealBilled.M(1), metrics.BilledAmount.M(f))
		}
	case EvtChangeRequestCreated:
		stats.Record(ctx, metrics.ChangeRequestCreated.M(1))
	case EvtChangeRequestResolved:
		ctx, _ = tag.New(ctx, tag.Upsert(metrics.RequestStatus, evt.Status.String()))
		stats.Record(ctx, metrics.ChangeRequestResolved.M(1))
	}
}
