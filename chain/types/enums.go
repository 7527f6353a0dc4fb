package types

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

type OrderType uint8

const (
	OrderTypeUnknown OrderType = iota
	Bid
	Ask
)

func (t OrderType) String() string {
	switch t {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return fmt.Sprintf("OrderType(%d)", t)
	}
}

func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToLower(s) {
	case "bid":
		return Bid, nil
	case "ask":
		return Ask, nil
	}
	return OrderTypeUnknown, xerrors.Errorf("unknown order type %q", s)
}

type OrderStatus uint8

const (
	OrderStatusUnknown OrderStatus = iota
	OrderInactive
	OrderActive
)

func (s OrderStatus) String() string {
	switch s {
	case OrderInactive:
		return "inactive"
	case OrderActive:
		return "active"
	default:
		return fmt.Sprintf("OrderStatus(%d)", s)
	}
}

type DealStatus uint8

const (
	DealStatusUnknown DealStatus = iota
	DealAccepted
	DealClosed
)

func (s DealStatus) String() string {
	switch s {
	case DealAccepted:
		return "accepted"
	case DealClosed:
		return "closed"
	default:
		return fmt.Sprintf("DealStatus(%d)", s)
	}
}

type RequestStatus uint8

const (
	RequestStatusUnknown RequestStatus = iota
	RequestCreated
	RequestCanceled
	RequestRejected
	RequestAccepted
)

func (s RequestStatus) String() string {
	switch s {
	case RequestCreated:
		return "created"
	case RequestCanceled:
		return "canceled"
	case RequestRejected:
		return "rejected"
	case RequestAccepted:
		return "accepted"
	default:
		return fmt.Sprintf("RequestStatus(%d)", s)
	}
}

// IdentityLevel is the verification tier of a participant. Levels are
// ordered, a higher level satisfies every lower requirement.
type IdentityLevel uint8

const (
	IdentityUnknown IdentityLevel = iota
	IdentityAnonymous
	IdentityRegistered
	IdentityIdentified
	IdentityProfessional
)

var identityNames = map[IdentityLevel]string{
	IdentityUnknown:      "unknown",
	IdentityAnonymous:    "anonymous",
	IdentityRegistered:   "registered",
	IdentityIdentified:   "identified",
	IdentityProfessional: "professional",
}

func (l IdentityLevel) String() string {
	if n, ok := identityNames[l]; ok {
		return n
	}
	return fmt.Sprintf("IdentityLevel(%d)", l)
}

func ParseIdentityLevel(s string) (IdentityLevel, error) {
	for l, n := range identityNames {
		if strings.EqualFold(n, s) {
			return l, nil
		}
	}
	return IdentityUnknown, xerrors.Errorf("unknown identity level %q", s)
}

// BlacklistPerson selects who, if anyone, the consumer blacklists when
// closing a deal.
type BlacklistPerson uint8

const (
	BlacklistNobody BlacklistPerson = iota
	BlacklistWorker
	BlacklistMaster
)

func (p BlacklistPerson) String() string {
	switch p {
	case BlacklistNobody:
		return "nobody"
	case BlacklistWorker:
		return "worker"
	case BlacklistMaster:
		return "master"
	default:
		return fmt.Sprintf("BlacklistPerson(%d)", p)
	}
}

func ParseBlacklistPerson(s string) (BlacklistPerson, error) {
	switch strings.ToLower(s) {
	case "", "nobody":
		return BlacklistNobody, nil
	case "worker":
		return BlacklistWorker, nil
	case "master":
		return BlacklistMaster, nil
	}
	return BlacklistNobody, xerrors.Errorf("unknown blacklist target %q", s)
}

// Role is the side of a deal a participant acts for.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleConsumer
	RoleSupplier
)

func (r Role) String() string {
	switch r {
	case RoleConsumer:
		return "consumer"
	case RoleSupplier:
		return "supplier"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

// Opposite returns the other side of the deal.
func (r Role) Opposite() Role {
	switch r {
	case RoleConsumer:
		return RoleSupplier
	case RoleSupplier:
		return RoleConsumer
	}
	return RoleUnknown
}
