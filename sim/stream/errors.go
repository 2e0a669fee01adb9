package stream

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrNoSubscriber: a reading was published for a location nobody consumes.
	ErrNoSubscriber = errors.New("no subscriber for location")

	// ErrRouterClosed: the router no longer accepts readings. Consumers see it
	// once their queue is drained.
	ErrRouterClosed = errors.New("router closed")

	// ErrAlreadySubscribed: a location has exactly one consumer.
	ErrAlreadySubscribed = errors.New("location already subscribed")
)

// Routing failure reasons, used as the reason label on kongo_routing_failures_total.
const (
	reasonNoSubscriber = "no_subscriber"
	reasonClosed       = "closed"
)

func noSubscriber(location string) error {
	return oops.
		Code("NO_SUBSCRIBER").
		With("location", location).
		Wrapf(ErrNoSubscriber, "location %q", location)
}

func routerClosed(location string) error {
	return oops.
		Code("ROUTER_CLOSED").
		With("location", location).
		Wrapf(ErrRouterClosed, "location %q", location)
}
