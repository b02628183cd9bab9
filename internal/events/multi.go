package events

import (
	"context"
	"errors"
)

// MultiPublisher fans every event out to several publishers. A failing
// publisher does not stop delivery to the others; errors are joined.
type MultiPublisher []Publisher

// Discard accepts and drops every event. The server uses it when no event
// bus is configured.
var Discard Publisher = MultiPublisher(nil)

// Combine returns the publishers as a single Publisher. Nil entries are
// skipped; with nothing left it returns Discard.
func Combine(pubs ...Publisher) Publisher {
	var out MultiPublisher
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

func (m MultiPublisher) Publish(ctx context.Context, topic string, event any) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
