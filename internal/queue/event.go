// Package queue defines the catalog events exchanged over RabbitMQ and the
// consumer that reacts to them.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-showtimes/internal/utils"
)

// EventCatalogChanged is both the event type and the queue name.
const EventCatalogChanged = "catalog.changed"

// CatalogEvent is published after every change to the stored showtimes or
// the featured pin.  Consumers use it to drop cached listing pages.
type CatalogEvent struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason"`             // e.g. "create", "import", "janitor"
	Affected int64     `json:"affected,omitempty"` // rows touched, when known
	At       time.Time `json:"at"`
}

// NewCatalogEvent stamps a new event with a fresh id and the current time.
func NewCatalogEvent(reason string, affected int64) CatalogEvent {
	return CatalogEvent{
		ID:       utils.NewID(),
		Type:     EventCatalogChanged,
		Reason:   reason,
		Affected: affected,
		At:       time.Now().UTC(),
	}
}
