// Sentinel values returned by the catalog store.  Handlers translate
// ErrShowtimeNotFound into 404 and ErrNoChange into 200 with a
// "no change" message.

package repository

import "errors"

// ErrShowtimeNotFound indicates that a showtime was not located in the DB.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")
