package catalog

import (
	"net/url"
	"strings"
)

// TicketURL returns the purchase link for a booking reference, or "" when
// the reference is blank.
func TicketURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(ref)
}
