package driving

import "github.com/custodia-labs/marginalia/internal/core/domain"

// LocationResolver resolves a quote to an exact range of a text.
type LocationResolver interface {
	// Locate returns the best match, or false if no strategy matched.
	Locate(quote, text string, opts domain.LocateOptions) (domain.LocationMatch, bool)
}
