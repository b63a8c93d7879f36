package services

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/locate"
)

// Ensure LocatorService implements the interface.
var _ driving.LocationResolver = (*LocatorService)(nil)

// LocatorService exposes the location engine to driving adapters.
type LocatorService struct {
	engine *locate.Engine
}

// NewLocatorService creates a locator service.
func NewLocatorService(minPartialLength int) *LocatorService {
	return &LocatorService{engine: locate.New(locate.WithMinPartialLength(minPartialLength))}
}

// Locate resolves quote in text.
func (s *LocatorService) Locate(quote, text string, opts domain.LocateOptions) (domain.LocationMatch, bool) {
	return s.engine.Locate(quote, text, opts)
}
