// Package lookup answers "has this identifier leaked?" questions against
// the finding store.
package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/leakwatch/internal/model"
)

// ErrNoCriteria indicates a lookup without any identifier.
var ErrNoCriteria = errors.New("no search parameters provided")

// Finder reads findings by identifier.
type Finder interface {
	FindByAny(ctx context.Context, lookup model.Lookup) ([]model.Finding, error)
}

// Service is the read path over stored findings.
type Service struct {
	finder Finder
}

// NewService creates a Service backed by finder.
func NewService(finder Finder) *Service {
	return &Service{finder: finder}
}

// Search returns the findings containing the email OR the phone OR the
// credit card of l. Surrounding whitespace is trimmed and blank fields are
// ignored; if nothing remains, ErrNoCriteria is returned. Values are
// matched exactly as stored, without any normalization of separators or
// case. The result is never nil.
func (s *Service) Search(ctx context.Context, l model.Lookup) ([]model.Finding, error) {
	l = l.Normalize()
	if l.IsEmpty() {
		return nil, ErrNoCriteria
	}

	findings, err := s.finder.FindByAny(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("lookup failed: %w", err)
	}
	if findings == nil {
		findings = []model.Finding{}
	}
	return findings, nil
}
