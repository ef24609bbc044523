package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/replysim/internal/store"
)

// CompanyFinder is the slice of the company store the selector needs.
type CompanyFinder interface {
	RandomCompanyName(ctx context.Context) (string, error)
}

// CompanySelector resolves the company a task writes on behalf of.
type CompanySelector struct {
	companies CompanyFinder
}

func NewCompanySelector(companies CompanyFinder) *CompanySelector {
	return &CompanySelector{companies: companies}
}

// Select returns pinned unchanged when it is non-empty, whitespace included.
// Pinned names are not checked against the store. Otherwise one company is
// drawn at random.
func (s *CompanySelector) Select(ctx context.Context, pinned string) (string, error) {
	if pinned != "" {
		return pinned, nil
	}

	name, err := s.companies.RandomCompanyName(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNoCompaniesAvailable
	}
	if err != nil {
		return "", fmt.Errorf("select company: %w", err)
	}
	return name, nil
}
