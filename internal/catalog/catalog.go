// Package catalog exposes the read-only package and pricing lookup the
// provisioning path depends on. The catalog itself is owned elsewhere; this
// package only consumes it through the Gateway contract.
package catalog

import (
	"context"

	dErrors "opsdesk/pkg/domain-errors"
)

// Package describes one sellable service plan.
type Package struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	SpeedMbps    int     `json:"speed_mbps"`
	MonthlyPrice float64 `json:"monthly_price"`
}

//go:generate mockgen -source=catalog.go -destination=mocks/mocks.go -package=mocks Gateway

// Gateway looks up a package by its catalog id.
type Gateway interface {
	GetPackage(ctx context.Context, id string) (*Package, error)
}

// Static serves a fixed set of packages. Stands in for the catalog service
// in development and tests.
type Static struct {
	packages map[string]Package
}

func NewStatic(packages ...Package) *Static {
	m := make(map[string]Package, len(packages))
	for _, p := range packages {
		m[p.ID] = p
	}
	return &Static{packages: m}
}

// DefaultPackages is the development seed set.
func DefaultPackages() []Package {
	return []Package{
		{ID: "pkg-home-20", Name: "Home 20", Type: "fiber", SpeedMbps: 20, MonthlyPrice: 19.90},
		{ID: "pkg-home-50", Name: "Home 50", Type: "fiber", SpeedMbps: 50, MonthlyPrice: 29.90},
		{ID: "pkg-home-100", Name: "Home 100", Type: "fiber", SpeedMbps: 100, MonthlyPrice: 44.90},
		{ID: "pkg-biz-200", Name: "Business 200", Type: "dedicated", SpeedMbps: 200, MonthlyPrice: 129.00},
	}
}

func (s *Static) GetPackage(_ context.Context, id string) (*Package, error) {
	p, ok := s.packages[id]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "package %s not found", id)
	}
	return &p, nil
}
