package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/zenartworks/revenue-backend/pkg/db/models"
	"github.com/zenartworks/revenue-backend/pkg/enums"
	pkgerrors "github.com/zenartworks/revenue-backend/pkg/errors"
)

// Service defines catalog operations over SKUs.
type Service interface {
	Resolve(ctx context.Context, code string) (*models.SKU, error)
	Upsert(ctx context.Context, input UpsertSKUInput) (*models.SKU, error)
	List(ctx context.Context, activeOnly bool) ([]models.SKU, error)
}

type service struct {
	repo Repository
}

// UpsertSKUInput carries the fields a price update or new SKU requires.
type UpsertSKUInput struct {
	Code           string
	UnitPriceMinor int64
	Currency       enums.Currency
	Active         *bool
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// Resolve returns the SKU for the given code. Inactive SKUs resolve the same
// as missing ones: the caller cannot price against them.
func (s *service) Resolve(ctx context.Context, code string) (*models.SKU, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku code required")
	}

	sku, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnknownSKU, "unknown sku").
				WithDetails(map[string]string{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sku")
	}
	if !sku.Active {
		return nil, pkgerrors.New(pkgerrors.CodeUnknownSKU, "sku is inactive").
			WithDetails(map[string]string{"code": code})
	}
	return sku, nil
}

// Upsert creates or updates the SKU for the given code. Recorded ledger
// amounts are never rewritten; a price change only affects future ingestion.
func (s *service) Upsert(ctx context.Context, input UpsertSKUInput) (*models.SKU, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku code required")
	}
	if input.UnitPriceMinor < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", input.Currency))
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	sku := &models.SKU{
		Code:           code,
		UnitPriceMinor: input.UnitPriceMinor,
		Currency:       input.Currency,
		Active:         active,
	}
	if err := s.repo.Upsert(ctx, sku); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert sku")
	}

	saved, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload sku")
	}
	return saved, nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]models.SKU, error) {
	skus, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list skus")
	}
	return skus, nil
}
