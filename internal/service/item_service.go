package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labportal/internal/booking"
	"labportal/internal/database"
	"labportal/internal/domain"
	"labportal/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.ItemRepository
	logger *zerolog.Logger
}

func NewItemService(repo domain.ItemRepository, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, logger: logger}
}

func (s *ItemService) ListItems(ctx context.Context) ([]*models.Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, err
}

func (s *ItemService) CreateItem(ctx context.Context, item *models.Item) error {
	item.Title = strings.TrimSpace(item.Title)
	if !item.Type.Valid() {
		return &booking.ValidationError{Field: "type", Reason: fmt.Sprintf("item type must be %q or %q", models.ItemTypeLab, models.ItemTypeEquipment)}
	}
	if err := validateItemFields(item); err != nil {
		return err
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return err
	}
	s.logger.Info().Str("item_id", item.ID).Str("type", string(item.Type)).Msg("item created")
	return nil
}

// UpdateItem edits descriptive fields. The type is fixed at creation.
func (s *ItemService) UpdateItem(ctx context.Context, item *models.Item) error {
	current, err := s.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if item.Type != "" && item.Type != current.Type {
		return &booking.ValidationError{Field: "type", Reason: "item type cannot be changed after creation"}
	}
	item.Type = current.Type
	item.Title = strings.TrimSpace(item.Title)
	if err := validateItemFields(item); err != nil {
		return err
	}
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return err
	}
	s.logger.Info().Str("item_id", item.ID).Msg("item updated")
	return nil
}

func (s *ItemService) DeleteItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return err
	}
	s.logger.Info().Str("item_id", id).Msg("item deleted")
	return nil
}

func validateItemFields(item *models.Item) error {
	if item.Title == "" {
		return &booking.ValidationError{Field: "title", Reason: "item title is required"}
	}
	if item.PriceRate < 0 {
		return &booking.ValidationError{Field: "priceRate", Reason: "price rate must not be negative"}
	}
	if item.Capacity != "" && item.Type != models.ItemTypeLab {
		return &booking.ValidationError{Field: "capacity", Reason: "capacity applies to labs only"}
	}
	return nil
}
