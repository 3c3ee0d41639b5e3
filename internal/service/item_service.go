package service

import (
	"context"
	"database/sql"
	"errors"

	"store-catalog-service/internal/entity"
	"store-catalog-service/internal/events"
	"store-catalog-service/internal/repository"
)

type ItemService struct {
	itemRepo repository.ItemRepository
	events   *events.Publisher
}

// NewItemService creates a new instance of ItemService.
func NewItemService(itemRepo repository.ItemRepository, events *events.Publisher) *ItemService {
	return &ItemService{
		itemRepo: itemRepo,
		events:   events,
	}
}

// GetItem retrieves an item by name.
func (s *ItemService) GetItem(ctx context.Context, name string) (*entity.Item, error) {
	item, err := s.itemRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Msgf("Error getting item %s", name)
		return nil, storageError(err)
	}

	return item, nil
}

// ListItems retrieves every item.
func (s *ItemService) ListItems(ctx context.Context) ([]*entity.Item, error) {
	items, err := s.itemRepo.FindAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing items")
		return nil, storageError(err)
	}
	if items == nil {
		items = []*entity.Item{}
	}

	return items, nil
}

// CreateItem creates a new item unless one with the same name exists.
// The store_id must reference an existing store; the foreign key rejects
// the write otherwise.
func (s *ItemService) CreateItem(ctx context.Context, name string, price float64, storeID int) (*entity.Item, error) {
	_, err := s.itemRepo.FindByName(ctx, name)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msgf("Error checking item %s", name)
		return nil, storageError(err)
	}

	item := &entity.Item{Name: name, Price: price, StoreID: storeID}
	if err := s.itemRepo.Save(ctx, item); err != nil {
		logger.Error().Err(err).Msgf("Error creating item %s", name)
		return nil, storageError(err)
	}

	s.publish(ctx, "created", item)
	return item, nil
}

// UpsertItem creates the item when absent and overwrites its price when
// present. Name and store association stay immutable through this path.
func (s *ItemService) UpsertItem(ctx context.Context, name string, price float64, storeID int) (*entity.Item, error) {
	item, err := s.itemRepo.Upsert(ctx, name, price, storeID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error upserting item %s", name)
		return nil, storageError(err)
	}

	s.publish(ctx, "updated", item)
	return item, nil
}

// DeleteItem removes an item by name. Deleting an absent item is a no-op.
func (s *ItemService) DeleteItem(ctx context.Context, name string) error {
	item, err := s.itemRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		logger.Error().Err(err).Msgf("Error getting item %s", name)
		return storageError(err)
	}

	if err := s.itemRepo.Delete(ctx, item.ID); err != nil {
		logger.Error().Err(err).Msgf("Error deleting item %s", name)
		return storageError(err)
	}

	s.publish(ctx, "deleted", item)
	return nil
}

func (s *ItemService) publish(ctx context.Context, action string, item *entity.Item) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, "item", action, item.ID, item); err != nil {
		logger.Warn().Err(err).Msgf("Error publishing item %s event for item %d", action, item.ID)
	}
}
