package service

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/rs/zerolog"

	"store-catalog-service/internal/entity"
	"store-catalog-service/internal/events"
	"store-catalog-service/internal/repository"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type StoreService struct {
	storeRepo repository.StoreRepository
	itemRepo  repository.ItemRepository
	events    *events.Publisher
}

// NewStoreService creates a new instance of StoreService.
func NewStoreService(storeRepo repository.StoreRepository, itemRepo repository.ItemRepository, events *events.Publisher) *StoreService {
	return &StoreService{
		storeRepo: storeRepo,
		itemRepo:  itemRepo,
		events:    events,
	}
}

// GetStore retrieves a store by name with its items embedded.
func (s *StoreService) GetStore(ctx context.Context, name string) (*entity.Store, error) {
	store, err := s.storeRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Msgf("Error getting store %s", name)
		return nil, storageError(err)
	}

	if err := s.attachItems(ctx, store); err != nil {
		return nil, err
	}

	return store, nil
}

// ListStores retrieves every store, each with its items embedded.
func (s *StoreService) ListStores(ctx context.Context) ([]*entity.Store, error) {
	stores, err := s.storeRepo.FindAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing stores")
		return nil, storageError(err)
	}
	if stores == nil {
		stores = []*entity.Store{}
	}

	for _, store := range stores {
		if err := s.attachItems(ctx, store); err != nil {
			return nil, err
		}
	}

	return stores, nil
}

// CreateStore creates a new store unless one with the same name exists.
func (s *StoreService) CreateStore(ctx context.Context, name string) (*entity.Store, error) {
	_, err := s.storeRepo.FindByName(ctx, name)
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msgf("Error checking store %s", name)
		return nil, storageError(err)
	}

	store := &entity.Store{Name: name, Items: []*entity.Item{}}
	if err := s.storeRepo.Save(ctx, store); err != nil {
		logger.Error().Err(err).Msgf("Error creating store %s", name)
		return nil, storageError(err)
	}

	s.publish(ctx, "created", store)
	return store, nil
}

// DeleteStore removes a store by name.
func (s *StoreService) DeleteStore(ctx context.Context, name string) error {
	store, err := s.storeRepo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		logger.Error().Err(err).Msgf("Error getting store %s", name)
		return storageError(err)
	}

	if err := s.storeRepo.Delete(ctx, store.ID); err != nil {
		logger.Error().Err(err).Msgf("Error deleting store %s", name)
		return storageError(err)
	}

	s.publish(ctx, "deleted", store)
	return nil
}

func (s *StoreService) attachItems(ctx context.Context, store *entity.Store) error {
	items, err := s.itemRepo.FindByStoreID(ctx, store.ID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting items for store %d", store.ID)
		return storageError(err)
	}
	if items == nil {
		items = []*entity.Item{}
	}
	store.Items = items
	return nil
}

func (s *StoreService) publish(ctx context.Context, action string, store *entity.Store) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, "store", action, store.ID, store); err != nil {
		logger.Warn().Err(err).Msgf("Error publishing store %s event for store %d", action, store.ID)
	}
}
