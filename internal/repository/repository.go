package repository

import (
	"context"
	"database/sql"
	"errors"

	"store-catalog-service/internal/entity"
)

type StoreRepository struct {
	db *sql.DB
}

func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db}
}

// FindByName returns the first store matching name in insertion order.
func (r *StoreRepository) FindByName(ctx context.Context, name string) (*entity.Store, error) {
	var store entity.Store
	query := `SELECT id, name FROM stores WHERE name = ? ORDER BY id LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&store.ID, &store.Name)
	if err != nil {
		return nil, err
	}

	return &store, nil
}

func (r *StoreRepository) FindAll(ctx context.Context) ([]*entity.Store, error) {
	var stores []*entity.Store

	query := `SELECT id, name FROM stores`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var store entity.Store
		if err := rows.Scan(&store.ID, &store.Name); err != nil {
			return nil, err
		}
		stores = append(stores, &store)
	}

	return stores, rows.Err()
}

// Save inserts the store when it carries no id and updates it otherwise.
func (r *StoreRepository) Save(ctx context.Context, store *entity.Store) error {
	if store.ID == 0 {
		res, err := r.db.ExecContext(ctx, `INSERT INTO stores (name) VALUES (?)`, store.Name)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		store.ID = int(id)
		return nil
	}

	_, err := r.db.ExecContext(ctx, `UPDATE stores SET name = ? WHERE id = ?`, store.Name, store.ID)
	return err
}

func (r *StoreRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	return err
}

type ItemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db}
}

// FindByName returns the first item matching name in insertion order.
func (r *ItemRepository) FindByName(ctx context.Context, name string) (*entity.Item, error) {
	var item entity.Item
	query := `SELECT id, name, price, store_id FROM items WHERE name = ? ORDER BY id LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, name).Scan(&item.ID, &item.Name, &item.Price, &item.StoreID)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *ItemRepository) FindAll(ctx context.Context) ([]*entity.Item, error) {
	query := `SELECT id, name, price, store_id FROM items`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *ItemRepository) FindByStoreID(ctx context.Context, storeID int) ([]*entity.Item, error) {
	query := `SELECT id, name, price, store_id FROM items WHERE store_id = ?`
	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]*entity.Item, error) {
	var items []*entity.Item
	for rows.Next() {
		var item entity.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.StoreID); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// Save inserts the item when it carries no id and updates it otherwise.
func (r *ItemRepository) Save(ctx context.Context, item *entity.Item) error {
	if item.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO items (name, price, store_id) VALUES (?, ?, ?)`,
			item.Name, item.Price, item.StoreID)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		item.ID = int(id)
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE items SET name = ?, price = ?, store_id = ? WHERE id = ?`,
		item.Name, item.Price, item.StoreID, item.ID)
	return err
}

// Upsert creates the item when no row matches name and otherwise overwrites
// its price. The read and write run in one transaction so two concurrent
// upserts for the same name cannot both insert.
func (r *ItemRepository) Upsert(ctx context.Context, name string, price float64, storeID int) (*entity.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var item entity.Item
	query := `SELECT id, name, price, store_id FROM items WHERE name = ? ORDER BY id LIMIT 1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, name).Scan(&item.ID, &item.Name, &item.Price, &item.StoreID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO items (name, price, store_id) VALUES (?, ?, ?)`,
			name, price, storeID)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		item = entity.Item{ID: int(id), Name: name, Price: price, StoreID: storeID}
	case err != nil:
		return nil, err
	default:
		item.Price = price
		if _, err := tx.ExecContext(ctx, `UPDATE items SET price = ? WHERE id = ?`, price, item.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	return err
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

// FindByUsername returns the first user matching username in insertion order.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	query := `SELECT id, username, password, is_admin FROM users WHERE username = ? ORDER BY id LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Password, &user.IsAdmin)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*entity.User, error) {
	var user entity.User
	query := `SELECT id, username, password, is_admin FROM users WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Username, &user.Password, &user.IsAdmin)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `INSERT INTO users (username, password, is_admin) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Password, user.IsAdmin)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	user.ID = int(id)
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
