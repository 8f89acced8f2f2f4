package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"labportal/internal/models"

	"github.com/google/uuid"
)

const itemColumns = `id, title, type, price_rate, capacity, description, image_url, created_at, updated_at`

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	err := row.Scan(&item.ID, &item.Title, &item.Type, &item.PriceRate, &item.Capacity,
		&item.Description, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SyncItems upserts the configured catalogue and reloads the cache.
func (db *DB) SyncItems(ctx context.Context, items []models.Item) error {
	query := `INSERT INTO items (id, title, type, price_rate, capacity, description, image_url, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                title = excluded.title,
                price_rate = excluded.price_rate,
                capacity = excluded.capacity,
                description = excluded.description,
                image_url = excluded.image_url,
                updated_at = excluded.updated_at`
	now := time.Now()
	for _, item := range items {
		if _, err := db.ExecContext(ctx, query,
			item.ID, item.Title, item.Type, item.PriceRate, item.Capacity,
			item.Description, item.ImageURL, now, now,
		); err != nil {
			return fmt.Errorf("failed to sync item %s: %w", item.ID, err)
		}
	}
	return db.LoadItems(ctx)
}

func (db *DB) LoadItems(ctx context.Context) error {
	items, err := db.queryItems(ctx)
	if err != nil {
		return err
	}
	cache := make(map[string]*models.Item, len(items))
	for _, item := range items {
		cache[item.ID] = item
	}
	db.mu.Lock()
	db.itemsCache = cache
	db.mu.Unlock()

	db.logger.Debug().Int("count", len(items)).Msg("Items cache loaded")
	return nil
}

func (db *DB) GetItem(ctx context.Context, id string) (*models.Item, error) {
	db.mu.RLock()
	cached, ok := db.itemsCache[id]
	db.mu.RUnlock()
	if ok {
		item := *cached
		return &item, nil
	}

	item, err := scanItem(db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	db.cacheItem(item)
	return item, nil
}

func (db *DB) ListItems(ctx context.Context) ([]*models.Item, error) {
	items, err := db.queryItems(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Title < items[j].Title })
	return items, nil
}

func (db *DB) queryItems(ctx context.Context) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now()
	query := `INSERT INTO items (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		item.ID, item.Title, item.Type, item.PriceRate, item.Capacity,
		item.Description, item.ImageURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	db.cacheItem(item)
	return nil
}

// UpdateItem never changes the item type.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	now := time.Now()
	query := `UPDATE items SET title = ?, price_rate = ?, capacity = ?, description = ?, image_url = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		item.Title, item.PriceRate, item.Capacity, item.Description, item.ImageURL, now, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %s: %w", item.ID, ErrNotFound)
	}

	db.mu.Lock()
	delete(db.itemsCache, item.ID)
	db.mu.Unlock()

	updated, err := db.GetItem(ctx, item.ID)
	if err != nil {
		return err
	}
	*item = *updated
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	db.mu.Lock()
	delete(db.itemsCache, id)
	db.mu.Unlock()
	return nil
}

func (db *DB) cacheItem(item *models.Item) {
	cp := *item
	db.mu.Lock()
	db.itemsCache[item.ID] = &cp
	db.mu.Unlock()
}
