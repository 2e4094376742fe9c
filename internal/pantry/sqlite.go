package pantry

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Register the sqlite3 driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS food_items (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	expiration_date TIMESTAMP NOT NULL,
	added_date TIMESTAMP NOT NULL,
	upc_code TEXT NOT NULL DEFAULT '',
	quantity REAL NOT NULL DEFAULT 1,
	unit TEXT NOT NULL DEFAULT 'item'
);

CREATE TABLE IF NOT EXISTS products (
	upc_code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	size TEXT NOT NULL DEFAULT '',
	unit TEXT NOT NULL DEFAULT 'item',
	shelf_life_days INTEGER NOT NULL,
	storage_type TEXT NOT NULL DEFAULT 'pantry',
	typical_quantity REAL NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS food_expiration (
	food_key TEXT PRIMARY KEY,
	food_name TEXT NOT NULL,
	category TEXT NOT NULL,
	shelf_life_days INTEGER NOT NULL,
	storage_type TEXT NOT NULL DEFAULT 'pantry'
);
`

const itemColumns = `id, name, description, category, expiration_date, added_date, upc_code, quantity, unit`

// SQLiteDB implements the DB interface on a SQLite file
type SQLiteDB struct {
	db *sqlx.DB
}

// NewSQLiteDB opens or creates the database at path and applies the schema
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sqlx.Open("sqlite3", path+"?_busy_timeout=1000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// SaveItem inserts or replaces an item
func (s *SQLiteDB) SaveItem(item *FoodItem) error {
	_, err := s.db.NamedExec(`INSERT OR REPLACE INTO food_items (`+itemColumns+`)
		VALUES (:id, :name, :description, :category, :expiration_date, :added_date, :upc_code, :quantity, :unit)`, item)
	if err != nil {
		return fmt.Errorf("saving item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by ID
func (s *SQLiteDB) GetItem(id string) (*FoodItem, error) {
	var item FoodItem
	err := s.db.Get(&item, `SELECT `+itemColumns+` FROM food_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

// ListItems returns all items
func (s *SQLiteDB) ListItems() ([]*FoodItem, error) {
	items := make([]*FoodItem, 0)
	if err := s.db.Select(&items, `SELECT `+itemColumns+` FROM food_items`); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// DeleteItem removes an item from the database
func (s *SQLiteDB) DeleteItem(id string) error {
	res, err := s.db.Exec(`DELETE FROM food_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return nil
}

// SaveProduct inserts or replaces a catalog entry
func (s *SQLiteDB) SaveProduct(product *Product) error {
	_, err := s.db.NamedExec(`INSERT OR REPLACE INTO products
		(upc_code, name, description, category, brand, size, unit, shelf_life_days, storage_type, typical_quantity)
		VALUES (:upc_code, :name, :description, :category, :brand, :size, :unit, :shelf_life_days, :storage_type, :typical_quantity)`, product)
	if err != nil {
		return fmt.Errorf("saving product: %w", err)
	}
	return nil
}

// FindProductByCode returns the product for a UPC
func (s *SQLiteDB) FindProductByCode(code string) (*Product, error) {
	var product Product
	err := s.db.Get(&product, `SELECT upc_code, name, description, category, brand, size, unit,
		shelf_life_days, storage_type, typical_quantity FROM products WHERE upc_code = ?`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding product: %w", err)
	}
	return &product, nil
}

// SaveShelfLife inserts or replaces a reference entry
func (s *SQLiteDB) SaveShelfLife(entry *ShelfLife) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO food_expiration
		(food_key, food_name, category, shelf_life_days, storage_type) VALUES (LOWER(?), ?, ?, ?, ?)`,
		entry.FoodName, entry.FoodName, entry.Category, entry.ShelfLifeDays, entry.StorageType)
	if err != nil {
		return fmt.Errorf("saving shelf life: %w", err)
	}
	return nil
}

// ListShelfLives returns all reference entries
func (s *SQLiteDB) ListShelfLives() ([]*ShelfLife, error) {
	entries := make([]*ShelfLife, 0)
	err := s.db.Select(&entries, `SELECT food_name, category, shelf_life_days, storage_type FROM food_expiration`)
	if err != nil {
		return nil, fmt.Errorf("listing shelf lives: %w", err)
	}
	return entries, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
