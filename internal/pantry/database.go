package pantry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	itemsBucket     = "items"
	productsBucket  = "products"
	shelfLifeBucket = "shelf_life"
)

// DB defines the interface for database operations
type DB interface {
	// SaveItem inserts or replaces an item
	SaveItem(item *FoodItem) error

	// GetItem retrieves an item by ID, or ErrItemNotFound
	GetItem(id string) (*FoodItem, error)

	// ListItems returns all items in no particular order
	ListItems() ([]*FoodItem, error)

	// DeleteItem removes an item, or returns ErrItemNotFound
	DeleteItem(id string) error

	// SaveProduct inserts or replaces a catalog entry
	SaveProduct(product *Product) error

	// FindProductByCode returns the product for a UPC, or nil if there is none
	FindProductByCode(code string) (*Product, error)

	// SaveShelfLife inserts or replaces a reference entry, keyed by food name
	SaveShelfLife(entry *ShelfLife) error

	// ListShelfLives returns all reference entries
	ListShelfLives() ([]*ShelfLife, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{itemsBucket, productsBucket, shelfLifeBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) put(bucket, key string, value any) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshaling %s entry: %w", bucket, err)
		}
		return tx.Bucket([]byte(bucket)).Put([]byte(key), data)
	})
}

// get decodes the value at key into out and reports whether it existed
func (b *BoltDB) get(bucket, key string, out any) (bool, error) {
	found := false
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, out)
	})
	return found, err
}

// SaveItem inserts or replaces an item
func (b *BoltDB) SaveItem(item *FoodItem) error {
	return b.put(itemsBucket, item.ID, item)
}

// GetItem retrieves an item by ID
func (b *BoltDB) GetItem(id string) (*FoodItem, error) {
	var item FoodItem
	found, err := b.get(itemsBucket, id, &item)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling item: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return &item, nil
}

// ListItems returns all items
func (b *BoltDB) ListItems() ([]*FoodItem, error) {
	items := make([]*FoodItem, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(itemsBucket)).ForEach(func(k, v []byte) error {
			var item FoodItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshaling item: %w", err)
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteItem removes an item from the database
func (b *BoltDB) DeleteItem(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(itemsBucket))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// SaveProduct inserts or replaces a catalog entry
func (b *BoltDB) SaveProduct(product *Product) error {
	return b.put(productsBucket, product.UPCCode, product)
}

// FindProductByCode returns the product for a UPC
func (b *BoltDB) FindProductByCode(code string) (*Product, error) {
	var product Product
	found, err := b.get(productsBucket, code, &product)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling product: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &product, nil
}

// SaveShelfLife inserts or replaces a reference entry
func (b *BoltDB) SaveShelfLife(entry *ShelfLife) error {
	return b.put(shelfLifeBucket, strings.ToLower(entry.FoodName), entry)
}

// ListShelfLives returns all reference entries
func (b *BoltDB) ListShelfLives() ([]*ShelfLife, error) {
	entries := make([]*ShelfLife, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(shelfLifeBucket)).ForEach(func(k, v []byte) error {
			var entry ShelfLife
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling shelf life: %w", err)
			}
			entries = append(entries, &entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
