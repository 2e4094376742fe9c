package pantry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/pantry-tracker/internal/analysis"
)

const (
	defaultQuantity     = 1
	defaultUnit         = "item"
	defaultExpiringDays = 7
	maxExpiringItems    = 10
)

var (
	// ErrNoImage is returned when an analyze request carries no image payload
	ErrNoImage = errors.New("no image data provided")
	// ErrInvalidImage is returned when the image payload cannot be decoded
	ErrInvalidImage = errors.New("invalid image data")
	// ErrItemNotFound is returned when an item ID does not exist
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidItem is returned when a new item is missing required fields
	ErrInvalidItem = errors.New("invalid item")
)

// IDGenerator generates unique IDs for items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles pantry operations
type Service struct {
	db          DB
	analyzer    analysis.Backend
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID IDs and the wall clock
func NewService(db DB, analyzer analysis.Backend) *Service {
	return NewServiceWithDeps(db, analyzer, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, analyzer analysis.Backend, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		analyzer:    analyzer,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ListItems returns all items ordered by days left, soonest first
func (s *Service) ListItems() ([]*FoodItem, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	now := s.timeSource.Now()
	for _, item := range items {
		item.DaysLeft = DaysLeft(item.ExpirationDate, now)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DaysLeft != items[j].DaysLeft {
			return items[i].DaysLeft < items[j].DaysLeft
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

// AddItem validates and stores a new item. A missing expiration date is
// estimated from the category.
func (s *Service) AddItem(req NewItem) (*FoodItem, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" {
		return nil, fmt.Errorf("%w: name and category are required", ErrInvalidItem)
	}

	now := s.timeSource.Now()
	expiration := SuggestedExpiration(category, now)
	if req.ExpirationDate != "" {
		parsed, err := parseExpiration(req.ExpirationDate, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: expiration date %q: %w", ErrInvalidItem, req.ExpirationDate, err)
		}
		expiration = parsed
	}

	quantity := float64(defaultQuantity)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = defaultUnit
	}

	item := &FoodItem{
		ID:             s.idGenerator.Generate(),
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		Category:       category,
		ExpirationDate: expiration,
		AddedDate:      now,
		UPCCode:        stripSpace(req.UPCCode),
		Quantity:       quantity,
		Unit:           unit,
	}
	if err := s.db.SaveItem(item); err != nil {
		return nil, fmt.Errorf("saving item: %w", err)
	}
	item.DaysLeft = DaysLeft(item.ExpirationDate, now)

	slog.Info("Added item", "id", item.ID, "name", item.Name, "category", item.Category)
	return item, nil
}

// UpdateQuantity sets an item's quantity. A quantity of zero or less removes
// the item, and deleted reports that it did.
func (s *Service) UpdateQuantity(id string, quantity float64) (deleted bool, err error) {
	if quantity <= 0 {
		if err := s.db.DeleteItem(id); err != nil {
			return false, fmt.Errorf("deleting item: %w", err)
		}
		return true, nil
	}

	item, err := s.db.GetItem(id)
	if err != nil {
		return false, fmt.Errorf("getting item: %w", err)
	}
	item.Quantity = quantity
	if err := s.db.SaveItem(item); err != nil {
		return false, fmt.Errorf("saving item: %w", err)
	}
	return false, nil
}

// DeleteItem removes an item
func (s *Service) DeleteItem(id string) error {
	if err := s.db.DeleteItem(id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// Categories counts unexpired items per category, sorted by category
func (s *Service) Categories() ([]CategoryCount, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	now := s.timeSource.Now()
	counts := make(map[string]int)
	for _, item := range items {
		if DaysLeft(item.ExpirationDate, now) > 0 {
			counts[item.Category]++
		}
	}

	categories := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		categories = append(categories, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Category < categories[j].Category
	})
	return categories, nil
}

// ExpiringItems returns up to ten items that expire within days, soonest
// first. Already expired items are left out.
func (s *Service) ExpiringItems(days int) ([]ExpiringItem, error) {
	items, err := s.ListItems()
	if err != nil {
		return nil, err
	}

	expiring := make([]ExpiringItem, 0)
	for _, item := range items {
		if item.DaysLeft < 0 || item.DaysLeft > days {
			continue
		}
		expiring = append(expiring, ExpiringItem{
			Name:     item.Name,
			Category: item.Category,
			DaysLeft: item.DaysLeft,
		})
		if len(expiring) == maxExpiringItems {
			break
		}
	}
	return expiring, nil
}

// LookupProduct resolves a UPC against the catalog. Whitespace in code is
// ignored. Returns nil when the code is unknown.
func (s *Service) LookupProduct(code string) (*Product, error) {
	product, err := s.db.FindProductByCode(stripSpace(code))
	if err != nil {
		return nil, fmt.Errorf("finding product: %w", err)
	}
	return product, nil
}

// FoodExpiration finds the shortest reference entry whose name contains
// name, ignoring case. Unknown foods get a one-week pantry default.
func (s *Service) FoodExpiration(name string) (*ShelfLife, error) {
	query := strings.ToLower(strings.TrimSpace(name))
	entries, err := s.db.ListShelfLives()
	if err != nil {
		return nil, fmt.Errorf("listing shelf lives: %w", err)
	}

	var best *ShelfLife
	for _, entry := range entries {
		if !strings.Contains(strings.ToLower(entry.FoodName), query) {
			continue
		}
		if best == nil || len(entry.FoodName) < len(best.FoodName) ||
			(len(entry.FoodName) == len(best.FoodName) && entry.FoodName < best.FoodName) {
			best = entry
		}
	}
	if best == nil {
		return defaultShelfLife(query), nil
	}
	return best, nil
}

// AnalyzeImage decodes a data URL or bare base64 image and runs it through
// the analysis backend
func (s *Service) AnalyzeImage(ctx context.Context, imageData string) (*analysis.Result, error) {
	data, contentType, err := decodeImageData(imageData)
	if err != nil {
		return nil, err
	}

	slog.Info("Analyzing image", "content_type", contentType, "size", len(data))
	result, err := s.analyzer.Analyze(ctx, data, contentType)
	if err != nil {
		slog.Error("Image analysis failed", "content_type", contentType, "size", len(data), "error", err)
		return nil, fmt.Errorf("analyzing image: %w", err)
	}

	slog.Info("Image analyzed", "type", result.Type, "items", len(result.Items), "barcode", result.Barcode)
	return result, nil
}

// decodeImageData accepts "data:<mime>;base64,<payload>" or a bare base64
// payload. Without a declared type the content is sniffed.
func decodeImageData(imageData string) ([]byte, string, error) {
	payload := strings.TrimSpace(imageData)
	if payload == "" {
		return nil, "", ErrNoImage
	}

	contentType := ""
	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		mediaType, isBase64 := strings.CutSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		if !isBase64 {
			return nil, "", fmt.Errorf("%w: data URL is not base64", ErrInvalidImage)
		}
		contentType = strings.ToLower(mediaType)
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, "", ErrNoImage
	}

	if contentType == "" {
		contentType, _, _ = strings.Cut(http.DetectContentType(data), ";")
	}
	return data, contentType, nil
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
