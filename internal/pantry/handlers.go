package pantry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zombor/pantry-tracker/internal/analysis"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes v as a JSON response with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes an {"error": message} response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// decodeBody decodes a bounded JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListItems returns all items, soonest expiring first
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems()
	if err != nil {
		slog.Error("Error listing items", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAddItem creates an item
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req NewItem
	if err := decodeBody(w, r, &req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	item, err := s.service.AddItem(req)
	if err != nil {
		if errors.Is(err, ErrInvalidItem) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error adding item", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"id":      item.ID,
		"message": "Item added successfully",
	})
}

// handleUpdateQuantity sets an item's quantity, deleting it at zero
func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity *float64 `json:"quantity"`
	}
	if err := decodeBody(w, r, &req); err != nil || req.Quantity == nil {
		jsonError(w, "Quantity is required", http.StatusBadRequest)
		return
	}

	deleted, err := s.service.UpdateQuantity(r.PathValue("id"), *req.Quantity)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			jsonError(w, "Item not found", http.StatusNotFound)
			return
		}
		slog.Error("Error updating quantity", "id", r.PathValue("id"), "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	message := "Quantity updated successfully"
	if deleted {
		message = "Item deleted (quantity reached 0)"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// handleDeleteItem deletes an item
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteItem(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			jsonError(w, "Item not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting item", "id", r.PathValue("id"), "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// handleCategories returns unexpired item counts per category
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.Categories()
	if err != nil {
		slog.Error("Error counting categories", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// handleExpiring returns the items expiring within ?days= (default 7)
func (s *Server) handleExpiring(w http.ResponseWriter, r *http.Request) {
	days := defaultExpiringDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			jsonError(w, "days must be a non-negative integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	items, err := s.service.ExpiringItems(days)
	if err != nil {
		slog.Error("Error listing expiring items", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(items),
		"items": items,
	})
}

// handleLookupUPC returns the catalog product for a barcode
func (s *Server) handleLookupUPC(w http.ResponseWriter, r *http.Request) {
	product, err := s.service.LookupProduct(r.PathValue("code"))
	if err != nil {
		slog.Error("Error looking up UPC", "code", r.PathValue("code"), "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		jsonError(w, "UPC code not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// handleFoodExpiration returns the shelf life reference for a food name
func (s *Server) handleFoodExpiration(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.FoodExpiration(r.PathValue("name"))
	if err != nil {
		slog.Error("Error looking up shelf life", "name", r.PathValue("name"), "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleAnalyzeImage classifies a captured photo as barcode, receipt or none
func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageData string `json:"imageData"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "Image is too large. Maximum size is 50MB.", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.AnalyzeImage(r.Context(), req.ImageData)
	switch {
	case errors.Is(err, ErrNoImage):
		jsonError(w, "No image data provided", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidImage):
		jsonError(w, "Invalid image data", http.StatusBadRequest)
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to analyze image",
			"type":    string(analysis.VerdictNone),
			"message": "Error processing image. Please try again.",
		})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}
