package pantry

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zombor/pantry-tracker/internal/analysis"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		backend     *mockBackend
		opts        Options
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func(requests int) {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		service := NewServiceWithDeps(db, backend, &mockIDGenerator{}, &mockTimeSource{now: testNow})
		server = NewServerWithMux(service, opts, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		for i := 0; i < requests; i++ {
			ghttpServer.AppendHandlers(server.ServeHTTP)
		}
	}

	request := func(method, path string, body any) *http.Response {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequest(method, ghttpServer.URL()+path, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response, out any) {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, out)).To(Succeed())
	}

	BeforeEach(func() {
		db = newMockDB()
		backend = &mockBackend{result: analysis.NoneResult(analysis.NoDetectionMessage)}
		opts = Options{}
		setupServer(1)
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleHealth", func() {
		It("should return status OK", func() {
			resp := request("GET", "/api/health", nil)
			var body map[string]string
			decode(resp, &body)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(HaveKeyWithValue("status", "ok"))
		})
	})

	Describe("CORS", func() {
		It("should answer preflight requests", func() {
			resp := request("OPTIONS", "/api/items", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("PATCH"))
		})

		It("should set headers on regular responses", func() {
			resp := request("GET", "/api/health", nil)
			resp.Body.Close()
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("handleListItems", func() {
		When("items exist", func() {
			BeforeEach(func() {
				itemExpiringIn(db, "a", "Milk", "Dairy", 5)
				itemExpiringIn(db, "b", "Bread", "Bakery", 1)
			})

			It("should return items soonest first with days left", func() {
				resp := request("GET", "/api/items", nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

				var items []map[string]any
				decode(resp, &items)
				Expect(items).To(HaveLen(2))
				Expect(items[0]["name"]).To(Equal("Bread"))
				Expect(items[0]["days_left"]).To(BeNumerically("==", 1))
				Expect(items[1]["expiration_date"]).NotTo(BeEmpty())
			})
		})

		When("no items exist", func() {
			It("should return an empty array", func() {
				resp := request("GET", "/api/items", nil)
				defer resp.Body.Close()
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(MatchJSON(`[]`))
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("disk gone")
			})

			It("should return status Internal Server Error", func() {
				resp := request("GET", "/api/items", nil)
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(body).To(HaveKeyWithValue("error", "Internal server error"))
			})
		})
	})

	Describe("handleAddItem", func() {
		When("the item is valid", func() {
			It("should store it and return its ID", func() {
				resp := request("POST", "/api/items", map[string]any{
					"name":           "Milk",
					"category":       "Dairy",
					"expirationDate": "2024-03-27",
					"quantity":       2,
					"unit":           "gallon",
				})
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(body).To(Equal(map[string]string{
					"id":      "item-1",
					"message": "Item added successfully",
				}))
				Expect(db.items["item-1"].Quantity).To(Equal(2.0))
				Expect(db.items["item-1"].Unit).To(Equal("gallon"))
			})
		})

		When("required fields are missing", func() {
			It("should return status Bad Request", func() {
				resp := request("POST", "/api/items", map[string]any{"name": "Milk"})
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(db.items).To(BeEmpty())
			})
		})

		When("the body is not JSON", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Post(ghttpServer.URL()+"/api/items", "application/json", bytes.NewBufferString("{"))
				Expect(err).NotTo(HaveOccurred())
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(body).To(HaveKeyWithValue("error", "Invalid request body"))
			})
		})
	})

	Describe("handleUpdateQuantity", func() {
		BeforeEach(func() {
			itemExpiringIn(db, "a", "Eggs", "Dairy", 10)
		})

		When("the quantity is positive", func() {
			It("should update the item", func() {
				resp := request("PATCH", "/api/items/a/quantity", map[string]any{"quantity": 4})
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(body).To(HaveKeyWithValue("message", "Quantity updated successfully"))
				Expect(db.items["a"].Quantity).To(Equal(4.0))
			})
		})

		When("the quantity reaches zero", func() {
			It("should delete the item", func() {
				resp := request("PATCH", "/api/items/a/quantity", map[string]any{"quantity": 0})
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(body).To(HaveKeyWithValue("message", "Item deleted (quantity reached 0)"))
				Expect(db.items).NotTo(HaveKey("a"))
			})
		})

		When("the quantity is missing", func() {
			It("should return status Bad Request", func() {
				resp := request("PATCH", "/api/items/a/quantity", map[string]any{})
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(body).To(HaveKeyWithValue("error", "Quantity is required"))
			})
		})

		When("the item does not exist", func() {
			It("should return status Not Found", func() {
				resp := request("PATCH", "/api/items/missing/quantity", map[string]any{"quantity": 3})
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleDeleteItem", func() {
		It("should delete an existing item", func() {
			itemExpiringIn(db, "a", "Eggs", "Dairy", 10)
			resp := request("DELETE", "/api/items/a", nil)
			var body map[string]string
			decode(resp, &body)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body).To(HaveKeyWithValue("message", "Item deleted successfully"))
			Expect(db.deleteCalls).To(Equal([]string{"a"}))
		})

		It("should return status Not Found for unknown items", func() {
			resp := request("DELETE", "/api/items/missing", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleCategories", func() {
		It("should return counts per category", func() {
			itemExpiringIn(db, "a", "Milk", "Dairy", 5)
			itemExpiringIn(db, "b", "Old Milk", "Dairy", -5)
			resp := request("GET", "/api/categories", nil)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(MatchJSON(`[{"category":"Dairy","count":1}]`))
		})
	})

	Describe("handleExpiring", func() {
		BeforeEach(func() {
			itemExpiringIn(db, "a", "Milk", "Dairy", 5)
			itemExpiringIn(db, "b", "Chicken", "Meat", 2)
		})

		It("should default to a seven day window", func() {
			resp := request("GET", "/api/microcontroller/expiring", nil)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(MatchJSON(`{
				"count": 2,
				"items": [
					{"name": "Chicken", "category": "Meat", "days_left": 2},
					{"name": "Milk", "category": "Dairy", "days_left": 5}
				]
			}`))
		})

		It("should honor the days parameter", func() {
			resp := request("GET", "/api/microcontroller/expiring?days=3", nil)
			var body struct {
				Count int            `json:"count"`
				Items []ExpiringItem `json:"items"`
			}
			decode(resp, &body)
			Expect(body.Count).To(Equal(1))
			Expect(body.Items[0].Name).To(Equal("Chicken"))
		})

		It("should reject a malformed days parameter", func() {
			resp := request("GET", "/api/microcontroller/expiring?days=-1", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleLookupUPC", func() {
		BeforeEach(func() {
			Expect(Seed(db)).To(Succeed())
		})

		It("should return a known product", func() {
			resp := request("GET", "/api/upc/041196910756", nil)
			var product Product
			decode(resp, &product)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(product.Name).To(Equal("Bananas"))
			Expect(product.ShelfLifeDays).To(Equal(7))
		})

		It("should return status Not Found for unknown codes", func() {
			resp := request("GET", "/api/upc/999999999999", nil)
			var body map[string]string
			decode(resp, &body)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(body).To(HaveKeyWithValue("error", "UPC code not found"))
		})
	})

	Describe("handleFoodExpiration", func() {
		BeforeEach(func() {
			Expect(Seed(db)).To(Succeed())
		})

		It("should return the matching reference entry", func() {
			resp := request("GET", "/api/food-expiration/chicken", nil)
			var entry ShelfLife
			decode(resp, &entry)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(entry.FoodName).To(Equal("Chicken"))
			Expect(entry.ShelfLifeDays).To(Equal(2))
		})

		It("should fall back to the default", func() {
			resp := request("GET", "/api/food-expiration/kombucha", nil)
			var entry ShelfLife
			decode(resp, &entry)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(entry.ShelfLifeDays).To(Equal(7))
			Expect(entry.StorageType).To(Equal("pantry"))
		})
	})

	Describe("handleAnalyzeImage", func() {
		imageBody := func() map[string]string {
			return map[string]string{
				"imageData": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg")),
			}
		}

		When("a barcode is detected", func() {
			BeforeEach(func() {
				backend.result = &analysis.Result{
					Type:       analysis.VerdictBarcode,
					Barcode:    "041196910756",
					Confidence: 0.9,
				}
			})

			It("should return the result", func() {
				resp := request("POST", "/api/analyze-image", imageBody())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				var result map[string]any
				Expect(json.Unmarshal(body, &result)).To(Succeed())
				Expect(result).To(HaveKeyWithValue("type", "barcode"))
				Expect(result).To(HaveKeyWithValue("barcode", "041196910756"))
			})
		})

		When("no image is sent", func() {
			It("should return status Bad Request", func() {
				resp := request("POST", "/api/analyze-image", map[string]string{})
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(body).To(HaveKeyWithValue("error", "No image data provided"))
				Expect(backend.calls).To(BeZero())
			})
		})

		When("the image is not base64", func() {
			It("should return status Bad Request", func() {
				resp := request("POST", "/api/analyze-image", map[string]string{"imageData": "data:image/png;base64,%%%"})
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(body).To(HaveKeyWithValue("error", "Invalid image data"))
			})
		})

		When("the backend fails", func() {
			BeforeEach(func() {
				backend.err = errors.New("upstream timeout")
			})

			It("should return a none verdict with status Internal Server Error", func() {
				resp := request("POST", "/api/analyze-image", imageBody())
				var body map[string]string
				decode(resp, &body)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				Expect(body).To(Equal(map[string]string{
					"error":   "Failed to analyze image",
					"type":    "none",
					"message": "Error processing image. Please try again.",
				}))
			})
		})

		When("the rate limit is exhausted", func() {
			BeforeEach(func() {
				opts.AnalyzeRate = 0.001
				opts.AnalyzeBurst = 1
				setupServer(2)
			})

			It("should reject the second request", func() {
				first := request("POST", "/api/analyze-image", imageBody())
				first.Body.Close()
				Expect(first.StatusCode).To(Equal(http.StatusOK))

				second := request("POST", "/api/analyze-image", imageBody())
				second.Body.Close()
				Expect(second.StatusCode).To(Equal(http.StatusTooManyRequests))
				Expect(second.Header.Get("Retry-After")).To(Equal("1"))
				Expect(backend.calls).To(Equal(1))
			})
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			opts.BasicAuth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer(1)
		})

		It("should reject requests without credentials", func() {
			resp := request("GET", "/api/items", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Pantry Tracker"))
		})

		It("should reject wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/items", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("admin", "wrong")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should accept valid credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/items", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("admin", "secret")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should leave the health check open", func() {
			resp := request("GET", "/api/health", nil)
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("metrics", func() {
		When("a gatherer is configured", func() {
			BeforeEach(func() {
				registry := prometheus.NewRegistry()
				analysis.NewMetrics(registry)
				opts.Gatherer = registry
				setupServer(1)
			})

			It("should expose the analysis metrics", func() {
				resp := request("GET", "/metrics", nil)
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("pantry_analysis_items_extracted_total"))
			})
		})

		When("no gatherer is configured", func() {
			It("should not serve metrics", func() {
				resp := request("GET", "/metrics", nil)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})
})
