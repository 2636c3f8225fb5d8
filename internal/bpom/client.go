package bpom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pos-backend/internal/models"

	"gorm.io/gorm"
)

var ErrNotRegistered = errors.New("registration number not found")

// Client looks up registration numbers against the national registry and
// caches hits in bpom_products. The cache is consulted first; registry rows
// change rarely, so entries are reused for thirty days.
type Client struct {
	db      *gorm.DB
	http    *http.Client
	baseURL string
}

const cacheTTL = 30 * 24 * time.Hour

func NewClient(db *gorm.DB, baseURL string) *Client {
	return &Client{
		db:      db,
		baseURL: baseURL,
		// Bounded timeout: a stalled registry must not hang the request.
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

type registryResponse struct {
	Registrations []struct {
		Number       string `json:"nomor_registrasi"`
		ProductName  string `json:"nama_produk"`
		Manufacturer string `json:"pendaftar"`
		IssuedAt     string `json:"tanggal_terbit"`
	} `json:"data"`
}

// Lookup resolves one registration number, from cache when fresh.
func (c *Client) Lookup(ctx context.Context, number string) (*models.BPOMProduct, error) {
	var cached models.BPOMProduct
	err := c.db.Where("registration_number = ?", number).First(&cached).Error
	if err == nil && time.Since(cached.FetchedAt) < cacheTTL {
		return &cached, nil
	}

	fetched, err := c.fetch(ctx, number)
	if err != nil {
		return nil, err
	}

	fetched.FetchedAt = time.Now()
	if cached.ID != 0 {
		fetched.ID = cached.ID
		if err := c.db.Save(fetched).Error; err != nil {
			return nil, fmt.Errorf("bpom cache update failed: %w", err)
		}
	} else if err := c.db.Create(fetched).Error; err != nil {
		return nil, fmt.Errorf("bpom cache insert failed: %w", err)
	}
	return fetched, nil
}

// Search queries the registry by product name. Name matches are not cached:
// the same query can return different row sets as registrations change, so
// only the individual rows are mirrored into the cache table.
func (c *Client) Search(ctx context.Context, name string) ([]models.BPOMProduct, error) {
	found, err := c.query(ctx, "nama_produk", name)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range found {
		found[i].FetchedAt = now
		var cached models.BPOMProduct
		if err := c.db.Where("registration_number = ?", found[i].RegistrationNumber).
			First(&cached).Error; err == nil {
			found[i].ID = cached.ID
			if err := c.db.Save(&found[i]).Error; err != nil {
				return nil, fmt.Errorf("bpom cache update failed: %w", err)
			}
		} else if err := c.db.Create(&found[i]).Error; err != nil {
			return nil, fmt.Errorf("bpom cache insert failed: %w", err)
		}
	}
	return found, nil
}

func (c *Client) fetch(ctx context.Context, number string) (*models.BPOMProduct, error) {
	found, err := c.query(ctx, "nomor_registrasi", number)
	if err != nil {
		return nil, err
	}
	return &found[0], nil
}

func (c *Client) query(ctx context.Context, param, value string) ([]models.BPOMProduct, error) {
	endpoint := fmt.Sprintf("%s/api/produk?%s=%s",
		c.baseURL, param, url.QueryEscape(value))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bpom registry unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotRegistered
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bpom registry status %d", resp.StatusCode)
	}

	var body registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("bpom response decode failed: %w", err)
	}
	if len(body.Registrations) == 0 {
		return nil, ErrNotRegistered
	}

	out := make([]models.BPOMProduct, 0, len(body.Registrations))
	for _, reg := range body.Registrations {
		out = append(out, models.BPOMProduct{
			RegistrationNumber: reg.Number,
			ProductName:        reg.ProductName,
			Manufacturer:       reg.Manufacturer,
			IssuedAt:           reg.IssuedAt,
		})
	}
	return out, nil
}
