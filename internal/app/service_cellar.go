package app

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"convivio/api/internal/roles"
	"convivio/api/internal/search"
	"convivio/api/internal/store"
	"convivio/api/internal/temperature"
	"convivio/api/internal/util"
)

type AddBottleInput struct {
	Name     string `json:"name"`
	Producer string `json:"producer"`
	Region   string `json:"region"`
	Vintage  int    `json:"vintage"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
}

type UpdateBottleInput struct {
	Name          *string `json:"name"`
	Producer      *string `json:"producer"`
	Region        *string `json:"region"`
	Vintage       *int    `json:"vintage"`
	Quantity      *int    `json:"quantity"`
	QuantityDelta *int    `json:"quantityDelta"`
	Category      *string `json:"category"`
}

// AddBottle catalogues a bottle in the shared cellar. The temperature
// category defaults from the name when the caller does not pick one.
func (s *Service) AddBottle(ctx context.Context, p Participant, input AddBottleInput) (store.CellarBottle, error) {
	if !roles.For(p.Role).CanPropose {
		return store.CellarBottle{}, forbidden("add cellar bottles")
	}
	if strings.TrimSpace(input.Name) == "" {
		return store.CellarBottle{}, validation("name is required")
	}
	if input.Quantity < 0 {
		return store.CellarBottle{}, validation("quantity must not be negative")
	}

	category := temperature.Category(input.Category)
	if category == "" {
		category = s.suggest(input.Name)
	} else if !temperature.Valid(category) {
		return store.CellarBottle{}, validation("unknown temperature category")
	}

	bottle := store.CellarBottle{
		ID:       util.NewID("btl"),
		Name:     strings.TrimSpace(input.Name),
		Producer: strings.TrimSpace(input.Producer),
		Region:   strings.TrimSpace(input.Region),
		Vintage:  input.Vintage,
		Quantity: input.Quantity,
		Category: category,
		AddedBy:  p.Name,
	}
	if err := s.store.InsertBottle(ctx, bottle); err != nil {
		return store.CellarBottle{}, err
	}
	s.indexBottle(bottle)
	return s.store.GetBottle(ctx, bottle.ID)
}

func (s *Service) GetBottle(ctx context.Context, bottleID string) (store.CellarBottle, error) {
	return s.store.GetBottle(ctx, bottleID)
}

func (s *Service) ListBottles(ctx context.Context) ([]store.CellarBottle, error) {
	bottles, err := s.store.ListBottles(ctx)
	if err != nil {
		return nil, err
	}
	if bottles == nil {
		bottles = []store.CellarBottle{}
	}
	return bottles, nil
}

// UpdateBottle edits a catalogued bottle. QuantityDelta adjusts stock
// atomically and wins over an absolute Quantity when both are sent.
func (s *Service) UpdateBottle(ctx context.Context, p Participant, bottleID string, input UpdateBottleInput) (store.CellarBottle, error) {
	if !roles.For(p.Role).CanPropose {
		return store.CellarBottle{}, forbidden("edit cellar bottles")
	}
	bottle, err := s.store.GetBottle(ctx, bottleID)
	if err != nil {
		return store.CellarBottle{}, err
	}

	if input.QuantityDelta != nil {
		changed, err := s.store.AdjustBottleQuantity(ctx, bottleID, *input.QuantityDelta)
		if err != nil {
			return store.CellarBottle{}, err
		}
		if !changed {
			return store.CellarBottle{}, domainError(http.StatusConflict, "INSUFFICIENT_STOCK", "not enough bottles in the cellar", nil)
		}
		bottle, err = s.store.GetBottle(ctx, bottleID)
		if err != nil {
			return store.CellarBottle{}, err
		}
	} else if input.Quantity != nil {
		if *input.Quantity < 0 {
			return store.CellarBottle{}, validation("quantity must not be negative")
		}
		bottle.Quantity = *input.Quantity
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return store.CellarBottle{}, validation("name must not be blank")
		}
		bottle.Name = strings.TrimSpace(*input.Name)
	}
	if input.Producer != nil {
		bottle.Producer = strings.TrimSpace(*input.Producer)
	}
	if input.Region != nil {
		bottle.Region = strings.TrimSpace(*input.Region)
	}
	if input.Vintage != nil {
		bottle.Vintage = *input.Vintage
	}
	if input.Category != nil {
		category := temperature.Category(*input.Category)
		if !temperature.Valid(category) {
			return store.CellarBottle{}, validation("unknown temperature category")
		}
		bottle.Category = category
	}

	if err := s.store.UpdateBottle(ctx, bottle); err != nil {
		return store.CellarBottle{}, err
	}
	s.indexBottle(bottle)
	return bottle, nil
}

// DeleteBottle drops a bottle from the catalogue together with its search
// entry and label photo.
func (s *Service) DeleteBottle(ctx context.Context, p Participant, bottleID string) error {
	if p.Role != roles.RoleOwner {
		return forbidden("delete cellar bottles")
	}
	bottle, err := s.store.GetBottle(ctx, bottleID)
	if store.IsNotFound(err) {
		return domainError(http.StatusNotFound, "NOT_FOUND", "bottle not found", nil)
	}
	if err != nil {
		return err
	}
	if err := s.store.DeleteBottle(ctx, bottleID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteBottle(bottleID)
	}
	if s.labels != nil && bottle.LabelImageKey != "" {
		// Best effort: an orphaned photo only wastes bucket space.
		_ = s.labels.Delete(ctx, bottle.LabelImageKey)
	}
	return nil
}

// SearchBottles queries the cellar catalogue.
func (s *Service) SearchBottles(ctx context.Context, q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search is not configured", nil)
	}
	return s.search.Search(q), nil
}

// UploadLabel stores a label photo for a bottle. Requires object storage to
// be configured.
func (s *Service) UploadLabel(ctx context.Context, p Participant, bottleID, contentType string, reader io.Reader, size int64) (store.CellarBottle, error) {
	if !roles.For(p.Role).CanPropose {
		return store.CellarBottle{}, forbidden("upload label images")
	}
	if s.labels == nil {
		return store.CellarBottle{}, domainError(http.StatusServiceUnavailable, "LABELS_UNAVAILABLE", "label storage is not configured", nil)
	}
	bottle, err := s.store.GetBottle(ctx, bottleID)
	if err != nil {
		return store.CellarBottle{}, err
	}
	key, err := s.labels.Upload(ctx, bottleID, contentType, reader, size)
	if err != nil {
		return store.CellarBottle{}, err
	}
	if err := s.store.SetBottleLabelKey(ctx, bottleID, key); err != nil {
		return store.CellarBottle{}, err
	}
	bottle.LabelImageKey = key
	return bottle, nil
}

// LabelURL returns a short-lived download URL for a bottle's label photo.
func (s *Service) LabelURL(ctx context.Context, bottleID string) (string, error) {
	if s.labels == nil {
		return "", domainError(http.StatusServiceUnavailable, "LABELS_UNAVAILABLE", "label storage is not configured", nil)
	}
	bottle, err := s.store.GetBottle(ctx, bottleID)
	if err != nil {
		return "", err
	}
	if bottle.LabelImageKey == "" {
		return "", domainError(http.StatusNotFound, "NOT_FOUND", "bottle has no label image", nil)
	}
	return s.labels.PresignedURL(ctx, bottle.LabelImageKey, 15*time.Minute)
}

func (s *Service) indexBottle(bottle store.CellarBottle) {
	if s.search == nil {
		return
	}
	s.search.IndexBottle(search.BottleRecord{
		ID:       bottle.ID,
		Name:     bottle.Name,
		Producer: bottle.Producer,
		Region:   bottle.Region,
		Vintage:  bottle.Vintage,
		Category: string(bottle.Category),
		Quantity: bottle.Quantity,
	})
}
