package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/serejivanov62/wish/internal/metrics"
	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
	"github.com/sirupsen/logrus"
)

// Paging bounds for ListItems
const (
	DefaultItemLimit = 100
	MaxItemLimit     = 100
)

func categoryName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return models.DefaultCategory
	}
	return name
}

// CreateItem stores a new item for ownerID under the named category,
// creating the category on first use
func (s *Service) CreateItem(ctx context.Context, ownerID int64, in models.ItemInput) (*models.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CategoryName = categoryName(in.CategoryName)
	if err := s.check(in); err != nil {
		return nil, err
	}

	category, err := s.Categories.GetOrCreate(ctx, ownerID, in.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve category %q: %w", in.CategoryName, err)
	}

	item, err := s.Items.Create(ctx, &models.Item{
		UserID:      ownerID,
		CategoryID:  &category.ID,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Link:        in.Link,
		Price:       in.Price,
		Note:        in.Note,
		Status:      models.ItemStatusFavorite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  ownerID,
		"item_id":  item.ID,
		"category": category.Name,
	}).Info("Item created")
	return item, nil
}

// CreateItemFromURL extracts product metadata from url and stores it as a
// new item. Nothing is written unless extraction succeeds.
func (s *Service) CreateItemFromURL(ctx context.Context, ownerID int64, url, category string) (*models.Item, error) {
	url = strings.TrimSpace(url)
	if err := s.checkVar("url", url, "required,url"); err != nil {
		return nil, err
	}
	if s.extractor == nil {
		return nil, fmt.Errorf("metadata extraction is not configured: %w", ErrUpstream)
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, s.scrapeTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.extractor.Extract(scrapeCtx, url)
	if err != nil {
		s.metrics.ObserveScrape(metrics.ScrapeFailed, time.Since(start))
		s.logger.WithError(err).WithField("url", url).Warn("Metadata extraction failed")
		return nil, fmt.Errorf("failed to extract %s: %v: %w", url, err, ErrUpstream)
	}
	s.metrics.ObserveScrape(metrics.ScrapeOK, time.Since(start))

	if result == nil || strings.TrimSpace(result.Title) == "" {
		return nil, fmt.Errorf("extraction of %s returned no title: %w", url, ErrUpstream)
	}

	return s.CreateItem(ctx, ownerID, models.ItemInput{
		Title:        result.Title,
		Description:  result.Description,
		ImageURL:     result.ImageURL,
		Link:         &url,
		Price:        result.Price,
		CategoryName: category,
	})
}

// ListItems returns a page of the owner's items in creation order
func (s *Service) ListItems(ctx context.Context, ownerID int64, skip, limit int) ([]*models.Item, error) {
	return s.listItems(ctx, ownerID, nil, skip, limit)
}

// ListCategoryItems returns a page of the owner's items in one of their
// categories. Another user's category is ErrNotFound.
func (s *Service) ListCategoryItems(ctx context.Context, ownerID, categoryID int64, skip, limit int) ([]*models.Item, error) {
	category, err := s.Categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", categoryID, err)
	}
	if category == nil || category.UserID != ownerID {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}
	return s.listItems(ctx, ownerID, &category.ID, skip, limit)
}

func (s *Service) listItems(ctx context.Context, ownerID int64, categoryID *int64, skip, limit int) ([]*models.Item, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultItemLimit
	}
	if limit > MaxItemLimit {
		limit = MaxItemLimit
	}

	items, err := s.Items.ListByUser(ctx, ownerID, repository.ItemFilters{
		CategoryID: categoryID,
		Limit:      limit,
		Offset:     skip,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list items for user %d: %w", ownerID, err)
	}
	return items, nil
}

// ListCategories returns the owner's categories by name
func (s *Service) ListCategories(ctx context.Context, ownerID int64) ([]*models.Category, error) {
	categories, err := s.Categories.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories for user %d: %w", ownerID, err)
	}
	return categories, nil
}

// GetItem returns an item to its owner or to a friend of the owner. The
// booking flag follows the same reveal rule as event views.
func (s *Service) GetItem(ctx context.Context, callerID, itemID int64) (*models.ItemView, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.UserID != callerID {
		friends, err := s.AreFriends(ctx, callerID, item.UserID)
		if err != nil {
			return nil, err
		}
		if !friends {
			return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
		}
	}

	booked, err := s.Bookings.BookedItemIDs(ctx, []int64{item.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load booking for item %d: %w", itemID, err)
	}

	views := revealBookings(callerID, item.UserID, []*models.Item{item}, booked)
	return &views[0], nil
}

// UpdateItem applies a partial update to an item the caller owns
func (s *Service) UpdateItem(ctx context.Context, callerID, itemID int64, upd models.ItemUpdate) (*models.Item, error) {
	if err := s.check(upd); err != nil {
		return nil, err
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalid, *upd.Status)
	}

	item, err := s.ownedItem(ctx, callerID, itemID)
	if err != nil {
		return nil, err
	}

	upd.Apply(item)
	if upd.CategoryName != nil {
		category, err := s.Categories.GetOrCreate(ctx, item.UserID, categoryName(*upd.CategoryName))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %q: %w", *upd.CategoryName, err)
		}
		item.CategoryID = &category.ID
	}

	updated, err := s.Items.Update(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to update item %d: %w", itemID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return updated, nil
}

// DeleteItem removes an item the caller owns, along with its booking and
// event memberships
func (s *Service) DeleteItem(ctx context.Context, callerID, itemID int64) error {
	if _, err := s.ownedItem(ctx, callerID, itemID); err != nil {
		return err
	}
	if err := s.Items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item %d: %w", itemID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": callerID,
		"item_id": itemID,
	}).Info("Item deleted")
	return nil
}

func (s *Service) loadItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := s.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return item, nil
}

// ownedItem hides other users' items behind ErrNotFound
func (s *Service) ownedItem(ctx context.Context, callerID, itemID int64) (*models.Item, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != callerID {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	return item, nil
}
