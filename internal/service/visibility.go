package service

import (
	"context"
	"fmt"

	"github.com/serejivanov62/wish/internal/models"
)

// ResolveEventView returns an event with its items and collaborators as
// viewerID may see them. Callers without read access get ErrNotFound.
func (s *Service) ResolveEventView(ctx context.Context, eventID, viewerID int64) (*models.EventView, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	level, err := s.accessFor(ctx, event, viewerID)
	if err != nil {
		return nil, err
	}
	if level == accessNone {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	items, err := s.Events.ListItems(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of event %d: %w", eventID, err)
	}

	var booked map[int64]bool
	if viewerID != event.UserID && len(items) > 0 {
		ids := make([]int64, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		booked, err = s.Bookings.BookedItemIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load bookings of event %d: %w", eventID, err)
		}
	}

	collaborators, err := s.Events.ListCollaborators(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators of event %d: %w", eventID, err)
	}
	public := make([]models.PublicUser, len(collaborators))
	for i, u := range collaborators {
		public[i] = u.Public()
	}

	return &models.EventView{
		Event:         *event,
		Items:         revealBookings(viewerID, event.UserID, items, booked),
		Collaborators: public,
	}, nil
}

// revealBookings decides the booking flag each item shows to viewerID. The
// owner always sees false; everyone else sees whether a booking exists.
func revealBookings(viewerID, ownerID int64, items []*models.Item, booked map[int64]bool) []models.ItemView {
	views := make([]models.ItemView, len(items))
	for i, item := range items {
		views[i] = models.ItemView{
			Item:     *item,
			IsBooked: viewerID != ownerID && booked[item.ID],
		}
	}
	return views
}
