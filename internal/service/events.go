package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/sirupsen/logrus"
)

// access is what a caller may do with an event
type access int

const (
	accessNone access = iota
	accessRead        // friend of the owner
	accessEdit        // collaborator
	accessOwner
)

// CreateEvent stores a new event owned by ownerID
func (s *Service) CreateEvent(ctx context.Context, ownerID int64, in models.EventInput) (*models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	event, err := s.Events.Create(ctx, &models.Event{
		UserID:      ownerID,
		Title:       in.Title,
		Date:        in.Date,
		Description: in.Description,
		IsShared:    in.IsShared,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  ownerID,
		"event_id": event.ID,
	}).Info("Event created")
	return event, nil
}

// UpdateEvent replaces the attributes of an event the caller owns.
// is_shared stays set while the event has collaborators.
func (s *Service) UpdateEvent(ctx context.Context, callerID, eventID int64, in models.EventInput) (*models.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.check(in); err != nil {
		return nil, err
	}

	event, err := s.ownedEvent(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Date = in.Date
	event.Description = in.Description
	event.IsShared = in.IsShared

	updated, err := s.Events.Update(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", eventID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return updated, nil
}

// DeleteEvent removes an event the caller owns. Its items are untouched.
func (s *Service) DeleteEvent(ctx context.Context, callerID, eventID int64) error {
	if _, err := s.ownedEvent(ctx, callerID, eventID); err != nil {
		return err
	}
	if err := s.Events.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  callerID,
		"event_id": eventID,
	}).Info("Event deleted")
	return nil
}

// AddItem puts an item into an event. The caller must own or collaborate
// on the event, and the item must belong to the caller or the event owner.
// Adding an item twice is a no-op.
func (s *Service) AddItem(ctx context.Context, eventID, callerID, itemID int64) error {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}

	level, err := s.accessFor(ctx, event, callerID)
	if err != nil {
		return err
	}
	switch {
	case level == accessNone:
		return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	case level < accessEdit:
		return fmt.Errorf("user %d cannot edit event %d: %w", callerID, eventID, ErrForbidden)
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != callerID && item.UserID != event.UserID {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}

	if err := s.Events.AddItem(ctx, eventID, itemID); err != nil {
		return fmt.Errorf("failed to add item %d to event %d: %w", itemID, eventID, err)
	}
	return nil
}

// AddCollaborator grants collaboratorID edit rights on an event the caller
// owns and marks the event shared. Adding an existing collaborator returns
// the existing membership.
func (s *Service) AddCollaborator(ctx context.Context, eventID, ownerID, collaboratorID int64) (*models.EventCollaborator, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwnedBy(ownerID) {
		return nil, fmt.Errorf("only the owner manages collaborators of event %d: %w", eventID, ErrForbidden)
	}
	if collaboratorID == event.UserID {
		return nil, fmt.Errorf("owner cannot collaborate on their own event: %w", ErrConflict)
	}
	if _, err := s.GetUser(ctx, collaboratorID); err != nil {
		return nil, err
	}

	collaborator, err := s.Events.AddCollaborator(ctx, eventID, collaboratorID)
	if err != nil {
		return nil, fmt.Errorf("failed to add collaborator %d to event %d: %w", collaboratorID, eventID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":        eventID,
		"collaborator_id": collaboratorID,
	}).Info("Collaborator added")
	return collaborator, nil
}

// RemoveCollaborator revokes a collaborator. The event stays shared.
func (s *Service) RemoveCollaborator(ctx context.Context, eventID, ownerID, collaboratorID int64) error {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !event.IsOwnedBy(ownerID) {
		return fmt.Errorf("only the owner manages collaborators of event %d: %w", eventID, ErrForbidden)
	}

	removed, err := s.Events.RemoveCollaborator(ctx, eventID, collaboratorID)
	if err != nil {
		return fmt.Errorf("failed to remove collaborator %d from event %d: %w", collaboratorID, eventID, err)
	}
	if !removed {
		return fmt.Errorf("collaborator %d on event %d: %w", collaboratorID, eventID, ErrNotFound)
	}
	return nil
}

// ListSharedEvents returns the shared events the user owns together with
// the events they collaborate on, each once, ordered by id
func (s *Service) ListSharedEvents(ctx context.Context, userID int64) ([]*models.Event, error) {
	owned, err := s.Events.ListSharedByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared events for user %d: %w", userID, err)
	}
	collaborating, err := s.Events.ListByCollaborator(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborations for user %d: %w", userID, err)
	}

	return mergeEvents(owned, collaborating), nil
}

// ListEventsByOwner lists ownerID's events for the caller, who must be the
// owner or one of their friends
func (s *Service) ListEventsByOwner(ctx context.Context, callerID, ownerID int64) ([]*models.Event, error) {
	if callerID != ownerID {
		friends, err := s.AreFriends(ctx, callerID, ownerID)
		if err != nil {
			return nil, err
		}
		if !friends {
			return nil, fmt.Errorf("events of user %d: %w", ownerID, ErrNotFound)
		}
	}

	events, err := s.Events.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for user %d: %w", ownerID, err)
	}
	return events, nil
}

func mergeEvents(lists ...[]*models.Event) []*models.Event {
	seen := make(map[int64]bool)
	var merged []*models.Event
	for _, list := range lists {
		for _, e := range list {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			merged = append(merged, e)
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

func (s *Service) loadEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return event, nil
}

// ownedEvent hides other users' events behind ErrNotFound
func (s *Service) ownedEvent(ctx context.Context, callerID, eventID int64) (*models.Event, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwnedBy(callerID) {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}
	return event, nil
}

func (s *Service) accessFor(ctx context.Context, event *models.Event, userID int64) (access, error) {
	if event.IsOwnedBy(userID) {
		return accessOwner, nil
	}

	collaborator, err := s.Events.IsCollaborator(ctx, event.ID, userID)
	if err != nil {
		return accessNone, fmt.Errorf("failed to check collaborator on event %d: %w", event.ID, err)
	}
	if collaborator {
		return accessEdit, nil
	}

	friends, err := s.AreFriends(ctx, userID, event.UserID)
	if err != nil {
		return accessNone, err
	}
	if friends {
		return accessRead, nil
	}
	return accessNone, nil
}
