package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/serejivanov62/wish/internal/metrics"
	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
	"github.com/sirupsen/logrus"
)

// AttemptBooking claims an item for bookerID. Exactly one caller can ever
// book a given item; every later or concurrent attempt gets ErrConflict.
// Bookings are permanent and leave the item's status alone.
func (s *Service) AttemptBooking(ctx context.Context, itemID, bookerID int64) (*models.Booking, error) {
	booking, outcome, err := s.attemptBooking(ctx, itemID, bookerID)
	s.metrics.ObserveBooking(outcome)
	return booking, err
}

func (s *Service) attemptBooking(ctx context.Context, itemID, bookerID int64) (*models.Booking, string, error) {
	item, err := s.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	if item == nil {
		return nil, metrics.OutcomeNotFound, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if item.UserID == bookerID {
		return nil, metrics.OutcomeForbidden, fmt.Errorf("cannot book your own item: %w", ErrForbidden)
	}

	booking, err := s.Bookings.Create(ctx, &models.Booking{ItemID: itemID, BookedByUserID: bookerID})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, metrics.OutcomeConflict, fmt.Errorf("item %d is already booked: %w", itemID, ErrConflict)
	}
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("failed to book item %d: %w", itemID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"item_id":    itemID,
		"booking_id": booking.ID,
	}).Info("Item booked")
	return booking, metrics.OutcomeBooked, nil
}
