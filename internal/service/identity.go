package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/repository"
	"github.com/sirupsen/logrus"
)

// Identity is what an external account provider tells us about a caller
type Identity struct {
	TelegramID int64
	Name       string
	Phone      string
	AvatarURL  string
}

// ResolveUser retrieves the user for a Telegram account, creating one on
// first sight. A phone supplied for a user that has none is back-filled.
func (s *Service) ResolveUser(ctx context.Context, id Identity) (*models.User, error) {
	phone := NormalizePhone(id.Phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		s.logger.WithFields(logrus.Fields{
			"telegram_id": id.TelegramID,
		}).Warn("Ignoring malformed phone from identity provider")
		phone = ""
	}

	user, err := s.Users.GetByTelegramID(ctx, id.TelegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", id.TelegramID, err)
	}

	if user == nil {
		user, err = s.createUser(ctx, id, phone)
		if err != nil {
			return nil, err
		}
		return user, nil
	}

	if !user.HasPhone() && phone != "" {
		updated, err := s.Users.UpdatePhone(ctx, user.ID, phone)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			s.logger.WithFields(logrus.Fields{
				"user_id": user.ID,
			}).Warn("Phone already belongs to another user, not back-filling")
		case err != nil:
			return nil, fmt.Errorf("failed to back-fill phone for user %d: %w", user.ID, err)
		case updated != nil:
			s.logger.WithField("user_id", user.ID).Info("Back-filled user phone")
			user = updated
		}
	}

	return user, nil
}

func (s *Service) createUser(ctx context.Context, id Identity, phone string) (*models.User, error) {
	user := &models.User{
		TelegramID: id.TelegramID,
		Name:       strings.TrimSpace(id.Name),
	}
	if phone != "" {
		user.Phone = &phone
	}
	if avatar := strings.TrimSpace(id.AvatarURL); avatar != "" {
		user.AvatarURL = &avatar
	}

	created, err := s.Users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		// Either a concurrent first login won, or the phone is taken.
		existing, lookupErr := s.Users.GetByTelegramID(ctx, id.TelegramID)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", id.TelegramID, lookupErr)
		}
		if existing != nil {
			return existing, nil
		}
		if user.Phone == nil {
			return nil, fmt.Errorf("failed to create user (telegram_id=%d): %w", id.TelegramID, err)
		}
		user.Phone = nil
		created, err = s.Users.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user (telegram_id=%d): %w", id.TelegramID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     created.ID,
		"telegram_id": created.TelegramID,
	}).Infof("Created new user: %s", created.DisplayName())
	return created, nil
}

// ResolveDevUser logs in the development mock user with the given numeric
// id. The mock phone is "+<id>0" so that it has at least ten digits for
// ids of nine digits or more.
func (s *Service) ResolveDevUser(ctx context.Context, mockID int64) (*models.User, error) {
	if mockID <= 0 {
		return nil, fmt.Errorf("%w: mock user id must be positive", ErrInvalid)
	}
	return s.ResolveUser(ctx, Identity{
		TelegramID: mockID,
		Name:       "Mock User " + strconv.FormatInt(mockID, 10),
		Phone:      "+" + strconv.FormatInt(mockID, 10) + "0",
	})
}

// GetUser returns the user with the given id
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return user, nil
}

// GetUserByTelegramID returns the user linked to a Telegram account
func (s *Service) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.Users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user (telegram_id=%d): %w", telegramID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("telegram user %d: %w", telegramID, ErrNotFound)
	}
	return user, nil
}

// UpdatePhone sets or replaces the caller's phone number
func (s *Service) UpdatePhone(ctx context.Context, userID int64, phone string) (*models.User, error) {
	phone = NormalizePhone(phone)
	if err := s.checkVar("phone", phone, "required,phone"); err != nil {
		return nil, err
	}

	user, err := s.Users.UpdatePhone(ctx, userID, phone)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("phone is registered to another user: %w", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update phone for user %d: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return user, nil
}
