package service

import (
	"context"
	"fmt"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/sirupsen/logrus"
)

// AddFriend befriends the user registered under phone. Adding an existing
// friend returns that friend and writes nothing.
func (s *Service) AddFriend(ctx context.Context, requesterID int64, phone string) (*models.User, error) {
	phone = NormalizePhone(phone)
	if err := s.checkVar("phone", phone, "required,phone"); err != nil {
		return nil, err
	}

	friend, err := s.Users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup user by phone: %w", err)
	}
	if friend == nil {
		return nil, fmt.Errorf("no user with this phone: %w", ErrNotFound)
	}
	if friend.ID == requesterID {
		return nil, fmt.Errorf("cannot add yourself as a friend: %w", ErrConflict)
	}

	created, err := s.Friends.AddPair(ctx, models.NewFriendPair(requesterID, friend.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to add friend %d for user %d: %w", friend.ID, requesterID, err)
	}
	if created {
		s.logger.WithFields(logrus.Fields{
			"user_id":   requesterID,
			"friend_id": friend.ID,
		}).Info("Friendship created")
	}

	return friend, nil
}

// RemoveFriend deletes the friendship in both directions. Removing a
// friendship that does not exist succeeds.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	if err := s.Friends.RemovePair(ctx, models.NewFriendPair(userID, friendID)); err != nil {
		return fmt.Errorf("failed to remove friend %d for user %d: %w", friendID, userID, err)
	}
	return nil
}

// ListFriends returns the user's friends ordered by id
func (s *Service) ListFriends(ctx context.Context, userID int64) ([]*models.User, error) {
	friends, err := s.Friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends for user %d: %w", userID, err)
	}
	return friends, nil
}

// AreFriends reports whether a and b are friends. A user is not their own
// friend.
func (s *Service) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	ok, err := s.Friends.Exists(ctx, models.NewFriendPair(a, b))
	if err != nil {
		return false, fmt.Errorf("failed to check friendship %d/%d: %w", a, b, err)
	}
	return ok, nil
}
