package api

import (
	"errors"
	"net/http"

	"github.com/serejivanov62/wish/internal/auth"
	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/service"
	"github.com/sirupsen/logrus"
)

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type telegramAuthRequest struct {
	InitData string `json:"init_data" validate:"required"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (s *Server) handleTelegramAuth(w http.ResponseWriter, r *http.Request) {
	var req telegramAuthRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	var (
		user *models.User
		err  error
	)

	mockID, isDev, devErr := auth.ParseDevLogin(req.InitData)
	switch {
	case isDev && s.opts.DevLogin:
		if devErr != nil {
			s.respondError(w, http.StatusBadRequest, devErr.Error())
			return
		}
		user, err = s.svc.ResolveDevUser(r.Context(), mockID)
	default:
		if s.opts.BotToken == "" {
			s.log(r).Error("Telegram auth attempted without a bot token configured")
			s.respondError(w, http.StatusInternalServerError, "telegram login is not configured")
			return
		}
		tgUser, verr := auth.ValidateInitData(req.InitData, s.opts.BotToken, s.opts.InitDataMaxAge)
		if verr != nil {
			s.log(r).WithError(verr).Debug("Rejected init data")
			s.respondError(w, http.StatusUnauthorized, "invalid telegram init data")
			return
		}
		user, err = s.svc.ResolveUser(r.Context(), service.Identity{
			TelegramID: tgUser.ID,
			Name:       tgUser.FullName(),
			Phone:      tgUser.PhoneNumber,
			AvatarURL:  tgUser.PhotoURL,
		})
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.log(r).WithFields(logrus.Fields{"user_id": user.ID, "dev": isDev}).Info("User authenticated")
	s.respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer", User: user})
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

type phoneRequest struct {
	Phone string `json:"phone" validate:"required"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.GetUser(r.Context(), caller(r))
	if err != nil {
		// A valid token for a user that no longer resolves is a stale session.
		if errors.Is(err, service.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdatePhone(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := s.svc.UpdatePhone(r.Context(), caller(r), req.Phone)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, user)
}

// ---------------------------------------------------------------------------
// Friends
// ---------------------------------------------------------------------------

type addFriendRequest struct {
	Phone string `json:"phone" validate:"required"`
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	friend, err := s.svc.AddFriend(r.Context(), caller(r), req.Phone)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, friend.Public())
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := s.svc.ListFriends(r.Context(), caller(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, publicUsers(friends))
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	friendID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.RemoveFriend(r.Context(), caller(r), friendID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func publicUsers(users []*models.User) []models.PublicUser {
	out := make([]models.PublicUser, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out
}
