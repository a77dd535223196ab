package api

import (
	"net/http"

	"github.com/serejivanov62/wish/internal/models"
)

type addEventItemRequest struct {
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

type addCollaboratorRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := s.svc.CreateEvent(r.Context(), caller(r), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, event)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.svc.ResolveEventView(r.Context(), id, caller(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.EventInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := s.svc.UpdateEvent(r.Context(), caller(r), id, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.DeleteEvent(r.Context(), caller(r), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddEventItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req addEventItemRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.svc.AddItem(r.Context(), id, caller(r), req.ItemID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListUserEvents(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.svc.ListEventsByOwner(r.Context(), caller(r), ownerID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNilEvents(events))
}

func (s *Server) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req addCollaboratorRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	collaborator, err := s.svc.AddCollaborator(r.Context(), id, caller(r), req.UserID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, collaborator)
}

func (s *Server) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.RemoveCollaborator(r.Context(), id, caller(r), userID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleSharedEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.ListSharedEvents(r.Context(), caller(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nonNilEvents(events))
}

func nonNilEvents(events []*models.Event) []*models.Event {
	if events == nil {
		return []*models.Event{}
	}
	return events
}
