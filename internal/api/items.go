package api

import (
	"net/http"
	"strconv"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/service"
)

type scrapeRequest struct {
	URL          string `json:"url" validate:"required,url"`
	CategoryName string `json:"category_name" validate:"omitempty,max=50"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.CreateItem(r.Context(), caller(r), req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleScrapeItem(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.CreateItemFromURL(r.Context(), caller(r), req.URL, req.CategoryName)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultItemLimit)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var items []*models.Item
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil || categoryID <= 0 {
			s.respondError(w, http.StatusBadRequest, "category_id must be a positive integer")
			return
		}
		items, err = s.svc.ListCategoryItems(r.Context(), caller(r), categoryID, skip, limit)
	} else {
		items, err = s.svc.ListItems(r.Context(), caller(r), skip, limit)
	}
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.svc.GetItem(r.Context(), caller(r), id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.ItemUpdate
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.UpdateItem(r.Context(), caller(r), id, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.DeleteItem(r.Context(), caller(r), id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleBookItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.svc.AttemptBooking(r.Context(), id, caller(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.ListCategories(r.Context(), caller(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	s.respondJSON(w, http.StatusOK, categories)
}
