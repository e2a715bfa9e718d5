package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"extrato/internal/core"
	applog "extrato/internal/log"
)

// GET /api/statement
func (s *Server) handleGetStatement(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.view.Snapshot()))
}

// PUT /api/statement/month {"month": 3}
func (s *Server) handleSelectMonth(w http.ResponseWriter, r *http.Request) {
	var req selectMonthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Month == nil {
		writeError(w, r, http.StatusBadRequest, "month is required")
		return
	}

	state, err := s.view.SelectMonthAsync(loadContext(r), *req.Month)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not start load")
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Month selected",
		applog.FieldMonth, *req.Month, applog.FieldSeq, state.Seq)
	writeJSON(w, http.StatusAccepted, newStateResponse(state))
}

// POST /api/statement/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	state := s.view.RefreshAsync(loadContext(r))
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Refresh requested", applog.FieldSeq, state.Seq)
	writeJSON(w, http.StatusAccepted, newStateResponse(state))
}

// GET /api/items
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	if !s.requireItems(w, r) {
		return
	}
	ids, err := s.items.ItemIDs(r.Context())
	if err != nil {
		s.internalError(w, r, "list items", err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: ids})
}

// POST /api/items {"itemId": "..."}
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	if !s.requireItems(w, r) {
		return
	}
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.items.AddItem(r.Context(), req.ItemID); err != nil {
		if errors.Is(err, core.ErrEmptyItemID) {
			writeError(w, r, http.StatusBadRequest, "itemId is required")
			return
		}
		s.internalError(w, r, "add item", err)
		return
	}
	s.handleListItemsStatus(w, r, http.StatusCreated)
}

// DELETE /api/items/{id}
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if !s.requireItems(w, r) {
		return
	}
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if err := s.items.RemoveItem(r.Context(), id); err != nil {
		s.internalError(w, r, "remove item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListItemsStatus(w http.ResponseWriter, r *http.Request, status int) {
	ids, err := s.items.ItemIDs(r.Context())
	if err != nil {
		s.internalError(w, r, "list items", err)
		return
	}
	writeJSON(w, status, itemsResponse{Items: ids})
}

func (s *Server) requireItems(w http.ResponseWriter, r *http.Request) bool {
	if s.items == nil {
		writeError(w, r, http.StatusNotImplemented, "item registry is read-only")
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		applog.FieldOperation, op, applog.FieldError, err)
	writeError(w, r, http.StatusInternalServerError, op+" failed")
}

// loadContext keeps request-scoped values such as the logger but outlives
// the request, since loads settle after the 202 is written.
func loadContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
