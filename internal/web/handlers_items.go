package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/stockkeep/internal/core"
	"github.com/JonMunkholm/stockkeep/internal/web/templates"
)

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.service.CreateItem(r.Context(), req.patch())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleCreateItems(w http.ResponseWriter, r *http.Request) {
	var req createItemsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	batch := make([]core.ItemPatch, len(req.Items))
	for i, it := range req.Items {
		batch[i] = it.patch()
	}

	result, err := s.service.CreateItems(r.Context(), batch)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItems(w http.ResponseWriter, r *http.Request) {
	var req updateItemsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	updates := make([]core.ItemUpdate, len(req.Items))
	for i, u := range req.Items {
		updates[i] = core.ItemUpdate{ID: u.ID, Update: u.Update.patch()}
	}

	result, err := s.service.UpdateItems(r.Context(), updates)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	item, err := s.service.SetThreshold(r.Context(), chi.URLParam(r, "id"), *req.LowStockThreshold)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Item deleted successfully"})
}

func (s *Server) handleDeleteItems(w http.ResponseWriter, r *http.Request) {
	var req deleteItemsRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	n, err := s.service.DeleteItems(r.Context(), req.IDs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("%d items deleted", n),
		Deleted: &n,
	})
}

// handleLowStock serves JSON, or the HTML report to HTMX and browsers
// that ask for text/html.
func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.LowStockItems(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !wantsHTML(r) {
		writeJSON(w, http.StatusOK, items)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.LowStockReport(items).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

func wantsHTML(r *http.Request) bool {
	return isHTMX(r) || strings.Contains(r.Header.Get("Accept"), "text/html")
}
