package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/edvin/multiregion/internal/api/request"
	"github.com/edvin/multiregion/internal/api/response"
	"github.com/edvin/multiregion/internal/core"
	"github.com/edvin/multiregion/internal/model"
	"github.com/edvin/multiregion/internal/replay"
)

type Entry struct {
	svc      *core.EntryService
	replayer *replay.Replayer
}

func NewEntry(svc *core.EntryService, replayer *replay.Replayer) *Entry {
	return &Entry{svc: svc, replayer: replayer}
}

// List godoc
//
//	@Summary		List guestbook entries
//	@Tags			Entries
//	@Produce		json
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Entry}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse "Replayed to the primary region"
//	@Header			409 {string} fly-replay "region=<primary region>"
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/api/v1/entries [get]
func (h *Entry) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	if err := pg.ValidateCursor(); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, r, h.replayer, err)
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}

	var nextCursor string
	if hasMore && len(entries) > 0 {
		nextCursor = entries[len(entries)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, entries, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a guestbook entry
//	@Tags			Entries
//	@Accept			json
//	@Produce		json
//	@Param			body body request.CreateEntry true "Entry details"
//	@Success		201 {object} model.Entry
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse "Replayed to the primary region"
//	@Header			409 {string} fly-replay "region=<primary region>"
//	@Failure		500 {object} response.ErrorResponse
//	@Failure		503 {object} response.ErrorResponse
//	@Router			/api/v1/entries [post]
func (h *Entry) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateEntry
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.svc.Create(r.Context(), req.Author, req.Message)
	if err != nil {
		writeServiceError(w, r, h.replayer, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, entry)
}

// Get godoc
//
//	@Summary		Get a guestbook entry
//	@Tags			Entries
//	@Produce		json
//	@Param			id path string true "Entry ID"
//	@Success		200 {object} model.Entry
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse "Replayed to the primary region"
//	@Header			409 {string} fly-replay "region=<primary region>"
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/api/v1/entries/{id} [get]
func (h *Entry) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	entry, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.replayer, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entry)
}

// Delete godoc
//
//	@Summary		Delete a guestbook entry
//	@Tags			Entries
//	@Param			id path string true "Entry ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse "Replayed to the primary region"
//	@Header			409 {string} fly-replay "region=<primary region>"
//	@Failure		500 {object} response.ErrorResponse
//	@Failure		503 {object} response.ErrorResponse
//	@Router			/api/v1/entries/{id} [delete]
func (h *Entry) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.replayer, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func entryID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid entry id")
		return "", false
	}
	return id, true
}
