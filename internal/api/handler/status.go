package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/edvin/multiregion/internal/api/response"
	"github.com/edvin/multiregion/internal/core"
)

const statusTimeout = 3 * time.Second

type Status struct {
	svc *core.StatusService
}

func NewStatus(svc *core.StatusService) *Status {
	return &Status{svc: svc}
}

// Get godoc
//
//	@Summary		Report this instance's region and replication state
//	@Tags			Status
//	@Produce		json
//	@Success		200 {object} model.RegionStatus
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/regionz [get]
func (h *Status) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	st, err := h.svc.Get(ctx)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, st)
}
