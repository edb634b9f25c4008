package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/multiregion/internal/api/response"
	"github.com/edvin/multiregion/internal/replay"
)

// writeServiceError maps a service error to a response. Writes that hit a
// read replica are handed to the replayer first.
func writeServiceError(w http.ResponseWriter, r *http.Request, rp *replay.Replayer, err error) {
	if rp.Respond(w, r, err) {
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		response.WriteError(w, http.StatusNotFound, "entry not found")
		return
	}
	response.WriteError(w, http.StatusInternalServerError, err.Error())
}
