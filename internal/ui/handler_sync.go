package ui

import (
	"context"
	"errors"
	"net/http"

	"github.com/thep200/devfolio-sync/api"
)

func (h *Handler) getSyncStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(h, w, r, http.StatusOK, h.Sync.GetSyncStats())
}

// startSync accepts ?mode=refresh|readme, defaulting to the configured mode.
func (h *Handler) startSync(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = h.Config.Sync.Mode
	}

	err := h.Sync.StartSync(context.WithoutCancel(r.Context()), mode)
	switch {
	case errors.Is(err, api.ErrAlreadyRunning):
		writeError(h, w, r, http.StatusConflict, "conflict", err.Error())
		return
	case err != nil:
		writeError(h, w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	h.Logger.Info(r.Context(), "Started %s sync from API", mode)
	writeJSON(h, w, r, http.StatusAccepted, h.Sync.GetSyncStats())
}

func (h *Handler) stopSync(w http.ResponseWriter, r *http.Request) {
	if !h.Sync.StopSync() {
		writeError(h, w, r, http.StatusConflict, "conflict", "no sync is in progress")
		return
	}
	writeJSON(h, w, r, http.StatusAccepted, map[string]string{"status": "stopping"})
}
