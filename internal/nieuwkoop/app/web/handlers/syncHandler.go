package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/services/syncer"
	"bloommarbella_api/pkg/logger"
)

type SyncRunner interface {
	Run(ctx context.Context, trigger models.SyncType, mode syncer.Mode) (syncer.Report, error)
	Running() bool
	Status(ctx context.Context, n int) (syncer.Status, error)
}

type SyncHandler struct {
	runner SyncRunner
	log    logger.Logger
	// baseCtx живёт дольше запроса: фоновый проход не отменяется вместе с ним.
	baseCtx context.Context
}

func NewSyncHandler(ctx context.Context, runner SyncRunner, log logger.Logger) *SyncHandler {
	return &SyncHandler{runner: runner, log: log, baseCtx: ctx}
}

func (h *SyncHandler) Ping(context.Context) error { return nil }

type syncAccepted struct {
	Mode   syncer.Mode `json:"mode"`
	Status string      `json:"status"`
}

// TriggerSyncHandler запускает проход в фоне; ?wait=true ждёт результата.
func (h *SyncHandler) TriggerSyncHandler(w http.ResponseWriter, r *http.Request) {
	mode, err := syncer.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, h.log, http.StatusBadRequest, err.Error())
		return
	}
	if h.runner.Running() {
		writeError(w, h.log, http.StatusConflict, syncer.ErrSyncInProgress.Error())
		return
	}

	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		report, err := h.runner.Run(r.Context(), models.SyncTypeManual, mode)
		switch {
		case errors.Is(err, syncer.ErrSyncInProgress):
			writeError(w, h.log, http.StatusConflict, err.Error())
		case err != nil:
			writeJSON(w, h.log, http.StatusBadGateway, report)
		default:
			writeJSON(w, h.log, http.StatusOK, report)
		}
		return
	}

	go func() {
		if _, err := h.runner.Run(h.baseCtx, models.SyncTypeManual, mode); err != nil {
			h.log.Warn("Manual %s sync failed: %v", mode, err)
		}
	}()
	writeJSON(w, h.log, http.StatusAccepted, syncAccepted{Mode: mode, Status: string(models.SyncStatusInProgress)})
}

func (h *SyncHandler) GetSyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		n = v
	}
	status, err := h.runner.Status(r.Context(), n)
	if err != nil {
		h.log.Error("Failed to read sync status: %v", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to read sync status")
		return
	}
	writeJSON(w, h.log, http.StatusOK, status)
}
