package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sharedUtils "github.com/davicafu/possync/internal/shared/infra/utils"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/davicafu/possync/pkg/utils"
)

const dateLayout = "2006-01-02"

// Runner es lo que el handler necesita del SyncService.
type Runner interface {
	Run(ctx context.Context, window *syncDomain.Window) syncDomain.RunSummary
}

// SyncHandler expone la ejecución programada por HTTP: 200 si la ejecución
// termina con éxito, 500 si no, y el resumen como cuerpo en ambos casos.
// Sólo una ejecución a la vez dentro del proceso.
type SyncHandler struct {
	runner  Runner
	running sync.Mutex
	log     *zap.Logger
}

func NewSyncHandler(runner Runner, log *zap.Logger) *SyncHandler {
	return &SyncHandler{runner: runner, log: log}
}

// TriggerSync endpoint POST /sync
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	var req struct {
		FromDate string `json:"from_date"`
		ToDate   string `json:"to_date"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendBadRequest(c, err.Error())
			return
		}
	}
	window, err := parseWindow(req.FromDate, req.ToDate)
	if err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	if !h.running.TryLock() {
		utils.SendConflict(c, "a sync run is already in progress")
		return
	}
	defer h.running.Unlock()

	summary := h.runner.Run(c.Request.Context(), window)
	status := sharedUtils.Ternary(summary.Succeeded(), http.StatusOK, http.StatusInternalServerError)
	h.log.Info("Sync triggered over HTTP",
		zap.String("run_id", summary.RunID),
		zap.String("status", string(summary.Status)),
		zap.Int("http_status", status),
	)
	c.JSON(status, summary)
}

// Health endpoint GET /health
func (h *SyncHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseWindow acepta ambas fechas o ninguna.
func parseWindow(from, to string) (*syncDomain.Window, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, errInvalidWindow("from_date and to_date must be given together")
	}
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, errInvalidWindow("invalid from_date, use YYYY-MM-DD")
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, errInvalidWindow("invalid to_date, use YYYY-MM-DD")
	}
	if t.Before(f) {
		return nil, errInvalidWindow("to_date is before from_date")
	}
	return &syncDomain.Window{From: f, To: t}, nil
}

type errInvalidWindow string

func (e errInvalidWindow) Error() string { return string(e) }
