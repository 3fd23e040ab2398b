package handler

import (
	"net/http"
	"runtime"
	"time"

	"rbxstore-api/internal/repository"
	"rbxstore-api/pkg/response"
)

// SessionCounter reports open RBX5 sessions.
type SessionCounter interface {
	Len() int
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	sessions  SessionCounter
	orderRepo repository.OrderRepository
	dbType    string // sqlite, postgres, mysql or mongodb
	cacheType string // memory or redis
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	sessions SessionCounter,
	orderRepo repository.OrderRepository,
	dbType, cacheType string,
) *AdminHandler {
	return &AdminHandler{
		sessions:  sessions,
		orderRepo: orderRepo,
		dbType:    dbType,
		cacheType: cacheType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType
	stats["cache_type"] = h.cacheType

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	if h.sessions != nil {
		stats["sessions"] = map[string]interface{}{
			"active": h.sessions.Len(),
		}
	}

	if h.orderRepo != nil {
		orderStats, err := h.orderRepo.GetStats(ctx)
		if err == nil {
			orderStats["status"] = "connected"
			stats["orders"] = orderStats
		} else {
			stats["orders"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["orders"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
