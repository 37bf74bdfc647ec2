package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type healthResponse struct {
	Status       string  `json:"status"`
	UptimeHours  float64 `json:"uptimeHours"`
	Goroutines   int     `json:"goroutines"`
	CPUPercent   float64 `json:"cpuPercent"`
	MemPercent   float64 `json:"memPercent"`
	BidMode      string  `json:"bidEngineExecutionMode"`
}

// handleHealth reports process-level health for the admin dashboard, not a
// named spec endpoint but carried regardless per every thin-shell control
// plane in the retrieval pack.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		cpuPercent = []float64{0}
	}
	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	memPercent := 0.0
	if memStat, err := mem.VirtualMemory(); err == nil {
		memPercent = memStat.UsedPercent
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		UptimeHours: time.Since(s.startedAt).Hours(),
		Goroutines:  runtime.NumGoroutine(),
		CPUPercent:  cpuAvg,
		MemPercent:  memPercent,
		BidMode:     string(s.cfg.BidEngineExecutionMode),
	})
}
