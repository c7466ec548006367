package metrics

import (
	"runtime"
	"time"
)

// MemoryStats summarises Go heap usage. Mat pixel buffers live in C memory
// and are not included.
type MemoryStats struct {
	AllocMB      float64
	TotalAllocMB float64
	SysMB        float64
	NumGC        uint32
	LastGC       time.Time
}

// ReadMemory samples the Go runtime allocator
func ReadMemory() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := MemoryStats{
		AllocMB:      float64(m.Alloc) / 1024 / 1024,
		TotalAllocMB: float64(m.TotalAlloc) / 1024 / 1024,
		SysMB:        float64(m.Sys) / 1024 / 1024,
		NumGC:        m.NumGC,
	}
	if m.LastGC > 0 {
		stats.LastGC = time.Unix(0, int64(m.LastGC))
	}
	return stats
}
