package utils

import (
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"mse-observer/src/logger"
	"mse-observer/src/models"
)

// -----------------------------------------------------------------------------
// MemoryManager keeps a bounded in-process price history per symbol. It backs
// the history endpoint when the durable store is unavailable.
// -----------------------------------------------------------------------------

type MemoryManager struct {
	DataStreams   map[string]*RingBuffer
	MaxMemoryMB   int
	MaxDataPoints int
	Logger        *logger.Logger
	mu            sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMemoryManager(maxMemoryMB, maxDataPoints int, log *logger.Logger) *MemoryManager {
	return &MemoryManager{
		DataStreams:   make(map[string]*RingBuffer),
		MaxMemoryMB:   maxMemoryMB,
		MaxDataPoints: maxDataPoints,
		Logger:        log,
	}
}

// -----------------------------------------------------------------------------

// PointsFromRecords converts a snapshot into one history point per record.
func PointsFromRecords(records []models.MStockRecord) []models.MHistoricalPricePoint {
	loc := MSELocation()
	points := make([]models.MHistoricalPricePoint, 0, len(records))
	for _, r := range records {
		points = append(points, models.MHistoricalPricePoint{
			Symbol:        r.Symbol,
			Price:         r.Price,
			Change:        r.Change,
			ChangePercent: r.ChangePercent,
			Volume:        r.Volume,
			Timestamp:     r.LastUpdated.UTC(),
			TradingDate:   r.LastUpdated.In(loc).Format("2006-01-02"),
		})
	}
	return points
}

// -----------------------------------------------------------------------------

// AddPoints appends history points. A point not newer than the symbol's
// latest one is skipped so repeated snapshots do not duplicate history.
func (mm *MemoryManager) AddPoints(points []models.MHistoricalPricePoint) int {
	mm.mu.Lock()
	added := 0
	check := false
	for _, p := range points {
		symbol := strings.ToUpper(p.Symbol)
		buffer, ok := mm.DataStreams[symbol]
		if !ok {
			buffer = NewRingBuffer(symbol, mm.MaxDataPoints)
			mm.DataStreams[symbol] = buffer
		}
		if last, ok := buffer.Last(); ok && !p.Timestamp.After(last.Timestamp) {
			continue
		}
		buffer.Append(p)
		added++
		if buffer.Size()%100 == 0 {
			check = true
		}
	}
	mm.mu.Unlock()

	if check {
		mm.CheckMemoryLimits()
	}
	return added
}

// -----------------------------------------------------------------------------

// GetHistory returns the points for symbol within [from, to], oldest first.
func (mm *MemoryManager) GetHistory(symbol string, from, to time.Time) []models.MHistoricalPricePoint {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	buffer, ok := mm.DataStreams[strings.ToUpper(symbol)]
	if !ok {
		return nil
	}
	return buffer.GetRange(from, to)
}

// -----------------------------------------------------------------------------

// Latest returns the newest point per symbol, sorted by symbol.
func (mm *MemoryManager) Latest() []models.MHistoricalPricePoint {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	out := make([]models.MHistoricalPricePoint, 0, len(mm.DataStreams))
	for _, buffer := range mm.DataStreams {
		if p, ok := buffer.Last(); ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// -----------------------------------------------------------------------------

// CheckMemoryLimits halves every buffer when the heap exceeds MaxMemoryMB.
func (mm *MemoryManager) CheckMemoryLimits() {
	if mm.MaxMemoryMB <= 0 {
		return
	}
	currentMemory := mm.GetProcessMemoryMB()
	if currentMemory <= float64(mm.MaxMemoryMB) {
		return
	}

	mm.Logger.Info("Memory usage %.1fMB exceeds limit %dMB. Cleaning up.", currentMemory, mm.MaxMemoryMB)

	mm.mu.Lock()
	for _, buffer := range mm.DataStreams {
		if buffer.Capacity() > 100 {
			buffer.Resize(max(buffer.Capacity()/2, 50))
		}
	}
	mm.mu.Unlock()

	runtime.GC()
	debug.FreeOSMemory()
}

// -----------------------------------------------------------------------------

// GetProcessMemoryMB reports the live heap in MB.
func (mm *MemoryManager) GetProcessMemoryMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// -----------------------------------------------------------------------------

func (mm *MemoryManager) Cleanup() {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.DataStreams = make(map[string]*RingBuffer)
}

// -----------------------------------------------------------------------------

func (mm *MemoryManager) SymbolCount() int {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.DataStreams)
}
