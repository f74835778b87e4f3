package utils

import (
	"time"

	"mse-observer/src/models"
)

// -----------------------------------------------------------------------------
// RingBuffer is a fixed-size circular buffer of history points for one symbol.
// -----------------------------------------------------------------------------

type RingBuffer struct {
	symbol   string
	data     [][models.RB_NUM_FEATURES]float64
	capacity int
	index    int // next write position
	size     int
}

// -----------------------------------------------------------------------------

func NewRingBuffer(symbol string, capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingBuffer{
		symbol:   symbol,
		data:     make([][models.RB_NUM_FEATURES]float64, capacity),
		capacity: capacity,
	}
}

// -----------------------------------------------------------------------------

// Append stores a point, overwriting the oldest one once full.
func (rb *RingBuffer) Append(point models.MHistoricalPricePoint) {
	rb.data[rb.index] = [models.RB_NUM_FEATURES]float64{
		models.RB_IDX_TIMESTAMP:  float64(point.Timestamp.UnixMilli()),
		models.RB_IDX_PRICE:      point.Price,
		models.RB_IDX_CHANGE:     point.Change,
		models.RB_IDX_CHANGE_PCT: point.ChangePercent,
		models.RB_IDX_VOLUME:     float64(point.Volume),
	}

	rb.index = (rb.index + 1) % rb.capacity
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

func (rb *RingBuffer) point(row [models.RB_NUM_FEATURES]float64) models.MHistoricalPricePoint {
	ts := time.UnixMilli(int64(row[models.RB_IDX_TIMESTAMP])).UTC()
	return models.MHistoricalPricePoint{
		Symbol:        rb.symbol,
		Price:         row[models.RB_IDX_PRICE],
		Change:        row[models.RB_IDX_CHANGE],
		ChangePercent: row[models.RB_IDX_CHANGE_PCT],
		Volume:        int64(row[models.RB_IDX_VOLUME]),
		Timestamp:     ts,
		TradingDate:   ts.In(MSELocation()).Format("2006-01-02"),
	}
}

// oldest returns the slot of the oldest element.
func (rb *RingBuffer) oldest() int {
	if rb.size == rb.capacity {
		return rb.index
	}
	return 0
}

// -----------------------------------------------------------------------------

// Last returns the newest point.
func (rb *RingBuffer) Last() (models.MHistoricalPricePoint, bool) {
	if rb.size == 0 {
		return models.MHistoricalPricePoint{}, false
	}
	return rb.point(rb.data[(rb.index-1+rb.capacity)%rb.capacity]), true
}

// -----------------------------------------------------------------------------

// GetAll returns all data in insertion order (oldest to newest).
func (rb *RingBuffer) GetAll() []models.MHistoricalPricePoint {
	result := make([]models.MHistoricalPricePoint, 0, rb.size)
	start := rb.oldest()
	for i := 0; i < rb.size; i++ {
		result = append(result, rb.point(rb.data[(start+i)%rb.capacity]))
	}
	return result
}

// -----------------------------------------------------------------------------

// GetRange returns points with from <= timestamp <= to, oldest first.
func (rb *RingBuffer) GetRange(from, to time.Time) []models.MHistoricalPricePoint {
	lo, hi := float64(from.UnixMilli()), float64(to.UnixMilli())
	var result []models.MHistoricalPricePoint
	start := rb.oldest()
	for i := 0; i < rb.size; i++ {
		row := rb.data[(start+i)%rb.capacity]
		if ts := row[models.RB_IDX_TIMESTAMP]; ts >= lo && ts <= hi {
			result = append(result, rb.point(row))
		}
	}
	return result
}

// -----------------------------------------------------------------------------

func (rb *RingBuffer) Size() int {
	return rb.size
}

func (rb *RingBuffer) Capacity() int {
	return rb.capacity
}

func (rb *RingBuffer) IsFull() bool {
	return rb.size == rb.capacity
}

// -----------------------------------------------------------------------------

// Resize changes the capacity, keeping the newest points.
func (rb *RingBuffer) Resize(newCapacity int) {
	if newCapacity <= 0 || newCapacity == rb.capacity {
		return
	}

	count := min(rb.size, newCapacity)
	newData := make([][models.RB_NUM_FEATURES]float64, newCapacity)
	startIdx := (rb.index - count + rb.capacity) % rb.capacity
	for i := 0; i < count; i++ {
		newData[i] = rb.data[(startIdx+i)%rb.capacity]
	}

	rb.data = newData
	rb.capacity = newCapacity
	rb.size = count
	rb.index = count % newCapacity
}

// -----------------------------------------------------------------------------

func (rb *RingBuffer) Clear() {
	rb.index = 0
	rb.size = 0
}
