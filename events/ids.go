package events

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator выдает id событий из времени создания в миллисекундах.
// Если часы вернули значение не больше предыдущего (два сохранения в одну
// миллисекунду или перевод часов назад), берется предыдущее + 1.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next возвращает следующий id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}
