package events

import (
	"slices"
	"sync"

	"calendar_server_go/models"
)

// Projection - список событий на стороне потребителя. Заменяется целиком
// при каждом уведомлении; после успешного локального удаления из него
// сразу убирается удаленный id, не дожидаясь следующего снимка.
type Projection struct {
	mu     sync.RWMutex
	events []models.Event
}

// Replace заменяет список целиком. Подходит как Listener.
func (p *Projection) Replace(list []models.Event) {
	p.mu.Lock()
	p.events = slices.Clone(list)
	p.mu.Unlock()
}

// Remove убирает событие по id. Возвращает false, если его не было.
func (p *Projection) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := slices.IndexFunc(p.events, func(e models.Event) bool { return e.ID == id })
	if i < 0 {
		return false
	}
	p.events = slices.Delete(p.events, i, i+1)
	return true
}

// Events возвращает копию текущего списка.
func (p *Projection) Events() []models.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.events)
}

func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.events)
}
