package events

import (
	"sync"

	"calendar_server_go/models"
)

// Listener получает полный отсортированный список событий.
type Listener func([]models.Event)

// Subscription - регистрация слушателя изменений коллекции.
//
// Каждый подписчик обслуживается своей горутиной: слушатель вызывается
// последовательно, частые изменения склеиваются в один вызов с последним
// снимком. Cancel можно вызывать и из самого слушателя.
type Subscription struct {
	adapter  *Adapter
	id       uint64
	listener Listener

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once

	// mu защищает stopped и calling: вызов слушателя не начинается после
	// того, как Cancel выставил stopped.
	mu      sync.Mutex
	stopped bool
	calling bool
}

// Subscribe регистрирует слушателя. Текущий список доставляется сразу,
// затем после каждого изменения.
func (a *Adapter) Subscribe(listener Listener) *Subscription {
	s := &Subscription{
		adapter:  a,
		listener: listener,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	a.mu.Lock()
	a.nextSub++
	s.id = a.nextSub
	a.subs[s.id] = s
	a.mu.Unlock()

	s.wakeUp()
	go s.run()
	return s
}

func (s *Subscription) wakeUp() {
	select {
	case s.wake <- struct{}{}:
	default:
		// Уведомление уже ожидает: следующий снимок и так будет свежим.
	}
}

func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.wake:
		}

		list, err := s.adapter.snapshot()
		if err != nil {
			s.adapter.log.Error("Failed to load events for subscriber", "subscription", s.id, "error", err)
			continue
		}

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		s.calling = true
		s.mu.Unlock()

		s.listener(list)

		s.mu.Lock()
		s.calling = false
		s.mu.Unlock()
	}
}

// Cancel снимает подписку. Повторный вызов безопасен. После возврата новых
// вызовов слушателя не будет. Обычно Cancel ждет завершения горутины
// подписчика; если слушатель в этот момент выполняется (например, Cancel
// вызван из него самого), текущий вызов не ждется, и Done закроется, когда
// он вернется.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.adapter.mu.Lock()
		delete(s.adapter.subs, s.id)
		s.adapter.mu.Unlock()
		close(s.stop)
	})

	s.mu.Lock()
	s.stopped = true
	calling := s.calling
	s.mu.Unlock()
	if calling {
		return
	}
	<-s.done
}

// Done закрывается, когда подписка полностью остановлена.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
