package loop

import "sync"

type subscriber struct {
	id int
	fn func()
}

// Signals fans out panel lifecycle events to explicit subscribers.
// Callbacks run synchronously, in subscription order, on the goroutine that
// raised the event.
type Signals struct {
	mu      sync.Mutex
	nextID  int
	visible bool
	onShow  []subscriber
	onAuth  []subscriber
}

// NewSignals starts in the given visibility.
func NewSignals(visible bool) *Signals {
	return &Signals{visible: visible}
}

// OnVisible subscribes fn to hidden to visible transitions. The returned
// function unsubscribes and is safe to call more than once.
func (s *Signals) OnVisible(fn func()) (unsubscribe func()) {
	return s.subscribe(&s.onShow, fn)
}

// OnAuthStatusChanged subscribes fn to sign-in and sign-out events.
func (s *Signals) OnAuthStatusChanged(fn func()) (unsubscribe func()) {
	return s.subscribe(&s.onAuth, fn)
}

// SetVisible records the panel visibility. Only a hidden to visible
// transition notifies subscribers.
func (s *Signals) SetVisible(visible bool) {
	s.mu.Lock()
	becameVisible := visible && !s.visible
	s.visible = visible
	subs := append([]subscriber(nil), s.onShow...)
	s.mu.Unlock()

	if becameVisible {
		for _, sub := range subs {
			sub.fn()
		}
	}
}

func (s *Signals) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// NotifyAuthStatusChanged notifies auth subscribers.
func (s *Signals) NotifyAuthStatusChanged() {
	s.mu.Lock()
	subs := append([]subscriber(nil), s.onAuth...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}

func (s *Signals) subscribe(list *[]subscriber, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	*list = append(*list, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range *list {
				if sub.id == id {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}
