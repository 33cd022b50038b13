package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalsFireOnlyOnHiddenToVisible(t *testing.T) {
	s := NewSignals(true)
	var shown int
	s.OnVisible(func() { shown++ })

	s.SetVisible(true)
	assert.Zero(t, shown, "already visible")

	s.SetVisible(false)
	assert.False(t, s.Visible())
	s.SetVisible(true)
	s.SetVisible(true)
	assert.Equal(t, 1, shown)
}

func TestSignalsUnsubscribe(t *testing.T) {
	s := NewSignals(false)
	var first, second int
	unsubFirst := s.OnVisible(func() { first++ })
	s.OnVisible(func() { second++ })

	unsubFirst()
	unsubFirst()
	s.SetVisible(true)

	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestSignalsAuthStatus(t *testing.T) {
	s := NewSignals(true)
	var order []string
	unsubA := s.OnAuthStatusChanged(func() { order = append(order, "a") })
	s.OnAuthStatusChanged(func() { order = append(order, "b") })

	s.NotifyAuthStatusChanged()
	unsubA()
	s.NotifyAuthStatusChanged()

	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestSignalsCallbackMayUnsubscribe(t *testing.T) {
	s := NewSignals(false)
	var calls int
	var unsub func()
	unsub = s.OnVisible(func() {
		calls++
		unsub()
	})

	s.SetVisible(true)
	s.SetVisible(false)
	s.SetVisible(true)
	assert.Equal(t, 1, calls)
}
