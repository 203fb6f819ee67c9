package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitor_NotifiesOnTransitionsOnly(t *testing.T) {
	m := NewMonitor(true)
	var got []bool
	unsubscribe := m.Subscribe(func(online bool) { got = append(got, online) })

	m.Set(true)
	m.Set(false)
	m.Set(false)
	m.Set(true)
	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, m.Online())

	unsubscribe()
	unsubscribe()
	m.Set(false)
	assert.Len(t, got, 2)
	assert.False(t, m.Online())
}

func TestMonitor_SubscribersInRegistrationOrder(t *testing.T) {
	m := NewMonitor(false)
	var order []string
	m.Subscribe(func(bool) { order = append(order, "a") })
	drop := m.Subscribe(func(bool) { order = append(order, "b") })
	m.Subscribe(func(bool) { order = append(order, "c") })
	drop()

	m.Set(true)
	assert.Equal(t, []string{"a", "c"}, order)
}

func TestSignal(t *testing.T) {
	s := NewSignal()
	fired := 0
	unsubscribe := s.Subscribe(func() { fired++ })

	s.Fire()
	s.Fire()
	unsubscribe()
	s.Fire()
	assert.Equal(t, 2, fired)
}
