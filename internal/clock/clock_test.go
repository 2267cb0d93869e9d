package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDueOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)

	var fired []string
	m.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	m.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	m.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })

	m.Advance(1500 * time.Millisecond)
	require.Equal(t, []string{"a"}, fired)
	require.Equal(t, 2, m.Pending())

	m.Advance(2 * time.Second)
	require.Equal(t, []string{"a", "b", "c"}, fired)
	require.Equal(t, start.Add(3500*time.Millisecond), m.Now())
}

func TestManual_ChainedTimersFireWithinAdvance(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	count := 0
	var schedule func()
	schedule = func() {
		m.AfterFunc(time.Second, func() {
			count++
			if count < 3 {
				schedule()
			}
		})
	}
	schedule()

	m.Advance(10 * time.Second)
	require.Equal(t, 3, count)
	require.Zero(t, m.Pending())
}

func TestManual_Stop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })
	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	m.RunAll()
	require.False(t, fired)
}

func TestManual_RunAll(t *testing.T) {
	m := NewManual(time.Unix(0, 0))

	var order []int
	m.AfterFunc(5*time.Second, func() {
		order = append(order, 2)
		m.AfterFunc(time.Second, func() { order = append(order, 3) })
	})
	m.AfterFunc(time.Second, func() { order = append(order, 1) })

	m.RunAll()
	require.Equal(t, []int{1, 2, 3}, order)
	require.Equal(t, time.Unix(6, 0), m.Now())
}
