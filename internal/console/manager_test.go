package console_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/aoiforge/internal/console"
	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManager_GetReusesSession(t *testing.T) {
	e := newEnv(t, false)
	m := console.NewManager(e.deps, time.Minute)
	t.Cleanup(m.Close)

	a, err := m.Get("")
	require.NoError(t, err)
	require.Equal(t, console.DefaultSessionID, a.ID())

	b, err := m.Get(console.DefaultSessionID)
	require.NoError(t, err)
	require.Same(t, a, b)

	other, err := m.Get("operator-2")
	require.NoError(t, err)
	require.NotSame(t, a, other)
	require.Equal(t, 2, m.Len())
}

func TestManager_RemoveClosesConsole(t *testing.T) {
	e := newEnv(t, false)
	m := console.NewManager(e.deps, time.Minute)
	t.Cleanup(m.Close)

	c, err := m.Get("s9")
	require.NoError(t, err)
	m.Remove("s9")

	_, err = c.Snapshot(context.Background())
	require.ErrorIs(t, err, console.ErrClosed)

	entries, err := e.activity.Recent(context.Background(), activity.Query{SessionID: "s9"})
	require.NoError(t, err)
	require.Equal(t, activity.TypeConsoleClosed, entries[0].ActivityType)

	fresh, err := m.Get("s9")
	require.NoError(t, err)
	require.NotSame(t, c, fresh)
}

func TestManager_ExpiredSessionIsReplaced(t *testing.T) {
	e := newEnv(t, false)
	m := console.NewManager(e.deps, 20*time.Millisecond)
	t.Cleanup(m.Close)

	c, err := m.Get("s1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := c.Snapshot(context.Background())
		return err != nil
	}, time.Second, 5*time.Millisecond)

	fresh, err := m.Get("s1")
	require.NoError(t, err)
	require.NotSame(t, c, fresh)
}

func TestManager_CloseTearsDownAll(t *testing.T) {
	e := newEnv(t, false)
	m := console.NewManager(e.deps, time.Minute)

	c, err := m.Get("a")
	require.NoError(t, err)
	m.Close()

	_, err = c.Wizard()
	require.ErrorIs(t, err, console.ErrClosed)
	_, err = m.Get("a")
	require.ErrorIs(t, err, console.ErrClosed)
	require.Zero(t, m.Len())
}

func TestManager_CloseStopsExpirySweep(t *testing.T) {
	e := newEnv(t, false)
	before := goleak.IgnoreCurrent()

	m := console.NewManager(e.deps, 10*time.Millisecond)
	_, err := m.Get("a")
	require.NoError(t, err)
	m.Close()
	m.Close()

	goleak.VerifyNone(t, before)
	_, err = m.Get("a")
	require.ErrorIs(t, err, console.ErrClosed)
	require.Zero(t, m.Len())
}
