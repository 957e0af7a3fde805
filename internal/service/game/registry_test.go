package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhayymishraa/4-in-a-row/internal/domain"
)

func TestRegistry_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(Deps{})

	a := domain.NewHuman("alice")
	b := domain.NewHuman("bob")
	s := reg.Create(a, b, "")
	req.NotEmpty(s.ID)
	req.Equal(1, reg.Len())

	got, ok := reg.Get(s.ID)
	req.True(ok)
	req.Same(s, got)

	got, ok = reg.FindByIdentity(a.ID)
	req.True(ok)
	req.Same(s, got)
	got, ok = reg.FindByIdentity(b.ID)
	req.True(ok)
	req.Same(s, got)

	_, ok = reg.Get("missing")
	req.False(ok)
	_, ok = reg.FindByIdentity("nobody")
	req.False(ok)
}

func TestRegistry_RemoveDeindexesBothSeats(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(Deps{})

	a := domain.NewHuman("alice")
	b := domain.NewHuman("bob")
	s := reg.Create(a, b, "s-1")

	reg.Remove(s.ID)
	req.Equal(0, reg.Len())
	_, ok := reg.FindByIdentity(a.ID)
	req.False(ok)
	_, ok = reg.FindByIdentity(b.ID)
	req.False(ok)

	// Removing twice is harmless.
	reg.Remove(s.ID)
}

func TestRegistry_ConcurrentSessionsAreIndependent(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(Deps{})
	rec := newRecorder()

	a := domain.NewHuman("alice")
	b := domain.NewHuman("bob")
	c := domain.NewHuman("carol")
	d := domain.NewHuman("dave")
	s1 := reg.Create(a, b, "s-1")
	s2 := reg.Create(c, d, "s-2")
	req.Equal(2, reg.Len())

	req.NoError(s1.HandleMove(a.ID, 0, rec))
	req.NoError(s2.HandleMove(c.ID, 6, rec))

	req.Equal(1, s1.State().Board[domain.Rows-1][0])
	req.Equal(0, s1.State().Board[domain.Rows-1][6])
	req.Equal(1, s2.State().Board[domain.Rows-1][6])
}

func TestRegistry_Update(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(Deps{})

	a := domain.NewHuman("alice")
	b := domain.NewHuman("bob")
	reg.Create(a, b, "s-1")

	replacement := newSession("s-1", a, b, Deps{}, reg)
	req.NoError(reg.Update(replacement))
	got, ok := reg.Get("s-1")
	req.True(ok)
	req.Same(replacement, got)

	stranger := newSession("s-404", a, b, Deps{}, reg)
	req.ErrorIs(reg.Update(stranger), domain.ErrSessionNotFound)
}

func TestRegistry_SweepStaleSkipsActiveAndFinished(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(Deps{})
	rec := newRecorder()

	a := domain.NewHuman("alice")
	b := domain.NewHuman("bob")
	stale := reg.Create(a, b, "stale")

	c := domain.NewHuman("carol")
	d := domain.NewHuman("dave")
	fresh := reg.Create(c, d, "fresh")

	// Make the first session look abandoned.
	stale.mu.Lock()
	stale.LastMoveAt = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	req.NoError(fresh.HandleMove(c.ID, 3, rec))

	removed := reg.SweepStale(30 * time.Minute)
	req.Equal(1, removed)
	_, ok := reg.Get("stale")
	req.False(ok)
	_, ok = reg.Get("fresh")
	req.True(ok)
}

func TestRegistry_SweepLeavesFinishedSessions(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry(Deps{ResultGrace: time.Hour})
	rec := newRecorder()

	a := domain.NewHuman("alice")
	b := domain.NewHuman("bob")
	s := reg.Create(a, b, "s-1")
	for col := 0; col < 3; col++ {
		req.NoError(s.HandleMove(a.ID, col, rec))
		req.NoError(s.HandleMove(b.ID, 6, rec))
	}
	req.NoError(s.HandleMove(a.ID, 3, rec))

	s.mu.Lock()
	s.LastMoveAt = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	// Finished sessions are the grace timer's job, not the sweep's.
	req.Equal(0, reg.SweepStale(30*time.Minute))
	_, ok := reg.Get("s-1")
	req.True(ok)
}
