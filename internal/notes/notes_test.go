package notes_test

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-miti/internal/bs"
	"github.com/tartampluch/go-miti/internal/config"
	"github.com/tartampluch/go-miti/internal/notes"
	"github.com/tartampluch/go-miti/internal/store"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newService(t *testing.T) (*notes.Service, *fakeClock, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.StoreFileName)
	st, err := store.Open(path)
	require.NoError(t, err)

	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	svc := notes.NewService(st, clock)
	seq := 0
	svc.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return svc, clock, path
}

func TestAdd_TrimsAndStamps(t *testing.T) {
	svc, _, _ := newService(t)
	d := bs.NewDate(2082, 1, 15)

	n, err := svc.Add(d, "  Dashain shopping \n")
	require.NoError(t, err)
	assert.Equal(t, "id-1", n.ID)
	assert.Equal(t, "Dashain shopping", n.Text)
	assert.Equal(t, int64(1_700_000_000_000), n.Created)
	assert.Equal(t, n.Created, n.Modified)
	assert.Equal(t, n.Created, n.Timestamp)

	list, err := svc.ForDate(d)
	require.NoError(t, err)
	assert.Equal(t, []notes.Note{n}, list)
	assert.True(t, svc.HasNotes(d))
	assert.False(t, svc.HasNotes(bs.NewDate(2082, 1, 16)))
}

func TestAdd_Validation(t *testing.T) {
	svc, _, _ := newService(t)
	d := bs.NewDate(2082, 1, 15)

	_, err := svc.Add(d, "   \t")
	assert.ErrorIs(t, err, notes.ErrEmptyText)

	_, err = svc.Add(d, strings.Repeat("a", config.MaxNoteLength+1))
	assert.ErrorIs(t, err, notes.ErrTooLong)

	// The limit counts characters, not bytes.
	_, err = svc.Add(d, strings.Repeat("न", config.MaxNoteLength))
	assert.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	svc, clock, _ := newService(t)
	d := bs.NewDate(2082, 2, 1)
	first, err := svc.Add(d, "one")
	require.NoError(t, err)
	_, err = svc.Add(d, "two")
	require.NoError(t, err)

	clock.now = clock.now.Add(time.Minute)
	up, err := svc.Update(d, first.ID, " uno ")
	require.NoError(t, err)
	assert.Equal(t, "uno", up.Text)
	assert.Equal(t, first.Created, up.Created)
	assert.Equal(t, first.Created+60_000, up.Modified)
	assert.Equal(t, up.Modified, up.Timestamp)

	list, err := svc.ForDate(d)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "uno", list[0].Text, "order is preserved")

	_, err = svc.Update(d, "nope", "x")
	assert.ErrorIs(t, err, notes.ErrNoteNotFound)
	_, err = svc.Update(d, first.ID, "")
	assert.ErrorIs(t, err, notes.ErrEmptyText)
}

func TestDelete_RemovesKeyWithLastNote(t *testing.T) {
	svc, _, _ := newService(t)
	d := bs.NewDate(2082, 3, 3)
	a, err := svc.Add(d, "a")
	require.NoError(t, err)
	b, err := svc.Add(d, "b")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(d, a.ID))
	n, err := svc.Count(d)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.Delete(d, b.ID))
	assert.Empty(t, svc.Store.Keys(config.KeyNotesPrefix))

	assert.ErrorIs(t, svc.Delete(d, b.ID), notes.ErrNoteNotFound)
}

func TestDeleteAll(t *testing.T) {
	svc, _, _ := newService(t)
	d := bs.NewDate(2082, 3, 3)
	for _, txt := range []string{"a", "b", "c"} {
		_, err := svc.Add(d, txt)
		require.NoError(t, err)
	}

	n, err := svc.DeleteAll(d)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.DeleteAll(d)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestForMonthAndOverview(t *testing.T) {
	svc, _, _ := newService(t)
	for _, d := range []bs.Date{
		bs.NewDate(2082, 4, 2),
		bs.NewDate(2082, 4, 30),
		bs.NewDate(2082, 4, 11),
		bs.NewDate(2082, 5, 1),  // next month
		bs.NewDate(2082, 14, 1), // never matches a real month prefix
	} {
		_, err := svc.Add(d, "note "+d.String())
		require.NoError(t, err)
	}

	byDay, err := svc.ForMonth(2082, 4)
	require.NoError(t, err)
	assert.Len(t, byDay, 3)
	assert.Contains(t, byDay, "2082-04-30")

	days, err := svc.Overview(2082, 4)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, []int{30, 11, 2}, []int{days[0].Date.Day, days[1].Date.Day, days[2].Date.Day})
}

func TestNotesPersistAcrossReopen(t *testing.T) {
	svc, clock, path := newService(t)
	d := bs.NewDate(2082, 6, 6)
	_, err := svc.Add(d, "persist me")
	require.NoError(t, err)

	st, err := store.Open(path)
	require.NoError(t, err)
	again := notes.NewService(st, clock)
	list, err := again.ForDate(d)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "persist me", list[0].Text)
}

func TestOnChange_ReportsDate(t *testing.T) {
	svc, clock, path := newService(t)
	var changed []bs.Date
	svc.OnChange(func(d bs.Date) { changed = append(changed, d) })

	st, err := store.Open(path)
	require.NoError(t, err)
	other := notes.NewService(st, clock)
	_, err = other.Add(bs.NewDate(2082, 7, 9), "from another process")
	require.NoError(t, err)

	require.NoError(t, svc.Store.Reload())
	require.Len(t, changed, 1)
	assert.Equal(t, "2082-07-09", changed[0].String())
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", notes.Preview("short", 80))
	assert.Equal(t, "abc...", notes.Preview("abcdef", 3))
	assert.Equal(t, "नम...", notes.Preview("नमस्ते", 2))
}

func TestNewService_UsesUUIDs(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), config.StoreFileName))
	require.NoError(t, err)
	svc := notes.NewService(st, &fakeClock{now: time.Now()})

	n, err := svc.Add(bs.NewDate(2082, 1, 1), "x")
	require.NoError(t, err)
	assert.Len(t, n.ID, 36)
}
