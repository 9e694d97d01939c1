package notification

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, retention time.Duration) (*RedisStore, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, retention), m
}

func TestRedisStore_SaveGet(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	n := &Notification{
		ID:        "n1",
		Type:      TypeEmail,
		Recipient: "a@example.com",
		Subject:   "s",
		Body:      "b",
		Status:    StatusSent,
		Attempts:  1,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Save(ctx, n))

	got, err := store.Get(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, n.Recipient, got.Recipient)
	require.Equal(t, StatusSent, got.Status)
	require.Equal(t, 1, got.Attempts)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ListByRecipientNewestFirst(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Save(ctx, &Notification{
			ID:        id,
			Type:      TypeEmail,
			Recipient: "list@example.com",
			Status:    StatusSent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Save(ctx, &Notification{
		ID: "other", Type: TypeEmail, Recipient: "other@example.com", Status: StatusSent, CreatedAt: base,
	}))

	all, err := store.ListByRecipient(ctx, "list@example.com", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "new", all[0].ID)
	require.Equal(t, "old", all[2].ID)

	two, err := store.ListByRecipient(ctx, "list@example.com", 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	require.Equal(t, "mid", two[1].ID)

	none, err := store.ListByRecipient(ctx, "nobody@example.com", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestRedisStore_SaveOverwrites(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	n := &Notification{ID: "r1", Type: TypeEmail, Recipient: "r@example.com", Status: StatusFailed, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, n))
	n.Status = StatusSent
	n.Attempts = 2
	require.NoError(t, store.Save(ctx, n))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, StatusSent, got.Status)

	list, err := store.ListByRecipient(ctx, "r@example.com", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRedisStore_Stats(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	statuses := []string{StatusSent, StatusSent, StatusFailed}
	for i, st := range statuses {
		require.NoError(t, store.Save(ctx, &Notification{
			ID:        string(rune('a' + i)),
			Type:      TypeEmail,
			Recipient: "stats@example.com",
			Status:    st,
			CreatedAt: time.Now().UTC(),
		}))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats[StatusSent])
	require.Equal(t, 1, stats[StatusFailed])
	require.Equal(t, 0, stats[StatusPending])
}

func TestRedisStore_RetentionExpiry(t *testing.T) {
	store, m := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Notification{
		ID: "ttl", Type: TypeEmail, Recipient: "ttl@example.com", Status: StatusSent, CreatedAt: time.Now().UTC(),
	}))

	m.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "ttl")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := store.ListByRecipient(ctx, "ttl@example.com", 0)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestRedisStore_WithManager(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	emailMock := &mockEmailSender{shouldFail: true, failError: "down"}
	mgr := NewNotificationManager(emailMock, NewTemplateEngine(), store, zerolog.Nop())
	ctx := context.Background()

	n := &Notification{Type: TypeEmail, Recipient: "m@example.com", Body: "x"}
	require.Error(t, mgr.Send(ctx, n))

	emailMock.setFail(false, "")
	got, err := mgr.Retry(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSent, got.Status)

	stored, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stored.Attempts)
}
