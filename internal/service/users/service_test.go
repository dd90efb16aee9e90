package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"users_api/internal/config"
	"users_api/internal/domain"
	"users_api/internal/model"
	"users_api/internal/store/memory"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, payload []byte, routingKey string) error {
	args := m.Called(ctx, payload, routingKey)
	return args.Error(0)
}

// recordingPublisher keeps every published event in arrival order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.UserEvent
	keys   []string
}

func (r *recordingPublisher) Publish(_ context.Context, payload []byte, routingKey string) error {
	var event model.UserEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.keys = append(r.keys, routingKey)
	return nil
}

func newService(t *testing.T, pub *publisherMock) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New(zap.NewNop())
	svc := NewService(&config.Config{RabbitRoutingPrefix: "user"}, store, pub, zap.NewNop())
	return svc, store
}

func acceptAll() *publisherMock {
	pub := &publisherMock{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return pub
}

// runEvents starts the publish loop and returns a func that stops it and
// waits until queued events are flushed.
func runEvents(t *testing.T, svc *Service) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.RunEvents(ctx)
	}()
	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("event loop did not stop")
		}
	}
	t.Cleanup(cancel)
	return stop
}

func queuedTypes(svc *Service) []string {
	var types []string
	for {
		select {
		case q := <-svc.events:
			types = append(types, q.event.Type)
		default:
			return types
		}
	}
}

func newUser(name string, age float64) model.User {
	return model.User{Name: &name, Age: &age}
}

func TestServiceCreate(t *testing.T) {
	t.Run("mints fresh ids", func(t *testing.T) {
		svc, store := newService(t, acceptAll())

		seen := map[string]struct{}{}
		for i := 0; i < 50; i++ {
			created := svc.Create(context.Background(), newUser("Ana", 30))
			require.NotEmpty(t, created.ID)
			_, dup := seen[created.ID]
			require.False(t, dup, "duplicate id %s", created.ID)
			seen[created.ID] = struct{}{}
		}
		require.Equal(t, 50, store.Len())
	})

	t.Run("ignores caller id", func(t *testing.T) {
		svc, _ := newService(t, acceptAll())
		svc.newID = func() string { return "minted" }

		in := newUser("Ana", 30)
		in.ID = "caller"
		created := svc.Create(context.Background(), in)
		require.Equal(t, "minted", created.ID)
	})

	t.Run("accepts empty payload", func(t *testing.T) {
		svc, store := newService(t, acceptAll())

		created := svc.Create(context.Background(), model.User{})
		require.NotEmpty(t, created.ID)
		require.Nil(t, created.Name)
		require.Nil(t, created.Age)
		require.Equal(t, 1, store.Len())
	})

	t.Run("publishes created event", func(t *testing.T) {
		published := make(chan []byte, 1)
		pub := &publisherMock{}
		pub.On("Publish", mock.Anything, mock.Anything, "user.created").Return(nil).Run(func(args mock.Arguments) {
			published <- args.Get(1).([]byte)
		}).Once()
		svc, _ := newService(t, pub)
		svc.newID = func() string { return "u-1" }
		svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
		runEvents(t, svc)

		svc.Create(context.Background(), newUser("Ana", 30))

		select {
		case payload := <-published:
			var event model.UserEvent
			require.NoError(t, json.Unmarshal(payload, &event))
			require.Equal(t, domain.UserEventCreated, event.Type)
			require.Equal(t, "u-1", event.User.ID)
			require.Equal(t, "Ana", *event.User.Name)
			require.True(t, event.OccurredAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
		case <-time.After(2 * time.Second):
			t.Fatalf("expected created event")
		}
		pub.AssertExpectations(t)
	})

	t.Run("publish error does not fail", func(t *testing.T) {
		pub := &publisherMock{}
		pub.On("Publish", mock.Anything, mock.Anything, "user.created").Return(errors.New("broker down")).Once()
		svc, store := newService(t, pub)
		stop := runEvents(t, svc)

		created := svc.Create(context.Background(), newUser("Ana", 30))
		stop()

		require.NotEmpty(t, created.ID)
		require.Equal(t, 1, store.Len())
		pub.AssertExpectations(t)
	})

	t.Run("returns while publisher is stuck", func(t *testing.T) {
		release := make(chan struct{})
		pub := &publisherMock{}
		pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
			<-release
		}).Maybe()
		svc, store := newService(t, pub)
		runEvents(t, svc)
		defer close(release)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 5; i++ {
				svc.Create(context.Background(), newUser("Ana", 30))
			}
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("create blocked on the event publisher")
		}
		require.Equal(t, 5, store.Len())
	})

	t.Run("full queue drops events", func(t *testing.T) {
		svc, store := newService(t, acceptAll())
		svc.events = make(chan queuedEvent, 1)

		svc.Create(context.Background(), newUser("Ana", 30))
		svc.Create(context.Background(), newUser("Bia", 25))

		require.Equal(t, 2, store.Len())
		require.Equal(t, []string{domain.UserEventCreated}, queuedTypes(svc))
	})
}

func TestServiceGuard(t *testing.T) {
	svc, _ := newService(t, acceptAll())
	svc.newID = func() string { return "u-1" }
	svc.Create(context.Background(), newUser("Ana", 30))

	svc.mu.Lock()
	defer svc.mu.Unlock()

	require.Equal(t, Lookup{Index: 0, Found: true}, svc.guard("u-1"))
	require.False(t, svc.guard("missing").Found)
}

func TestServiceReplace(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		svc, store := newService(t, &publisherMock{})

		_, err := svc.Replace(context.Background(), "missing", newUser("Ana", 31))
		require.ErrorIs(t, err, domain.ErrUserNotFound)
		require.Zero(t, store.Len())
		require.Empty(t, queuedTypes(svc))
	})

	t.Run("unknown id wins over bad payload", func(t *testing.T) {
		svc, _ := newService(t, acceptAll())

		_, err := svc.Replace(context.Background(), "missing", model.User{})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("incomplete payload leaves store unchanged", func(t *testing.T) {
		svc, _ := newService(t, acceptAll())
		created := svc.Create(context.Background(), newUser("Ana", 30))

		name := "Ana"
		zero := 0.0
		for _, payload := range []model.User{
			{},
			{Name: &name},
			{Name: &name, Age: &zero},
			newUser("", 31),
		} {
			_, err := svc.Replace(context.Background(), created.ID, payload)
			require.ErrorIs(t, err, domain.ErrInvalidUser)
		}

		require.Equal(t, []model.User{created}, svc.List(context.Background()))
		require.Equal(t, []string{domain.UserEventCreated}, queuedTypes(svc))
	})

	t.Run("overwrites name and age", func(t *testing.T) {
		svc, store := newService(t, acceptAll())
		first := svc.Create(context.Background(), newUser("Ana", 30))
		second := svc.Create(context.Background(), newUser("Bia", 25))

		in := newUser("Ana Maria", 30.5)
		in.ID = "ignored"
		got, err := svc.Replace(context.Background(), first.ID, in)
		require.NoError(t, err)
		require.Equal(t, first.ID, got.ID)
		require.Equal(t, "Ana Maria", *got.Name)
		require.Equal(t, 30.5, *got.Age)

		all := svc.List(context.Background())
		require.Equal(t, 2, store.Len())
		require.Equal(t, got, all[0])
		require.Equal(t, second, all[1])
		require.Equal(t, []string{
			domain.UserEventCreated,
			domain.UserEventCreated,
			domain.UserEventReplaced,
		}, queuedTypes(svc))
	})
}

func TestServiceDelete(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newService(t, acceptAll())
		svc.Create(context.Background(), newUser("Ana", 30))

		require.ErrorIs(t, svc.Delete(context.Background(), "missing"), domain.ErrUserNotFound)
		require.Equal(t, 1, svc.Count())
	})

	t.Run("removes once", func(t *testing.T) {
		svc, _ := newService(t, acceptAll())
		keep := svc.Create(context.Background(), newUser("Ana", 30))
		drop := svc.Create(context.Background(), newUser("Bia", 25))

		require.NoError(t, svc.Delete(context.Background(), drop.ID))
		require.Equal(t, 1, svc.Count())
		require.ErrorIs(t, svc.Delete(context.Background(), drop.ID), domain.ErrUserNotFound)
		require.Equal(t, []model.User{keep}, svc.List(context.Background()))
		require.Equal(t, []string{
			domain.UserEventCreated,
			domain.UserEventCreated,
			domain.UserEventDeleted,
		}, queuedTypes(svc))
	})
}

func TestServiceConcurrentMutations(t *testing.T) {
	store := memory.New(zap.NewNop())
	pub := &recordingPublisher{}
	svc := NewService(&config.Config{RabbitRoutingPrefix: "user"}, store, pub, zap.NewNop())
	stop := runEvents(t, svc)

	const workers = 16
	ids := make([]string, workers)
	for i := range ids {
		ids[i] = svc.Create(context.Background(), newUser(fmt.Sprintf("user-%d", i), float64(i+1))).ID
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_ = svc.Delete(context.Background(), id)
		}(ids[i])
		go func(id string, age float64) {
			defer wg.Done()
			_, err := svc.Replace(context.Background(), id, newUser("renamed", age))
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrUserNotFound)
			}
		}(ids[i], float64(i+100))
	}
	wg.Wait()
	stop()

	require.Zero(t, svc.Count())
	require.Empty(t, svc.List(context.Background()))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	perID := map[string][]string{}
	for i, event := range pub.events {
		require.Equal(t, "user."+event.Type, pub.keys[i])
		perID[event.User.ID] = append(perID[event.User.ID], event.Type)
	}
	require.Len(t, perID, workers)
	for id, types := range perID {
		require.Equal(t, domain.UserEventCreated, types[0], id)
		require.Equal(t, domain.UserEventDeleted, types[len(types)-1], id)
		require.LessOrEqual(t, len(types), 3, id)
	}
}
