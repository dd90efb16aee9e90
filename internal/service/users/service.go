package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"users_api/internal/config"
	"users_api/internal/domain"
	"users_api/internal/model"
	"users_api/internal/queue"
	"users_api/internal/repository"
)

var tracer = otel.Tracer("users")

// Lookup is the outcome of resolving a route id against the store.
// Index is meaningful only when Found is true.
type Lookup struct {
	Index int
	Found bool
}

// Service runs the user operations. mu is held from the existence check
// through the mutation and the event enqueue, so a resolved index cannot go
// stale and events leave in mutation order.
type Service struct {
	mu            sync.Mutex
	store         repository.UserRepository
	pub           queue.Publisher
	log           *zap.Logger
	routingPrefix string
	events        chan queuedEvent
	newID         func() string
	now           func() time.Time
}

func NewService(cfg *config.Config, store repository.UserRepository, publisher queue.Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:         store,
		pub:           publisher,
		log:           logger,
		routingPrefix: cfg.RabbitRoutingPrefix,
		events:        make(chan queuedEvent, eventBuffer),
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (s *Service) List(ctx context.Context) []model.User {
	_, span := tracer.Start(ctx, "users.list")
	defer span.End()

	s.mu.Lock()
	users := s.store.ListAll()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users
}

// Create stores the payload under a fresh id. Name and age are not validated.
func (s *Service) Create(ctx context.Context, user model.User) model.User {
	ctx, span := tracer.Start(ctx, "users.create")
	defer span.End()

	created := user.Clone()
	created.ID = s.newID()
	span.SetAttributes(attribute.String("user.id", created.ID))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Insert(created)
	s.enqueue(ctx, domain.UserEventCreated, created)
	return created
}

// Replace overwrites name and age of the user with the given id. An unknown
// id is reported before an incomplete payload.
func (s *Service) Replace(ctx context.Context, id string, user model.User) (model.User, error) {
	ctx, span := tracer.Start(ctx, "users.replace", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	replacement, err := s.replace(ctx, id, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.User{}, err
	}
	return replacement, nil
}

func (s *Service) replace(ctx context.Context, id string, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.guard(id)
	if !found.Found {
		return model.User{}, domain.ErrUserNotFound
	}
	if err := domain.ValidateReplacement(user); err != nil {
		return model.User{}, err
	}
	replacement := user.Clone()
	replacement.ID = id
	s.store.ReplaceAt(found.Index, replacement)
	s.enqueue(ctx, domain.UserEventReplaced, replacement)
	return replacement, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "users.delete", trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	if err := s.remove(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Service) remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := s.guard(id)
	if !found.Found {
		return domain.ErrUserNotFound
	}
	s.store.RemoveAt(found.Index)
	s.enqueue(ctx, domain.UserEventDeleted, model.User{ID: id})
	return nil
}

// Count reports the number of stored users.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// guard resolves id to a store position. s.mu must be held.
func (s *Service) guard(id string) Lookup {
	index, ok := s.store.FindIndexByID(id)
	return Lookup{Index: index, Found: ok}
}
