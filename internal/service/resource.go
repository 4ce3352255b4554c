package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/events"
	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/pkg/logging"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeReplace
	ModePatch
)

// Full reports whether every required field has to be present.
func (m Mode) Full() bool { return m != ModePatch }

var writeCounter, _ = otel.Meter("github.com/Skotchmaster/storepanel/internal/service").
	Int64Counter("storepanel.resource.writes", metric.WithDescription("Successful writes per resource and operation"))

// Resource is the CRUD service of one entity type. Prepare runs before the
// write transaction and may read the database (reference checks, uniqueness,
// filling defaults from other rows); Apply maps the request onto the model
// and must not touch the database.
type Resource[M models.Entity, R any] struct {
	Name    string
	Table   *repo.Table[M]
	Prepare func(ctx context.Context, req *R, id uuid.UUID, mode Mode) error
	Apply   func(ctx context.Context, req *R, m *M, mode Mode) error
	// Unique names the request field reported on a unique-key violation.
	Unique    string
	UniqueMsg string
	Payload   func(m *M) any

	Events      events.Publisher
	AfterSave   func(ctx context.Context, m *M) error
	AfterDelete func(ctx context.Context, id uuid.UUID) error
}

func (s *Resource[M, R]) List(ctx context.Context) ([]M, error) {
	return s.Table.List(ctx)
}

func (s *Resource[M, R]) Get(ctx context.Context, id uuid.UUID) (*M, error) {
	m, err := s.Table.Get(ctx, id)
	if err != nil {
		return nil, s.storeErr(err)
	}
	return m, nil
}

func (s *Resource[M, R]) Create(ctx context.Context, req *R) (*M, error) {
	if s.Prepare != nil {
		if err := s.Prepare(ctx, req, uuid.Nil, ModeCreate); err != nil {
			return nil, err
		}
	}

	var m M
	if err := s.Apply(ctx, req, &m, ModeCreate); err != nil {
		return nil, err
	}
	if err := s.Table.Create(ctx, &m); err != nil {
		return nil, s.storeErr(err)
	}

	s.written(ctx, "created", &m)
	return &m, nil
}

func (s *Resource[M, R]) Update(ctx context.Context, id uuid.UUID, req *R, mode Mode) (*M, error) {
	ok, err := s.Table.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	if s.Prepare != nil {
		if err := s.Prepare(ctx, req, id, mode); err != nil {
			return nil, err
		}
	}

	m, err := s.Table.Update(ctx, id, func(m *M) error {
		return s.Apply(ctx, req, m, mode)
	})
	if err != nil {
		return nil, s.storeErr(err)
	}

	s.written(ctx, "updated", m)
	return m, nil
}

func (s *Resource[M, R]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Table.Delete(ctx, id); err != nil {
		return s.storeErr(err)
	}

	l := logging.FromContext(ctx).With("svc", s.Name+".delete")
	if s.AfterDelete != nil {
		if err := s.AfterDelete(ctx, id); err != nil {
			l.Warn("after_delete_failed", "id", id, "error", err)
		}
	}
	s.publish(ctx, "deleted", id, nil)
	writeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", s.Name), attribute.String("op", "deleted")))
	return nil
}

// written runs the post-commit side effects. They never fail the request.
func (s *Resource[M, R]) written(ctx context.Context, op string, m *M) {
	l := logging.FromContext(ctx).With("svc", s.Name+"."+op)
	if s.AfterSave != nil {
		if err := s.AfterSave(ctx, m); err != nil {
			l.Warn("after_save_failed", "id", (*m).Key(), "error", err)
		}
	}

	var data any
	if s.Payload != nil {
		data = s.Payload(m)
	}
	s.publish(ctx, op, (*m).Key(), data)
	writeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", s.Name), attribute.String("op", op)))
}

func (s *Resource[M, R]) publish(ctx context.Context, op string, id uuid.UUID, data any) {
	if s.Events == nil {
		return
	}
	ev := events.Event{
		Type:       s.Name + "." + op,
		ID:         id,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if actor, ok := ActorFromContext(ctx); ok {
		ev.Actor = &actor
	}
	if err := s.Events.PublishEvent(ctx, events.Topic(s.Name), id.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", ev.Type, "id", id, "error", err)
	}
}

func (s *Resource[M, R]) storeErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrDuplicate) && s.Unique != "":
		return Invalid(s.Unique, s.UniqueMsg)
	case errors.Is(err, repo.ErrForeignKey):
		return &FieldError{Fields: map[string]string{"non_field_errors": "a referenced object does not exist"}}
	}
	return err
}
