package history

import (
	"context"
	"errors"

	"github.com/2beens/intervaltimer/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ListParams struct {
	SessionID string
	Page      int
	Size      int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, event Event) (_ *Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.add")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("type", event.Type.String()))

	err = r.db.QueryRow(ctx, `
		INSERT INTO workout_event (session_id, type, data, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		event.SessionID,
		event.Type,
		event.Data,
		event.Timestamp,
	).Scan(&event.ID)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *Repo) List(ctx context.Context, params ListParams) (_ []*Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("session-id", params.SessionID))

	events := make([]*Event, 0)
	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, type, data, timestamp
		FROM workout_event
		WHERE ($1::text = '' OR session_id = $1)
		ORDER BY timestamp DESC, id DESC
		LIMIT $2 OFFSET $3;
	`,
		params.SessionID,
		params.Size, params.Size*(params.Page-1),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for rows.Next() {
		event := &Event{}
		if err := rows.Scan(&event.ID, &event.SessionID, &event.Type, &event.Data, &event.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, nil
}

func (r *Repo) Count(ctx context.Context, sessionID string) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.count")
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM workout_event
		WHERE ($1::text = '' OR session_id = $1);
	`, sessionID)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get workout events count")
}
