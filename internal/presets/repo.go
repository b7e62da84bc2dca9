package presets

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/intervaltimer/internal/telemetry/tracing"
	"github.com/2beens/intervaltimer/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, preset Preset) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.presets.add")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("name", preset.Name))

	_, err = r.db.Exec(ctx, `
		INSERT INTO timer_preset (name, description, work_seconds, rest_seconds, rounds, sets, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`,
		preset.Name, preset.Description,
		preset.Config.WorkSeconds, preset.Config.RestSeconds,
		preset.Config.Rounds, preset.Config.Sets,
		preset.CreatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrPresetExists
		}
		return fmt.Errorf("insert preset: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, name string) (_ *Preset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.presets.get")
	defer func() {
		if err != nil && !errors.Is(err, ErrPresetNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("name", name))

	preset := &Preset{}
	err = r.db.
		QueryRow(ctx, `
			SELECT name, description, work_seconds, rest_seconds, rounds, sets, created_at
			FROM timer_preset
			WHERE name = $1
		`, name).
		Scan(
			&preset.Name, &preset.Description,
			&preset.Config.WorkSeconds, &preset.Config.RestSeconds,
			&preset.Config.Rounds, &preset.Config.Sets,
			&preset.CreatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPresetNotFound
		}
		return nil, err
	}
	return preset, nil
}

func (r *Repo) List(ctx context.Context) (_ []Preset, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.presets.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	rows, err := r.db.Query(ctx, `
		SELECT name, description, work_seconds, rest_seconds, rounds, sets, created_at
		FROM timer_preset
		ORDER BY name;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var presets []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(
			&p.Name, &p.Description,
			&p.Config.WorkSeconds, &p.Config.RestSeconds,
			&p.Config.Rounds, &p.Config.Sets,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}

	return presets, nil
}

func (r *Repo) Delete(ctx context.Context, name string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.presets.delete")
	defer func() {
		if err != nil && !errors.Is(err, ErrPresetNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM timer_preset WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPresetNotFound
	}
	return nil
}
