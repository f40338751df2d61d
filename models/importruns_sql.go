package models

import (
	"context"
	"database/sql"
)

type sqlImportRunRepo struct{ db *sql.DB }

func NewSQLImportRunRepository(db *sql.DB) ImportRunRepository {
	return &sqlImportRunRepo{db}
}

func (r *sqlImportRunRepo) Record(ctx context.Context, run *ImportRun) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var errText sql.NullString
	if run.Error != "" {
		errText = sql.NullString{String: run.Error, Valid: true}
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO import_runs(started_at, finished_at, venues_upserted, venues_skipped, events_upserted, events_skipped, error)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		run.StartedAt, run.FinishedAt, run.VenuesUpserted, run.VenuesSkipped,
		run.EventsUpserted, run.EventsSkipped, errText,
	).Scan(&run.ID)
}

func (r *sqlImportRunRepo) Recent(ctx context.Context, limit int) ([]ImportRun, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, venues_upserted, venues_skipped, events_upserted, events_skipped, error
		FROM import_runs ORDER BY started_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ImportRun{}
	for rows.Next() {
		var run ImportRun
		var errText sql.NullString
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.VenuesUpserted,
			&run.VenuesSkipped, &run.EventsUpserted, &run.EventsSkipped, &errText); err != nil {
			return nil, err
		}
		run.Error = errText.String
		out = append(out, run)
	}
	return out, rows.Err()
}
