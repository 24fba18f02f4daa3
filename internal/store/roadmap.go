package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Zay2006/Slacking-Capstone/core/db"
	"github.com/Zay2006/Slacking-Capstone/internal/model"
)

const (
	getRoadmapSQL = `
SELECT project_id, data, created_at, updated_at
FROM roadmaps
WHERE project_id = $1`

	listRoadmapsSQL = `
SELECT DISTINCT project_id, COALESCE(data->>'name', '') AS name
FROM roadmaps
ORDER BY project_id`

	roadmapExistsSQL = `SELECT EXISTS (SELECT 1 FROM roadmaps WHERE project_id = $1)`

	insertRoadmapSQL = `
INSERT INTO roadmaps (project_id, data, created_at, updated_at)
VALUES ($1, $2, now(), now())
RETURNING project_id, data, created_at, updated_at`

	updateRoadmapSQL = `
UPDATE roadmaps
SET data = $2, updated_at = now()
WHERE project_id = $1
RETURNING project_id, data, created_at, updated_at`
)

type roadmapStore struct {
	conn db.DBTX
}

func newRoadmapStore(conn db.DBTX) RoadmapStore {
	return &roadmapStore{conn: conn}
}

func (s *roadmapStore) Get(ctx context.Context, projectID string) (*model.Roadmap, error) {
	return scanRoadmap(s.conn.QueryRow(ctx, getRoadmapSQL, projectID))
}

func (s *roadmapStore) List(ctx context.Context) ([]model.RoadmapSummary, error) {
	rows, err := s.conn.Query(ctx, listRoadmapsSQL)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.RoadmapSummary, error) {
		var summary model.RoadmapSummary
		err := row.Scan(&summary.ProjectID, &summary.Name)
		return summary, err
	})
}

func (s *roadmapStore) Exists(ctx context.Context, projectID string) (bool, error) {
	var exists bool
	if err := s.conn.QueryRow(ctx, roadmapExistsSQL, projectID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *roadmapStore) Insert(ctx context.Context, projectID string, data json.RawMessage) (*model.Roadmap, error) {
	return scanRoadmap(s.conn.QueryRow(ctx, insertRoadmapSQL, projectID, []byte(data)))
}

func (s *roadmapStore) Update(ctx context.Context, projectID string, data json.RawMessage) (*model.Roadmap, error) {
	return scanRoadmap(s.conn.QueryRow(ctx, updateRoadmapSQL, projectID, []byte(data)))
}

func scanRoadmap(row pgx.Row) (*model.Roadmap, error) {
	var (
		r    model.Roadmap
		data []byte
	)
	if err := row.Scan(&r.ProjectID, &data, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.Data = json.RawMessage(data)
	return &r, nil
}
