package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Zay2006/Slacking-Capstone/internal/model"
	"github.com/Zay2006/Slacking-Capstone/internal/store"
)

// RoadmapGateway is the bot's narrow view of the roadmaps table. Failures are
// logged and reported as absence: callers cannot tell "error" from "no data",
// only whether a database is configured at all.
type RoadmapGateway interface {
	Get(ctx context.Context, projectID string) *model.Roadmap
	List(ctx context.Context) []model.RoadmapSummary
	Upsert(ctx context.Context, projectID string, data json.RawMessage) *model.Roadmap
	Available() bool
}

type roadmapGateway struct {
	roadmaps  store.RoadmapStore
	txRunner  TxRunner
	available bool
}

func NewRoadmapGateway(roadmaps store.RoadmapStore, txRunner TxRunner, available bool) RoadmapGateway {
	return &roadmapGateway{
		roadmaps:  roadmaps,
		txRunner:  txRunner,
		available: available,
	}
}

func (g *roadmapGateway) Available() bool {
	return g.available
}

func (g *roadmapGateway) Get(ctx context.Context, projectID string) *model.Roadmap {
	roadmap, err := g.roadmaps.Get(ctx, projectID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to fetch roadmap", "error", err, "project_id", projectID)
		}
		return nil
	}
	return roadmap
}

func (g *roadmapGateway) List(ctx context.Context) []model.RoadmapSummary {
	summaries, err := g.roadmaps.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list roadmaps", "error", err)
		return []model.RoadmapSummary{}
	}
	return summaries
}

// Upsert updates the roadmap when it exists and inserts it otherwise, inside
// one transaction.
func (g *roadmapGateway) Upsert(ctx context.Context, projectID string, data json.RawMessage) *model.Roadmap {
	if !json.Valid(data) {
		slog.WarnContext(ctx, "refusing to store invalid roadmap JSON", "project_id", projectID)
		return nil
	}

	var result *model.Roadmap
	err := g.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		roadmaps := sp.Roadmaps()

		exists, err := roadmaps.Exists(ctx, projectID)
		if err != nil {
			return fmt.Errorf("checking roadmap: %w", err)
		}

		if exists {
			result, err = roadmaps.Update(ctx, projectID, data)
		} else {
			result, err = roadmaps.Insert(ctx, projectID, data)
		}
		if err != nil {
			return fmt.Errorf("writing roadmap: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert roadmap", "error", err, "project_id", projectID)
		return nil
	}

	slog.InfoContext(ctx, "roadmap upserted", "project_id", projectID)
	return result
}
