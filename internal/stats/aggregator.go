package stats

import (
	"context"
	"sort"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DefaultActivityLimit is the size of the recent activity feed when no limit is given.
const DefaultActivityLimit = 5

// Aggregator derives dashboard counters and the activity feed from repository state.
type Aggregator struct {
	repo        repository.DocumentRepository
	activeUsers int
}

// NewAggregator creates an Aggregator. activeUsers is reported as-is; it is
// not derived from repository state.
func NewAggregator(repo repository.DocumentRepository, activeUsers int) *Aggregator {
	return &Aggregator{repo: repo, activeUsers: activeUsers}
}

// Stats computes the counters from a single repository snapshot.
func (a *Aggregator) Stats(ctx context.Context) (*model.Stats, error) {
	docs, err := a.repo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	out := &model.Stats{
		TotalDocuments: len(docs),
		ActiveUsers:    a.activeUsers,
	}
	for i := range docs {
		if docs[i].Status == model.StatusPending {
			out.PendingApprovals++
		}
		out.StorageUsedBytes += docs[i].Size
	}
	return out, nil
}

// RecentActivities flattens every history entry, newest first, truncated to limit.
// Entries with equal timestamps keep their flatten order (documents in insertion
// order, each history newest first). A non-positive limit uses DefaultActivityLimit.
func (a *Aggregator) RecentActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	docs, err := a.repo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	items := make([]model.Activity, 0)
	for i := range docs {
		d := &docs[i]
		for _, h := range d.History {
			items = append(items, model.Activity{
				DocumentID:    d.ID,
				DocumentTitle: d.Title,
				Version:       h.Version,
				Timestamp:     h.Timestamp,
				Actor:         h.Actor,
				ChangeSummary: h.ChangeSummary,
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
