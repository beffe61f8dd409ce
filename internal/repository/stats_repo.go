package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"edu-platform/internal/model"
)

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// CountTables reads the three counts in one round trip so they come from the
// same snapshot.
func (r *StatsRepository) CountTables(ctx context.Context) (model.TableCounts, error) {
	var counts model.TableCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM projects),
			(SELECT COUNT(*) FROM tasks)
	`).Scan(&counts.Users, &counts.Projects, &counts.Tasks)
	if err != nil {
		return model.TableCounts{}, fmt.Errorf("count tables: %w", err)
	}

	return counts, nil
}
