package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"giveawaybot/internal/domain"

	"github.com/lib/pq"
)

// SnapshotRepo implements repository.SnapshotStore on PostgreSQL
type SnapshotRepo struct {
	db *sql.DB
}

// NewSnapshotRepo creates a new snapshot repository
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Load reads settings and every giveaway
func (r *SnapshotRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	settings, err := r.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		snap.Settings = *settings
	}

	query := `
		SELECT id, chat_id, message_id, title, prize, conditions, creator_id,
			winners_count, min_entries, ends_at, participants, status, host,
			winners, created_at, resolved_at
		FROM giveaways
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query giveaways: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g domain.Giveaway
		var participants, winners []int64
		var resolvedAt sql.NullTime
		var status string

		if err := rows.Scan(
			&g.ID, &g.ChatID, &g.MessageID, &g.Title, &g.Prize, &g.Conditions, &g.CreatorID,
			&g.WinnersCount, &g.MinEntries, &g.EndsAt, pq.Array(&participants), &status, &g.Host,
			pq.Array(&winners), &g.CreatedAt, &resolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan giveaway: %w", err)
		}

		g.Status = domain.Status(status)
		g.Participants = domain.NewIDSet(participants...)
		if len(winners) > 0 {
			g.Winners = winners
		}
		g.EndsAt = g.EndsAt.UTC()
		g.CreatedAt = g.CreatedAt.UTC()
		if resolvedAt.Valid {
			t := resolvedAt.Time.UTC()
			g.ResolvedAt = &t
		}

		snap.Giveaways[g.ID] = &g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap.Normalize()
	return snap, nil
}

func (r *SnapshotRepo) loadSettings(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	var operators []int64
	var destinations, hostNames []byte

	query := `
		SELECT auto_resolve, banner, operators, destinations, host_names
		FROM bot_settings
		WHERE id = 1
	`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&s.AutoResolve, &s.Banner, pq.Array(&operators), &destinations, &hostNames,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	s.Operators = domain.NewIDSet(operators...)
	if err := json.Unmarshal(destinations, &s.Destinations); err != nil {
		return nil, fmt.Errorf("decode destinations: %w", err)
	}
	if err := json.Unmarshal(hostNames, &s.HostNames); err != nil {
		return nil, fmt.Errorf("decode host names: %w", err)
	}

	return &s, nil
}

// Save replaces the stored state with snapshot in one transaction
func (r *SnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	destinations, err := json.Marshal(nonNil(snapshot.Settings.Destinations))
	if err != nil {
		return fmt.Errorf("encode destinations: %w", err)
	}
	hostNames, err := json.Marshal(nonNil(snapshot.Settings.HostNames))
	if err != nil {
		return fmt.Errorf("encode host names: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	settingsQuery := `
		INSERT INTO bot_settings (id, auto_resolve, banner, operators, destinations, host_names)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			auto_resolve = EXCLUDED.auto_resolve,
			banner = EXCLUDED.banner,
			operators = EXCLUDED.operators,
			destinations = EXCLUDED.destinations,
			host_names = EXCLUDED.host_names
	`
	if _, err := tx.ExecContext(ctx, settingsQuery,
		snapshot.Settings.AutoResolve,
		snapshot.Settings.Banner,
		pq.Array(snapshot.Settings.Operators.Slice()),
		destinations,
		hostNames,
	); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	giveawayQuery := `
		INSERT INTO giveaways (id, chat_id, message_id, title, prize, conditions, creator_id,
			winners_count, min_entries, ends_at, participants, status, host,
			winners, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			message_id = EXCLUDED.message_id,
			participants = EXCLUDED.participants,
			status = EXCLUDED.status,
			host = EXCLUDED.host,
			winners = EXCLUDED.winners,
			resolved_at = EXCLUDED.resolved_at
	`
	ids := make([]string, 0, len(snapshot.Giveaways))
	for id, g := range snapshot.Giveaways {
		ids = append(ids, id)

		var resolvedAt sql.NullTime
		if g.ResolvedAt != nil {
			resolvedAt = sql.NullTime{Time: *g.ResolvedAt, Valid: true}
		}
		winners := g.Winners
		if winners == nil {
			winners = []int64{}
		}

		if _, err := tx.ExecContext(ctx, giveawayQuery,
			id, g.ChatID, g.MessageID, g.Title, g.Prize, g.Conditions, g.CreatorID,
			g.WinnersCount, g.MinEntries, g.EndsAt, pq.Array(g.Participants.Slice()), string(g.Status), g.Host,
			pq.Array(winners), g.CreatedAt, resolvedAt,
		); err != nil {
			return fmt.Errorf("save giveaway %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM giveaways WHERE NOT (id = ANY($1))`,
		pq.Array(ids),
	); err != nil {
		return fmt.Errorf("prune giveaways: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nonNil(m map[int64]string) map[int64]string {
	if m == nil {
		return map[int64]string{}
	}
	return m
}
