package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// RecordPlay stores a completed play together with how every agent
// answered its mark-out. Recording the same play again overwrites it.
func (d *Database) RecordPlay(ctx context.Context, play models.Play, results []models.AgentResult) error {
	return d.InTx(ctx, func(ctx context.Context) error {
		q := d.querier(ctx)

		_, err := q.ExecContext(ctx, `
			INSERT INTO plays (play_id, session_id, mark_in, mark_out, play_type, result, quarter, down, distance, yard_line)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (play_id) DO UPDATE SET
				session_id = EXCLUDED.session_id,
				mark_in = EXCLUDED.mark_in,
				mark_out = EXCLUDED.mark_out,
				play_type = EXCLUDED.play_type,
				result = EXCLUDED.result,
				quarter = EXCLUDED.quarter,
				down = EXCLUDED.down,
				distance = EXCLUDED.distance,
				yard_line = EXCLUDED.yard_line`,
			play.PlayID,
			play.SessionID,
			play.MarkIn,
			play.MarkOut,
			play.Tags.PlayType,
			play.Tags.Result,
			nullInt(play.Tags.Quarter),
			nullInt(play.Tags.Down),
			nullInt(play.Tags.Distance),
			nullInt(play.Tags.YardLine),
		)
		if err != nil {
			return fmt.Errorf("insert play %s: %w", play.PlayID, err)
		}

		if _, err := q.ExecContext(ctx, "DELETE FROM play_agents WHERE play_id = $1", play.PlayID); err != nil {
			return fmt.Errorf("clear agent results of %s: %w", play.PlayID, err)
		}
		for _, r := range results {
			_, err := q.ExecContext(ctx,
				"INSERT INTO play_agents (play_id, agent_id, channel_id, ok, error) VALUES ($1, $2, $3, $4, $5)",
				play.PlayID, r.AgentID, r.ChannelID, r.OK, r.Error,
			)
			if err != nil {
				return fmt.Errorf("insert agent result %s/%s: %w", play.PlayID, r.AgentID, err)
			}
		}
		return nil
	})
}

// SessionPlays lists the journaled plays of a session in mark-in order.
func (d *Database) SessionPlays(ctx context.Context, sessionID string) ([]models.Play, error) {
	rows, err := d.querier(ctx).QueryContext(ctx, `
		SELECT play_id, session_id, mark_in, mark_out, play_type, result, quarter, down, distance, yard_line
		FROM plays
		WHERE session_id = $1
		ORDER BY mark_in`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query plays of %s: %w", sessionID, err)
	}
	defer rows.Close()

	var plays []models.Play
	for rows.Next() {
		var (
			p                                 models.Play
			quarter, down, distance, yardLine sql.NullInt64
		)
		err := rows.Scan(
			&p.PlayID,
			&p.SessionID,
			&p.MarkIn,
			&p.MarkOut,
			&p.Tags.PlayType,
			&p.Tags.Result,
			&quarter,
			&down,
			&distance,
			&yardLine,
		)
		if err != nil {
			return nil, fmt.Errorf("scan play: %w", err)
		}
		p.Tags.Quarter = intPtr(quarter)
		p.Tags.Down = intPtr(down)
		p.Tags.Distance = intPtr(distance)
		p.Tags.YardLine = intPtr(yardLine)
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
