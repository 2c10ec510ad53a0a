package database

import "context"

type InsertOutboxEventParams struct {
	Topic   string
	Payload []byte
}

// InsertOutboxEvent records a domain event. Always called inside the same
// transaction as the state change it describes, so the event and the
// change commit or roll back together.
func (q *Queries) InsertOutboxEvent(ctx context.Context, arg InsertOutboxEventParams) (OutboxEvent, error) {
	row := q.db.QueryRow(ctx, `INSERT INTO outbox_events (topic, payload)
		VALUES ($1, $2)
		RETURNING id, topic, payload, created_at, published_at`, arg.Topic, arg.Payload)
	var e OutboxEvent
	err := row.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt, &e.PublishedAt)
	return e, err
}

func (q *Queries) ListUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := q.db.Query(ctx, `SELECT id, topic, payload, created_at, published_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (q *Queries) MarkOutboxEventPublished(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `UPDATE outbox_events
		SET published_at = now()
		WHERE id = $1 AND published_at IS NULL`, id)
	return err
}
