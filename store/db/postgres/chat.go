package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/fruitbox12/zik.sh/store"
)

func (d *DB) EnsureChatTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_session (
			id         SERIAL PRIMARY KEY,
			uid        TEXT   NOT NULL UNIQUE,
			title      TEXT   NOT NULL DEFAULT 'New Chat',
			created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
			updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE TABLE IF NOT EXISTS chat_message (
			id         SERIAL  PRIMARY KEY,
			session_id INTEGER NOT NULL REFERENCES chat_session(id) ON DELETE CASCADE,
			role       TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			created_ts BIGINT  NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_message_session ON chat_message(session_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error) {
	stmt := `INSERT INTO chat_session (uid, title)
	         VALUES ($1, $2)
	         RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.UID, create.Title).
		Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, title, created_ts, updated_ts
		 FROM chat_session WHERE %s ORDER BY id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.ChatSession
	for rows.Next() {
		s := &store.ChatSession{}
		if err := rows.Scan(&s.ID, &s.UID, &s.Title, &s.CreatedTs, &s.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (d *DB) UpdateChatSession(ctx context.Context, update *store.UpdateChatSession) (*store.ChatSession, error) {
	set, args := []string{}, []any{}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		list, err := d.ListChatSessions(ctx, &store.FindChatSession{ID: &update.ID})
		if err != nil || len(list) == 0 {
			return nil, err
		}
		return list[0], nil
	}
	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	args = append(args, update.ID)
	stmt := fmt.Sprintf(
		`UPDATE chat_session SET %s WHERE id = %s
		 RETURNING id, uid, title, created_ts, updated_ts`,
		strings.Join(set, ", "), placeholder(len(args)),
	)
	s := &store.ChatSession{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).
		Scan(&s.ID, &s.UID, &s.Title, &s.CreatedTs, &s.UpdatedTs); err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteChatSession removes the session and its messages in one transaction,
// so a half-deleted conversation can never be observed.
func (d *DB) DeleteChatSession(ctx context.Context, uid string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int32
	if err := tx.QueryRowContext(ctx, `SELECT id FROM chat_session WHERE uid = $1`, uid).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_message WHERE session_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_session WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) CreateChatMessage(ctx context.Context, create *store.CreateChatMessage) (*store.ChatMessage, error) {
	stmt := `INSERT INTO chat_message (session_id, role, content)
	         VALUES ($1, $2, $3)
	         RETURNING id, created_ts`
	m := &store.ChatMessage{
		SessionID: create.SessionID,
		Role:      create.Role,
		Content:   create.Content,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.SessionID, create.Role, create.Content,
	).Scan(&m.ID, &m.CreatedTs); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, created_ts
	          FROM chat_message WHERE session_id = $1 ORDER BY id ASC`
	rows, err := d.db.QueryContext(ctx, query, find.SessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.ChatMessage
	for rows.Next() {
		m := &store.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (d *DB) DeleteChatMessages(ctx context.Context, sessionID int32) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM chat_message WHERE session_id = $1`, sessionID)
	return err
}
