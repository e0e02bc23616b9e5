package mysql

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
			id         INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			uid        VARCHAR(256) NOT NULL UNIQUE,
			title      TEXT NOT NULL,
			created_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS chat_message (
			id         INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			session_id INT NOT NULL,
			role       VARCHAR(256) NOT NULL,
			content    TEXT NOT NULL,
			created_ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT fk_chat_message_session FOREIGN KEY (session_id) REFERENCES chat_session(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX idx_chat_message_session ON chat_message(session_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			// The index statement is not idempotent on MySQL.
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return err
		}
	}
	return nil
}

func (d *DB) CreateChatSession(ctx context.Context, create *store.ChatSession) (*store.ChatSession, error) {
	stmt := "INSERT INTO `chat_session` (`uid`, `title`) VALUES (?, ?)"
	if _, err := d.db.ExecContext(ctx, stmt, create.UID, create.Title); err != nil {
		return nil, err
	}
	// Fetch it back to populate the surrogate id and timestamps.
	list, err := d.ListChatSessions(ctx, &store.FindChatSession{UID: &create.UID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Errorf("session %s not found after insert", create.UID)
	}
	return list[0], nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "`id` = ?"), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "`uid` = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, title, UNIX_TIMESTAMP(created_ts), UNIX_TIMESTAMP(updated_ts)
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
		set, args = append(set, "`title` = ?"), append(args, *v)
	}
	if len(set) > 0 {
		set = append(set, "`updated_ts` = CURRENT_TIMESTAMP")
		args = append(args, update.ID)
		stmt := fmt.Sprintf("UPDATE `chat_session` SET %s WHERE `id` = ?", strings.Join(set, ", "))
		if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
			return nil, err
		}
	}
	list, err := d.ListChatSessions(ctx, &store.FindChatSession{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Errorf("session %d not found", update.ID)
	}
	return list[0], nil
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
	if err := tx.QueryRowContext(ctx, "SELECT `id` FROM `chat_session` WHERE `uid` = ?", uid).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM `chat_message` WHERE `session_id` = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM `chat_session` WHERE `id` = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) CreateChatMessage(ctx context.Context, create *store.CreateChatMessage) (*store.ChatMessage, error) {
	stmt := "INSERT INTO `chat_message` (`session_id`, `role`, `content`) VALUES (?, ?, ?)"
	result, err := d.db.ExecContext(ctx, stmt, create.SessionID, create.Role, create.Content)
	if err != nil {
		return nil, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	m := &store.ChatMessage{
		ID:        int32(rawID),
		SessionID: create.SessionID,
		Role:      create.Role,
		Content:   create.Content,
	}
	if err := d.db.QueryRowContext(ctx, "SELECT UNIX_TIMESTAMP(created_ts) FROM chat_message WHERE id = ?", m.ID).Scan(&m.CreatedTs); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	query := `SELECT id, session_id, role, content, UNIX_TIMESTAMP(created_ts)
	          FROM chat_message WHERE session_id = ? ORDER BY id ASC`
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
	_, err := d.db.ExecContext(ctx, "DELETE FROM `chat_message` WHERE `session_id` = ?", sessionID)
	return err
}
