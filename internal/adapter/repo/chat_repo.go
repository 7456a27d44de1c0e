package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// ChatRepositoryPG implements domain.ChatRepository backed by PostgreSQL.
// Turn pairs are written inside a transaction so a conversation can never
// hold an unpaired user turn.
type ChatRepositoryPG struct {
	sql infra.TxExecutor
}

// NewChatRepository creates a new ChatRepositoryPG.
func NewChatRepository(sql infra.TxExecutor) *ChatRepositoryPG {
	return &ChatRepositoryPG{sql: sql}
}

// CreateWithTurns inserts a new conversation together with its first
// user/assistant turn pair.
func (r *ChatRepositoryPG) CreateWithTurns(ctx context.Context, chat *domain.Chat, userTurn, assistantTurn *domain.Turn) error {
	return r.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		if _, err := tx.Exec(ctx, sqlinline.QInsertChat, chat.ID, chat.UserID, chat.Title, chat.LastMessageAt); err != nil {
			return err
		}
		if err := insertTurn(ctx, tx, chat.ID, userTurn); err != nil {
			return err
		}
		return insertTurn(ctx, tx, chat.ID, assistantTurn)
	})
}

// AppendTurns adds a user/assistant turn pair to an existing conversation
// owned by the given user.
func (r *ChatRepositoryPG) AppendTurns(ctx context.Context, chatID, userID string, userTurn, assistantTurn *domain.Turn) error {
	return r.sql.InTx(ctx, func(tx infra.SQLExecutor) error {
		row := tx.QueryRow(ctx, sqlinline.QTouchChatForUser, chatID, userID, assistantTurn.Timestamp)
		var id string
		if err := row.Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := insertTurn(ctx, tx, chatID, userTurn); err != nil {
			return err
		}
		return insertTurn(ctx, tx, chatID, assistantTurn)
	})
}

// GetForUser loads one conversation with all of its turns in order.
func (r *ChatRepositoryPG) GetForUser(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectChatForUser, chatID, userID)
	var c domain.Chat
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.IsDeleted, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.sql.Query(ctx, sqlinline.QSelectChatMessages, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t domain.Turn
		var role string
		var sources []byte
		if err := rows.Scan(&t.ID, &role, &t.Content, &t.Voice, &sources, &t.TokensUsed, &t.CreditsDeducted, &t.Timestamp); err != nil {
			return nil, err
		}
		t.Role = domain.TurnRole(role)
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &t.Sources); err != nil {
				return nil, err
			}
		}
		c.Messages = append(c.Messages, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListForUser returns a page of conversation summaries ordered by most recent
// activity, plus the total count for pagination.
func (r *ChatRepositoryPG) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Chat, int, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListChatsForUser, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var chats []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ID, &c.Title, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		c.UserID = userID
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountChatsForUser, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

// SoftDelete flags a conversation as deleted without removing its rows.
func (r *ChatRepositoryPG) SoftDelete(ctx context.Context, chatID, userID string) error {
	row := r.sql.QueryRow(ctx, sqlinline.QSoftDeleteChat, chatID, userID)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func insertTurn(ctx context.Context, tx infra.SQLExecutor, chatID string, turn *domain.Turn) error {
	var sources []byte
	if len(turn.Sources) > 0 {
		var err error
		sources, err = json.Marshal(turn.Sources)
		if err != nil {
			return err
		}
	}
	_, err := tx.Exec(ctx, sqlinline.QInsertChatMessage,
		turn.ID, chatID, string(turn.Role), turn.Content, turn.Voice,
		sources, turn.TokensUsed, turn.CreditsDeducted, turn.Timestamp,
	)
	return err
}

var _ domain.ChatRepository = (*ChatRepositoryPG)(nil)
