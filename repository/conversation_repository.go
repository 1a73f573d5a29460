package repository

import (
	"context"
	"errors"
	"fmt"

	"lawchat-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository handles database operations for conversation state:
// the ordered turn history plus the rolling summary.
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Load returns the full conversation state. An unknown id returns an empty
// state, not an error: the first turn of a conversation creates it.
func (r *ConversationRepository) Load(ctx context.Context, id string) (*models.ConversationState, error) {
	state := &models.ConversationState{ID: id}

	err := r.db.QueryRow(ctx, `
		SELECT summary, summarized_through
		FROM conversations
		WHERE id = $1`, id,
	).Scan(&state.Summary, &state.SummarizedThrough)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, seq, user_text, answer_text, confidence_score, created_at
		FROM conversation_turns
		WHERE conversation_id = $1
		ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var turn models.Turn
		err := rows.Scan(
			&turn.ID,
			&turn.ConversationID,
			&turn.Seq,
			&turn.UserText,
			&turn.AnswerText,
			&turn.ConfidenceScore,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		state.Turns = append(state.Turns, turn)
	}

	return state, rows.Err()
}

// Append stores one completed turn, creating the conversation row if needed.
func (r *ConversationRepository) Append(ctx context.Context, turn *models.Turn) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (id, summary, summarized_through)
		VALUES ($1, '', 0)
		ON CONFLICT (id) DO NOTHING`, turn.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to ensure conversation: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO conversation_turns (id, conversation_id, seq, user_text, answer_text, confidence_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		turn.ID, turn.ConversationID, turn.Seq, turn.UserText, turn.AnswerText, turn.ConfidenceScore,
	).Scan(&turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateSummary replaces the rolling summary and its coverage marker.
func (r *ConversationRepository) UpdateSummary(ctx context.Context, id, summary string, through int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET summary = $2, summarized_through = $3
		WHERE id = $1`, id, summary, through)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return nil
}

// Clear removes a conversation and all its turns.
func (r *ConversationRepository) Clear(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}
