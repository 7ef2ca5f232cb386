package comment

import (
	"context"
	"strings"

	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/stream"

	"github.com/jackc/pgx/v5"
)

const selectComment = `
	SELECT c.id, c.trip_id, c.user_id, c.content, c.created_at, c.updated_at, u.name, u.avatar_url
	FROM comments c
	JOIN users u ON c.user_id = u.id`

var (
	errContentRequired = apperr.Validation("Comment content is required")
	errCommentMissing  = apperr.NotFound("Comment not found")
	errTripMissing     = apperr.NotFound("Trip not found")
)

type Service struct {
	db     db.Querier
	events stream.Publisher
}

func NewService(q db.Querier, events stream.Publisher) *Service {
	return &Service{db: q, events: events}
}

// ListByTrip returns a trip's comments newest first, with author details.
func ListByTrip(ctx context.Context, q db.Querier, tripID int64) ([]Comment, error) {
	rows, err := q.Query(ctx, selectComment+`
		WHERE c.trip_id = $1
		ORDER BY c.created_at DESC, c.id DESC
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Service) List(ctx context.Context, tripID int64) ([]Comment, error) {
	comments, err := ListByTrip(ctx, s.db, tripID)
	if err != nil {
		return nil, apperr.Internal("Failed to get comments", err)
	}
	return comments, nil
}

func (s *Service) Create(ctx context.Context, userID, tripID int64, req CreateRequest) (Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return Comment{}, errContentRequired
	}

	var exists int
	if err := s.db.QueryRow(ctx, `SELECT 1 FROM trips WHERE id = $1`, tripID).Scan(&exists); err != nil {
		if db.IsNoRows(err) {
			return Comment{}, errTripMissing
		}
		return Comment{}, apperr.Internal("Failed to add comment", err)
	}

	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO comments (trip_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id
	`, tripID, userID, content).Scan(&id)
	if err != nil {
		return Comment{}, apperr.Internal("Failed to add comment", err)
	}

	c, err := s.get(ctx, id)
	if err != nil {
		return Comment{}, apperr.Internal("Failed to add comment", err)
	}
	s.publish(ctx, stream.Event{Type: stream.EventComment, TripID: tripID, UserID: userID, CommentID: id})
	return c, nil
}

func (s *Service) Update(ctx context.Context, userID, commentID int64, req UpdateRequest) (Comment, error) {
	if _, err := s.authorize(ctx, userID, commentID, "Not authorized to edit this comment"); err != nil {
		return Comment{}, apperr.Wrap(err, "Failed to update comment")
	}

	var content *string
	if req.Content != nil {
		trimmed := strings.TrimSpace(*req.Content)
		if trimmed == "" {
			return Comment{}, errContentRequired
		}
		content = &trimmed
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE comments
		SET content = COALESCE($1, content), updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`, content, commentID); err != nil {
		return Comment{}, apperr.Internal("Failed to update comment", err)
	}

	c, err := s.get(ctx, commentID)
	if err != nil {
		return Comment{}, apperr.Internal("Failed to update comment", err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, userID, commentID int64) error {
	tripID, err := s.authorize(ctx, userID, commentID, "Not authorized to delete this comment")
	if err != nil {
		return apperr.Wrap(err, "Failed to delete comment")
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		return apperr.Internal("Failed to delete comment", err)
	}
	s.publish(ctx, stream.Event{Type: stream.EventCommentDeleted, TripID: tripID, UserID: userID, CommentID: commentID})
	return nil
}

// authorize returns the comment's trip when userID wrote it.
func (s *Service) authorize(ctx context.Context, userID, commentID int64, forbidden string) (int64, error) {
	var owner, tripID int64
	err := s.db.QueryRow(ctx, `SELECT user_id, trip_id FROM comments WHERE id = $1`, commentID).Scan(&owner, &tripID)
	if err != nil {
		if db.IsNoRows(err) {
			return 0, errCommentMissing
		}
		return 0, err
	}
	if owner != userID {
		return 0, apperr.Forbidden(forbidden)
	}
	return tripID, nil
}

func (s *Service) get(ctx context.Context, id int64) (Comment, error) {
	return scanComment(s.db.QueryRow(ctx, selectComment+` WHERE c.id = $1`, id))
}

func (s *Service) publish(ctx context.Context, ev stream.Event) {
	if s.events != nil {
		s.events.Publish(ctx, ev)
	}
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.TripID, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName, &c.AuthorAvatar)
	return c, err
}
