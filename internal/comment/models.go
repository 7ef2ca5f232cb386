package comment

import "time"

type Comment struct {
	ID           int64     `json:"id"`
	TripID       int64     `json:"trip_id"`
	UserID       int64     `json:"user_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar *string   `json:"author_avatar"`
}

type CreateRequest struct {
	Content string `json:"content"`
}

// UpdateRequest leaves the content untouched when Content is nil.
type UpdateRequest struct {
	Content *string `json:"content"`
}
