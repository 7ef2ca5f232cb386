package admin

import "time"

type Stats struct {
	Users    int64 `json:"users"`
	Trips    int64 `json:"trips"`
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	TripCount int64     `json:"trip_count"`
}

// Trip is the moderation view of a trip. Author fields are nil for trips
// whose owner row is gone.
type Trip struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Date        *string   `json:"date"`
	Mood        *string   `json:"mood"`
	LikesCount  int64     `json:"likes_count"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorName  *string   `json:"author_name"`
	AuthorEmail *string   `json:"author_email"`
}
