package trip

import (
	"time"

	"backend-milestomemories/internal/comment"
)

// DefaultTags are always offered, moods found on trips are appended.
var DefaultTags = []string{"beach", "mountain", "city", "food", "adventure", "culture", "nature", "romantic"}

type Trip struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	Date         *string   `json:"date"`
	Description  *string   `json:"description"`
	Mood         *string   `json:"mood"`
	ImageURL     *string   `json:"image_url"`
	LikesCount   int64     `json:"likes_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar *string   `json:"author_avatar"`

	// Set only for authenticated viewers.
	Liked *bool `json:"liked,omitempty"`
	Saved *bool `json:"saved,omitempty"`
}

type Photo struct {
	ID        int64     `json:"id"`
	TripID    int64     `json:"trip_id"`
	PhotoURL  string    `json:"photo_url"`
	Caption   *string   `json:"caption"`
	SortOrder int64     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type Detail struct {
	Trip
	Photos   []Photo           `json:"photos"`
	Comments []comment.Comment `json:"comments"`
}

type Memory struct {
	Trip
	TripYear int `json:"trip_year"`
	YearsAgo int `json:"years_ago"`
}

type Nearby struct {
	Trip
	DistanceKm float64 `json:"distance_km"`
}

type DestinationCount struct {
	Location   string `json:"location"`
	VisitCount int64  `json:"visit_count"`
}

type MoodCount struct {
	Mood  *string `json:"mood"`
	Count int64   `json:"count"`
}

type Recap struct {
	Year               string             `json:"year"`
	TotalTrips         int64              `json:"total_trips"`
	UniqueDestinations int64              `json:"unique_destinations"`
	TopDestinations    []DestinationCount `json:"top_destinations"`
	MoodBreakdown      []MoodCount        `json:"mood_breakdown"`
}

type ListFilter struct {
	Location string
	Year     string
	Limit    int
	Offset   int
}

type PhotoInput struct {
	PhotoURL string  `json:"photo_url" validate:"required"`
	Caption  *string `json:"caption"`
}

type CreateRequest struct {
	Title       string       `json:"title" validate:"required"`
	Location    string       `json:"location" validate:"required"`
	Latitude    *float64     `json:"latitude"`
	Longitude   *float64     `json:"longitude"`
	Date        *string      `json:"date"`
	Description *string      `json:"description"`
	Mood        *string      `json:"mood"`
	ImageURL    *string      `json:"image_url"`
	Photos      []PhotoInput `json:"photos"`
}

// UpdateRequest is a partial update: nil fields keep their stored value.
type UpdateRequest struct {
	Title       *string  `json:"title"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Mood        *string  `json:"mood"`
	ImageURL    *string  `json:"image_url"`
}
