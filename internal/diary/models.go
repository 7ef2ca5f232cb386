package diary

import "time"

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Mood        string    `json:"mood"`
	Photos      []string  `json:"photos"`
	Favorites   int       `json:"favorites"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EntryForm is what create and update accept, as multipart fields or JSON.
// Nil means the field was not sent.
type EntryForm struct {
	Title          *string `json:"title"`
	Location       *string `json:"location"`
	Date           *string `json:"date"`
	Description    *string `json:"description"`
	Mood           *string `json:"mood"`
	ExistingPhotos *string `json:"existingPhotos"`
}

type newEntry struct {
	Title    string `validate:"required"`
	Location string `validate:"required"`
	Date     string `validate:"required"`
}

type CommentRequest struct {
	Author string `json:"author" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,contains=@"`
}

type FavoriteState struct {
	Favorited bool `json:"favorited"`
	Count     int  `json:"count"`
}
