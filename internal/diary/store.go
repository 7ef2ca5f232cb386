// Package diary is the single-process travel diary: entries with uploaded
// photos, anonymous comments, favorites and a newsletter list, all held in
// memory.
package diary

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"backend-milestomemories/internal/shared/apperr"

	"github.com/google/uuid"
)

const defaultMood = "neutral"

var (
	errEntryMissing   = apperr.NotFound("Entry not found")
	errCommentMissing = apperr.NotFound("Comment not found")
	errSubscribed     = apperr.Validation("Email already subscribed")
)

// Store is safe for concurrent use. Everything it returns is a copy.
type Store struct {
	mu          sync.RWMutex
	entries     []*Entry
	favorites   []string
	subscribers []string
	now         func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// SeedDemo adds two sample entries with comments.
func (s *Store) SeedDemo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	s.entries = append(s.entries,
		&Entry{
			ID:          "1",
			Title:       "Trip to Paris",
			Location:    "Paris, France",
			Date:        "2024-03-15",
			Description: "Visited the Eiffel Tower and enjoyed croissants at a local café. The city lights at night were magical!",
			Mood:        "excited",
			Photos:      []string{},
			Comments: []Comment{
				{ID: "c1", Author: "Sarah", Text: "Paris is amazing! Did you visit the Louvre?", CreatedAt: time.Date(2024, 3, 16, 10, 30, 0, 0, time.UTC)},
				{ID: "c2", Author: "Mike", Text: "The croissants there are the best!", CreatedAt: time.Date(2024, 3, 16, 14, 20, 0, 0, time.UTC)},
			},
			CreatedAt: now,
		},
		&Entry{
			ID:          "2",
			Title:       "Beach Day in Bali",
			Location:    "Bali, Indonesia",
			Date:        "2024-02-20",
			Description: "Spent the day surfing and watching the sunset. The beaches here are absolutely stunning.",
			Mood:        "relaxed",
			Photos:      []string{},
			Comments: []Comment{
				{ID: "c3", Author: "Emma", Text: "Which beach was this? I'm planning a trip!", CreatedAt: time.Date(2024, 2, 21, 8, 15, 0, 0, time.UTC)},
			},
			CreatedAt: now,
		},
	)
}

// List returns entries by date, newest first. Dates are ISO strings so they
// order lexically.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, clone(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (s *Store) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.find(id)
	if e == nil {
		return Entry{}, errEntryMissing
	}
	return clone(e), nil
}

func (s *Store) Create(f EntryForm, photos []string) Entry {
	e := &Entry{
		ID:          uuid.NewString(),
		Title:       deref(f.Title),
		Location:    deref(f.Location),
		Date:        deref(f.Date),
		Description: deref(f.Description),
		Mood:        deref(f.Mood),
		Photos:      append([]string{}, photos...),
		Comments:    []Comment{},
		CreatedAt:   s.now().UTC(),
	}
	if e.Mood == "" {
		e.Mood = defaultMood
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return clone(e)
}

// Update applies f. Non-empty title, location, date and mood replace the
// stored ones; a sent description always does. keep, when non-nil, replaces
// the photo list before added is appended. The photos no longer referenced
// are returned so the caller can delete the files.
func (s *Store) Update(id string, f EntryForm, keep, added []string) (Entry, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(id)
	if e == nil {
		return Entry{}, nil, errEntryMissing
	}

	if v := deref(f.Title); v != "" {
		e.Title = v
	}
	if v := deref(f.Location); v != "" {
		e.Location = v
	}
	if v := deref(f.Date); v != "" {
		e.Date = v
	}
	if v := deref(f.Mood); v != "" {
		e.Mood = v
	}
	if f.Description != nil {
		e.Description = *f.Description
	}

	var dropped []string
	if keep != nil {
		for _, p := range e.Photos {
			if !slices.Contains(keep, p) {
				dropped = append(dropped, p)
			}
		}
		e.Photos = append([]string{}, keep...)
	}
	e.Photos = append(e.Photos, added...)
	return clone(e), dropped, nil
}

// RemovePhoto drops url from the entry and reports whether the entry held
// it; an unknown url leaves the entry unchanged.
func (s *Store) RemovePhoto(id, url string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(id)
	if e == nil {
		return Entry{}, false, errEntryMissing
	}
	before := len(e.Photos)
	e.Photos = slices.DeleteFunc(e.Photos, func(p string) bool { return p == url })
	return clone(e), len(e.Photos) < before, nil
}

// Delete removes the entry and its favorite mark, returning its photos.
func (s *Store) Delete(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, errEntryMissing
	}
	photos := s.entries[i].Photos
	s.entries = slices.Delete(s.entries, i, i+1)
	s.favorites = slices.DeleteFunc(s.favorites, func(f string) bool { return f == id })
	return photos, nil
}

func (s *Store) AddComment(id string, req CommentRequest) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(id)
	if e == nil {
		return Comment{}, errEntryMissing
	}
	c := Comment{ID: uuid.NewString(), Author: req.Author, Text: req.Text, CreatedAt: s.now().UTC()}
	e.Comments = append(e.Comments, c)
	return c, nil
}

func (s *Store) DeleteComment(entryID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(entryID)
	if e == nil {
		return errEntryMissing
	}
	i := slices.IndexFunc(e.Comments, func(c Comment) bool { return c.ID == commentID })
	if i < 0 {
		return errCommentMissing
	}
	e.Comments = slices.Delete(e.Comments, i, i+1)
	return nil
}

func (s *Store) Favorites() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.favorites...)
}

// ToggleFavorite flips the favorite mark; the count never goes below zero.
func (s *Store) ToggleFavorite(id string) (FavoriteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.find(id)
	if e == nil {
		return FavoriteState{}, errEntryMissing
	}
	if i := slices.Index(s.favorites, id); i >= 0 {
		s.favorites = slices.Delete(s.favorites, i, i+1)
		e.Favorites = max(0, e.Favorites-1)
		return FavoriteState{Favorited: false, Count: e.Favorites}, nil
	}
	s.favorites = append(s.favorites, id)
	e.Favorites++
	return FavoriteState{Favorited: true, Count: e.Favorites}, nil
}

func (s *Store) Subscribe(email string) error {
	email = strings.TrimSpace(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.subscribers, email) {
		return errSubscribed
	}
	s.subscribers = append(s.subscribers, email)
	return nil
}

func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

func (s *Store) find(id string) *Entry {
	if i := s.index(id); i >= 0 {
		return s.entries[i]
	}
	return nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.entries, func(e *Entry) bool { return e.ID == id })
}

func clone(e *Entry) Entry {
	out := *e
	out.Photos = append([]string{}, e.Photos...)
	out.Comments = append([]Comment{}, e.Comments...)
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
