package admin

import (
	"context"

	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/trip"

	"github.com/rs/zerolog/log"
)

var (
	errUserMissing = apperr.NotFound("User not found")
	errTripMissing = apperr.NotFound("Trip not found")
)

// userCascade removes everything a user wrote and everything hanging off
// their trips, then the user.
var userCascade = []string{
	`DELETE FROM comments WHERE user_id = $1 OR trip_id IN (SELECT id FROM trips WHERE user_id = $1)`,
	`DELETE FROM trip_likes WHERE user_id = $1 OR trip_id IN (SELECT id FROM trips WHERE user_id = $1)`,
	`DELETE FROM trip_saves WHERE user_id = $1 OR trip_id IN (SELECT id FROM trips WHERE user_id = $1)`,
	`DELETE FROM trip_photos WHERE trip_id IN (SELECT id FROM trips WHERE user_id = $1)`,
	`DELETE FROM trips WHERE user_id = $1`,
	`DELETE FROM user_profiles WHERE user_id = $1`,
	`DELETE FROM social_connections WHERE user_id = $1`,
	`DELETE FROM users WHERE id = $1`,
}

type Service struct {
	db    db.Store
	cache *cache.Cache
}

func NewService(store db.Store, c *cache.Cache) *Service {
	return &Service{db: store, cache: c}
}

// Stats counts likes from trip_likes rows.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM trips),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM trip_likes)
	`).Scan(&st.Users, &st.Trips, &st.Comments, &st.Likes)
	if err != nil {
		return Stats{}, apperr.Internal("Failed to fetch stats", err)
	}
	return st, nil
}

func (s *Service) Users(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.email, u.name, u.avatar_url, u.created_at, COUNT(t.id) AS trip_count
		FROM users u
		LEFT JOIN trips t ON u.id = t.user_id
		GROUP BY u.id, u.email, u.name, u.avatar_url, u.created_at
		ORDER BY u.created_at DESC, u.id DESC
	`)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.CreatedAt, &u.TripCount); err != nil {
			return nil, apperr.Internal("Failed to fetch users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("Failed to fetch users", err)
	}
	return users, nil
}

func (s *Service) Trips(ctx context.Context) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id, t.user_id, t.title, t.location, t.date, t.mood,
			(SELECT COUNT(*) FROM trip_likes l WHERE l.trip_id = t.id) AS likes_count,
			t.created_at, u.name, u.email
		FROM trips t
		LEFT JOIN users u ON t.user_id = u.id
		ORDER BY t.created_at DESC, t.id DESC
	`)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch trips", err)
	}
	defer rows.Close()

	trips := []Trip{}
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Location, &t.Date, &t.Mood,
			&t.LikesCount, &t.CreatedAt, &t.AuthorName, &t.AuthorEmail); err != nil {
			return nil, apperr.Internal("Failed to fetch trips", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("Failed to fetch trips", err)
	}
	return trips, nil
}

// DeleteUser removes the user and all dependent rows in one transaction.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if err := exists(ctx, q, `SELECT 1 FROM users WHERE id = $1`, userID, errUserMissing); err != nil {
			return err
		}
		for _, stmt := range userCascade {
			if _, err := q.Exec(ctx, stmt, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete user")
	}
	s.invalidateFeatured(ctx)
	return nil
}

func (s *Service) DeleteTrip(ctx context.Context, tripID int64) error {
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if err := exists(ctx, q, `SELECT 1 FROM trips WHERE id = $1`, tripID, errTripMissing); err != nil {
			return err
		}
		return trip.DeleteCascade(ctx, q, tripID)
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to delete trip")
	}
	s.invalidateFeatured(ctx)
	return nil
}

func (s *Service) invalidateFeatured(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.FeaturedTripsKey); err != nil {
		log.Warn().Err(err).Msg("featured trips: cache invalidation failed")
	}
}

func exists(ctx context.Context, q db.Querier, query string, id int64, missing error) error {
	var one int
	err := q.QueryRow(ctx, query, id).Scan(&one)
	if db.IsNoRows(err) {
		return missing
	}
	return err
}
