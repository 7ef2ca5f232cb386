package user

import (
	"context"

	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/trip"
)

type Service struct {
	db    db.Store
	trips *trip.Service
}

func NewService(store db.Store, trips *trip.Service) *Service {
	return &Service{db: store, trips: trips}
}

// UpdateProfile applies req and returns the merged user. The profile row is
// created if registration never made one.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req ProfileRequest) (Profile, error) {
	err := s.db.InTx(ctx, func(q db.Querier) error {
		if req.Name != nil || req.AvatarURL != nil {
			if _, err := q.Exec(ctx, `
				UPDATE users
				SET name = COALESCE($1, name),
					avatar_url = COALESCE($2, avatar_url)
				WHERE id = $3
			`, req.Name, req.AvatarURL, userID); err != nil {
				return err
			}
		}
		_, err := q.Exec(ctx, `
			INSERT INTO user_profiles (user_id, bio, location, website)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE
			SET bio = COALESCE($2, user_profiles.bio),
				location = COALESCE($3, user_profiles.location),
				website = COALESCE($4, user_profiles.website)
		`, userID, req.Bio, req.Location, req.Website)
		return err
	})
	if err != nil {
		return Profile{}, apperr.Internal("Failed to update profile", err)
	}

	me, err := auth.LoadMe(ctx, s.db, userID)
	if err != nil {
		return Profile{}, apperr.Wrap(err, "Failed to update profile")
	}
	return profileFrom(me), nil
}

func (s *Service) Trips(ctx context.Context, userID int64) ([]trip.Trip, error) {
	return s.trips.ByOwner(ctx, userID)
}

func (s *Service) Saved(ctx context.Context, userID int64) ([]trip.Trip, error) {
	return s.trips.SavedBy(ctx, userID)
}

// Stats counts the user's trips, distinct locations and photos.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM trips WHERE user_id = $1),
			(SELECT COUNT(DISTINCT location) FROM trips WHERE user_id = $1),
			(SELECT COUNT(*) FROM trip_photos p JOIN trips t ON p.trip_id = t.id WHERE t.user_id = $1)
	`, userID).Scan(&st.Trips, &st.Countries, &st.Photos)
	if err != nil {
		return Stats{}, apperr.Internal("Failed to get stats", err)
	}
	return st, nil
}
