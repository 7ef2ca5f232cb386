package social

import (
	"context"
	"strings"

	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/stream"

	"github.com/rs/zerolog/log"
)

var errTripMissing = apperr.NotFound("Trip not found")

type Service struct {
	db     db.Store
	cache  *cache.Cache
	events stream.Publisher
}

func NewService(store db.Store, c *cache.Cache, events stream.Publisher) *Service {
	return &Service{db: store, cache: c, events: events}
}

// Like is idempotent: liking twice leaves one row and the same count.
func (s *Service) Like(ctx context.Context, userID, tripID int64) (LikeState, error) {
	if err := s.tripExists(ctx, tripID); err != nil {
		return LikeState{}, apperr.Wrap(err, "Failed to like trip")
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO trip_likes (trip_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, tripID, userID); err != nil {
		return LikeState{}, apperr.Internal("Failed to like trip", err)
	}
	return s.likeChanged(ctx, stream.EventLike, userID, tripID, true, "Failed to like trip")
}

// Unlike of a trip the user never liked is a no-op.
func (s *Service) Unlike(ctx context.Context, userID, tripID int64) (LikeState, error) {
	if _, err := s.db.Exec(ctx, `DELETE FROM trip_likes WHERE trip_id = $1 AND user_id = $2`, tripID, userID); err != nil {
		return LikeState{}, apperr.Internal("Failed to unlike trip", err)
	}
	return s.likeChanged(ctx, stream.EventUnlike, userID, tripID, false, "Failed to unlike trip")
}

func (s *Service) Save(ctx context.Context, userID, tripID int64) (SaveState, error) {
	if err := s.tripExists(ctx, tripID); err != nil {
		return SaveState{}, apperr.Wrap(err, "Failed to save trip")
	}
	if _, err := s.db.Exec(ctx, `
		INSERT INTO trip_saves (trip_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (trip_id, user_id) DO NOTHING
	`, tripID, userID); err != nil {
		return SaveState{}, apperr.Internal("Failed to save trip", err)
	}
	return SaveState{Saved: true}, nil
}

func (s *Service) Unsave(ctx context.Context, userID, tripID int64) (SaveState, error) {
	if _, err := s.db.Exec(ctx, `DELETE FROM trip_saves WHERE trip_id = $1 AND user_id = $2`, tripID, userID); err != nil {
		return SaveState{}, apperr.Internal("Failed to unsave trip", err)
	}
	return SaveState{Saved: false}, nil
}

// Links returns the user's linked accounts keyed by platform.
func (s *Service) Links(ctx context.Context, userID int64) (map[string]string, error) {
	links, err := listLinks(ctx, s.db, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to get social connections", err)
	}
	return links, nil
}

func (s *Service) UpdateLinks(ctx context.Context, userID int64, req LinksRequest) (map[string]string, error) {
	wanted := req.byPlatform()
	err := s.db.InTx(ctx, func(q db.Querier) error {
		for _, platform := range Platforms {
			username := strings.TrimSpace(wanted[platform])
			var err error
			if username != "" {
				_, err = q.Exec(ctx, `
					INSERT INTO social_connections (user_id, platform, username)
					VALUES ($1, $2, $3)
					ON CONFLICT (user_id, platform) DO UPDATE SET username = $3
				`, userID, platform, username)
			} else {
				_, err = q.Exec(ctx, `DELETE FROM social_connections WHERE user_id = $1 AND platform = $2`, userID, platform)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("Failed to update social connections", err)
	}
	return s.Links(ctx, userID)
}

func (s *Service) likeChanged(ctx context.Context, kind string, userID, tripID int64, liked bool, failure string) (LikeState, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) AS likes_count FROM trip_likes WHERE trip_id = $1`, tripID).Scan(&count); err != nil {
		return LikeState{}, apperr.Internal(failure, err)
	}
	if err := s.cache.Delete(ctx, cache.FeaturedTripsKey); err != nil {
		log.Warn().Err(err).Msg("featured trips: cache invalidation failed")
	}
	if s.events != nil {
		s.events.Publish(ctx, stream.Event{Type: kind, TripID: tripID, UserID: userID, LikesCount: &count})
	}
	return LikeState{Liked: liked, LikesCount: count}, nil
}

func (s *Service) tripExists(ctx context.Context, tripID int64) error {
	var one int
	err := s.db.QueryRow(ctx, `SELECT 1 FROM trips WHERE id = $1`, tripID).Scan(&one)
	if db.IsNoRows(err) {
		return errTripMissing
	}
	return err
}

func listLinks(ctx context.Context, q db.Querier, userID int64) (map[string]string, error) {
	rows, err := q.Query(ctx, `SELECT platform, username FROM social_connections WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := map[string]string{}
	for rows.Next() {
		var platform, username string
		if err := rows.Scan(&platform, &username); err != nil {
			return nil, err
		}
		links[platform] = username
	}
	return links, rows.Err()
}
