package trip

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/comment"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/shared/geo"
	"backend-milestomemories/internal/shared/params"
	"backend-milestomemories/internal/shared/validation"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const (
	featuredLimit = 5
	featuredTTL   = 5 * time.Minute
	kmPerDegree   = 111.32
)

const selectTrip = `
	SELECT t.id, t.user_id, t.title, t.location, t.latitude, t.longitude, t.date,
		t.description, t.mood, t.image_url,
		(SELECT COUNT(*) FROM trip_likes l WHERE l.trip_id = t.id) AS likes_count,
		t.created_at, t.updated_at, u.name, u.avatar_url
	FROM trips t
	JOIN users u ON t.user_id = u.id`

// cascadeSteps remove a trip's dependents before the trip itself.
var cascadeSteps = []string{
	`DELETE FROM comments WHERE trip_id = $1`,
	`DELETE FROM trip_likes WHERE trip_id = $1`,
	`DELETE FROM trip_saves WHERE trip_id = $1`,
	`DELETE FROM trip_photos WHERE trip_id = $1`,
	`DELETE FROM trips WHERE id = $1`,
}

var (
	errTripMissing  = apperr.NotFound("Trip not found")
	errPhotoMissing = apperr.NotFound("Photo not found")
)

type Service struct {
	db    db.Store
	cache *cache.Cache
	now   func() time.Time
}

func NewService(store db.Store, c *cache.Cache) *Service {
	return &Service{db: store, cache: c, now: time.Now}
}

// DeleteCascade removes a trip and everything hanging off it. Run it inside
// a transaction.
func DeleteCascade(ctx context.Context, q db.Querier, tripID int64) error {
	for _, stmt := range cascadeSteps {
		if _, err := q.Exec(ctx, stmt, tripID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, f ListFilter, viewer int64) ([]Trip, error) {
	var where []string
	var args []any
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		where = append(where, fmt.Sprintf("t.location ILIKE $%d", len(args)))
	}
	if f.Year != "" {
		args = append(args, "%"+f.Year+"%")
		where = append(where, fmt.Sprintf("t.date ILIKE $%d", len(args)))
	}

	query := selectTrip
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = params.DefaultLimit
	case limit > params.MaxLimit:
		limit = params.MaxLimit
	}
	args = append(args, limit, max(f.Offset, 0))
	query += fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	trips, err := s.queryTrips(ctx, viewer, query, args...)
	if err != nil {
		return nil, apperr.Internal("Failed to get trips", err)
	}
	return trips, nil
}

func (s *Service) Get(ctx context.Context, id, viewer int64) (Detail, error) {
	t, err := s.fetch(ctx, id)
	if err != nil {
		return Detail{}, apperr.Wrap(err, "Failed to get trip")
	}
	detail := Detail{Trip: t}

	if detail.Photos, err = s.photos(ctx, id); err != nil {
		return Detail{}, apperr.Internal("Failed to get trip", err)
	}
	if detail.Comments, err = comment.ListByTrip(ctx, s.db, id); err != nil {
		return Detail{}, apperr.Internal("Failed to get trip", err)
	}

	one := []Trip{detail.Trip}
	if err := s.attachFlags(ctx, viewer, one); err != nil {
		return Detail{}, apperr.Internal("Failed to get trip", err)
	}
	detail.Trip = one[0]
	return detail, nil
}

// Create stores the trip and its photos atomically; photo order is the
// order given.
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (Trip, error) {
	if err := validation.Check(req, "Title and location are required"); err != nil {
		return Trip{}, err
	}
	for _, p := range req.Photos {
		if err := validation.Check(p, "Photo URL is required"); err != nil {
			return Trip{}, err
		}
	}

	var id int64
	err := s.db.InTx(ctx, func(q db.Querier) error {
		err := q.QueryRow(ctx, `
			INSERT INTO trips (user_id, title, location, latitude, longitude, date, description, mood, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, userID, req.Title, req.Location, req.Latitude, req.Longitude, req.Date, req.Description, req.Mood, req.ImageURL).Scan(&id)
		if err != nil {
			return err
		}
		for i, p := range req.Photos {
			if _, err := q.Exec(ctx, `
				INSERT INTO trip_photos (trip_id, photo_url, caption, sort_order)
				VALUES ($1, $2, $3, $4)
			`, id, p.PhotoURL, p.Caption, int64(i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Trip{}, apperr.Internal("Failed to create trip", err)
	}
	s.invalidateFeatured(ctx)

	t, err := s.fetch(ctx, id)
	if err != nil {
		return Trip{}, apperr.Wrap(err, "Failed to create trip")
	}
	return t, nil
}

// Update overwrites only the fields present in req.
func (s *Service) Update(ctx context.Context, userID, id int64, req UpdateRequest) (Trip, error) {
	if err := s.authorize(ctx, userID, id, "Not authorized to edit this trip"); err != nil {
		return Trip{}, apperr.Wrap(err, "Failed to update trip")
	}

	_, err := s.db.Exec(ctx, `
		UPDATE trips
		SET title = COALESCE($1, title),
			location = COALESCE($2, location),
			latitude = COALESCE($3, latitude),
			longitude = COALESCE($4, longitude),
			date = COALESCE($5, date),
			description = COALESCE($6, description),
			mood = COALESCE($7, mood),
			image_url = COALESCE($8, image_url),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
	`, req.Title, req.Location, req.Latitude, req.Longitude, req.Date, req.Description, req.Mood, req.ImageURL, id)
	if err != nil {
		return Trip{}, apperr.Internal("Failed to update trip", err)
	}
	s.invalidateFeatured(ctx)

	t, err := s.fetch(ctx, id)
	if err != nil {
		return Trip{}, apperr.Wrap(err, "Failed to update trip")
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if err := s.authorize(ctx, userID, id, "Not authorized to delete this trip"); err != nil {
		return apperr.Wrap(err, "Failed to delete trip")
	}
	err := s.db.InTx(ctx, func(q db.Querier) error {
		return DeleteCascade(ctx, q, id)
	})
	if err != nil {
		return apperr.Internal("Failed to delete trip", err)
	}
	s.invalidateFeatured(ctx)
	return nil
}

// Featured returns the most liked trips. The list is shared by everyone and
// cached; viewer flags are added afterwards.
func (s *Service) Featured(ctx context.Context, viewer int64) ([]Trip, error) {
	var trips []Trip
	err := s.cache.Aside(ctx, cache.FeaturedTripsKey, &trips, featuredTTL, func() error {
		rows, err := s.db.Query(ctx, selectTrip+`
			ORDER BY likes_count DESC, t.created_at DESC
			LIMIT $1
		`, featuredLimit)
		if err != nil {
			return err
		}
		trips, err = collectTrips(rows)
		return err
	})
	if err != nil {
		return nil, apperr.Internal("Failed to get featured trips", err)
	}
	if trips == nil {
		trips = []Trip{}
	}
	if err := s.attachFlags(ctx, viewer, trips); err != nil {
		return nil, apperr.Internal("Failed to get featured trips", err)
	}
	return trips, nil
}

func (s *Service) ByDestination(ctx context.Context, name string, viewer int64) ([]Trip, error) {
	trips, err := s.queryTrips(ctx, viewer, selectTrip+`
		WHERE t.location ILIKE $1
		ORDER BY t.created_at DESC, t.id DESC
	`, "%"+name+"%")
	if err != nil {
		return nil, apperr.Internal("Failed to get trips", err)
	}
	return trips, nil
}

func (s *Service) ByOwner(ctx context.Context, userID int64) ([]Trip, error) {
	trips, err := s.queryTrips(ctx, userID, selectTrip+`
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC
	`, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to get trips", err)
	}
	return trips, nil
}

func (s *Service) SavedBy(ctx context.Context, userID int64) ([]Trip, error) {
	trips, err := s.queryTrips(ctx, userID, selectTrip+`
		JOIN trip_saves sv ON sv.trip_id = t.id
		WHERE sv.user_id = $1
		ORDER BY sv.created_at DESC, sv.id DESC
	`, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to get saved trips", err)
	}
	return trips, nil
}

// OnThisDay returns the user's trips whose free-text date mentions the
// current month by its English name.
func (s *Service) OnThisDay(ctx context.Context, userID int64) ([]Memory, error) {
	now := s.now()
	rows, err := s.db.Query(ctx, selectTrip+`
		WHERE t.user_id = $1 AND t.date ILIKE $2
		ORDER BY t.created_at DESC, t.id DESC
	`, userID, "%"+now.Month().String()+"%")
	if err != nil {
		return nil, apperr.Internal("Failed to get memories", err)
	}
	trips, err := collectTrips(rows)
	if err != nil {
		return nil, apperr.Internal("Failed to get memories", err)
	}

	memories := make([]Memory, 0, len(trips))
	for _, t := range trips {
		year := t.CreatedAt.Year()
		memories = append(memories, Memory{Trip: t, TripYear: year, YearsAgo: now.Year() - year})
	}
	return memories, nil
}

func (s *Service) YearlyRecap(ctx context.Context, userID int64, year string) (Recap, error) {
	recap := Recap{Year: year, TopDestinations: []DestinationCount{}, MoodBreakdown: []MoodCount{}}
	pattern := "%" + year + "%"

	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT location)
		FROM trips
		WHERE user_id = $1 AND date ILIKE $2
	`, userID, pattern).Scan(&recap.TotalTrips, &recap.UniqueDestinations)
	if err != nil {
		return Recap{}, apperr.Internal("Failed to get yearly recap", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT location, COUNT(*) AS visit_count
		FROM trips
		WHERE user_id = $1 AND date ILIKE $2
		GROUP BY location
		ORDER BY visit_count DESC, location
		LIMIT 5
	`, userID, pattern)
	if err != nil {
		return Recap{}, apperr.Internal("Failed to get yearly recap", err)
	}
	for rows.Next() {
		var d DestinationCount
		if err := rows.Scan(&d.Location, &d.VisitCount); err != nil {
			rows.Close()
			return Recap{}, apperr.Internal("Failed to get yearly recap", err)
		}
		recap.TopDestinations = append(recap.TopDestinations, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Recap{}, apperr.Internal("Failed to get yearly recap", err)
	}

	rows, err = s.db.Query(ctx, `
		SELECT mood, COUNT(*) AS mood_count
		FROM trips
		WHERE user_id = $1 AND date ILIKE $2
		GROUP BY mood
		ORDER BY mood_count DESC
	`, userID, pattern)
	if err != nil {
		return Recap{}, apperr.Internal("Failed to get yearly recap", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m MoodCount
		if err := rows.Scan(&m.Mood, &m.Count); err != nil {
			return Recap{}, apperr.Internal("Failed to get yearly recap", err)
		}
		recap.MoodBreakdown = append(recap.MoodBreakdown, m)
	}
	if err := rows.Err(); err != nil {
		return Recap{}, apperr.Internal("Failed to get yearly recap", err)
	}
	return recap, nil
}

// Tags never fails: when moods cannot be read the default list is returned.
func (s *Service) Tags(ctx context.Context) []string {
	tags := append([]string(nil), DefaultTags...)
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		seen[tag] = struct{}{}
	}

	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT mood FROM trips
		WHERE mood IS NOT NULL AND mood <> ''
		ORDER BY mood
	`)
	if err != nil {
		log.Warn().Err(err).Msg("tags: falling back to defaults")
		return tags
	}
	defer rows.Close()

	for rows.Next() {
		var mood string
		if err := rows.Scan(&mood); err != nil {
			log.Warn().Err(err).Msg("tags: falling back to defaults")
			return append([]string(nil), DefaultTags...)
		}
		key := strings.ToLower(strings.TrimSpace(mood))
		if _, ok := seen[key]; ok || key == "" {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, key)
	}
	return tags
}

// NearbyTrips finds trips with coordinates within radiusKm of (lat, lng),
// closest first. A bounding box narrows the rows before the exact distance
// check.
func (s *Service) NearbyTrips(ctx context.Context, lat, lng, radiusKm float64, viewer int64) ([]Nearby, error) {
	latDelta := radiusKm / kmPerDegree
	args := []any{lat - latDelta, lat + latDelta}
	query := selectTrip + ` WHERE t.latitude BETWEEN $1 AND $2 AND t.longitude IS NOT NULL`

	if cosLat := math.Cos(lat * math.Pi / 180); cosLat > 0.01 {
		lngDelta := radiusKm / (kmPerDegree * cosLat)
		if lng-lngDelta >= -180 && lng+lngDelta <= 180 {
			args = append(args, lng-lngDelta, lng+lngDelta)
			query += ` AND t.longitude BETWEEN $3 AND $4`
		}
	}

	trips, err := s.queryTrips(ctx, viewer, query, args...)
	if err != nil {
		return nil, apperr.Internal("Failed to get nearby trips", err)
	}

	nearby := []Nearby{}
	for _, t := range trips {
		if t.Latitude == nil || t.Longitude == nil {
			continue
		}
		d := geo.HaversineKm(lat, lng, *t.Latitude, *t.Longitude)
		if d <= radiusKm {
			nearby = append(nearby, Nearby{Trip: t, DistanceKm: math.Round(d*100) / 100})
		}
	}
	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].DistanceKm < nearby[j].DistanceKm })
	if len(nearby) > params.MaxLimit {
		nearby = nearby[:params.MaxLimit]
	}
	return nearby, nil
}

// AddPhoto appends a photo after the trip's existing ones.
func (s *Service) AddPhoto(ctx context.Context, userID, tripID int64, in PhotoInput) (Photo, error) {
	if err := validation.Check(in, "Photo URL is required"); err != nil {
		return Photo{}, err
	}
	if err := s.authorize(ctx, userID, tripID, "Not authorized to edit this trip"); err != nil {
		return Photo{}, apperr.Wrap(err, "Failed to add photo")
	}

	var next int64
	if err := s.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(sort_order), -1) + 1 FROM trip_photos WHERE trip_id = $1
	`, tripID).Scan(&next); err != nil {
		return Photo{}, apperr.Internal("Failed to add photo", err)
	}

	p, err := scanPhoto(s.db.QueryRow(ctx, `
		INSERT INTO trip_photos (trip_id, photo_url, caption, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, trip_id, photo_url, caption, sort_order, created_at
	`, tripID, in.PhotoURL, in.Caption, next))
	if err != nil {
		return Photo{}, apperr.Internal("Failed to add photo", err)
	}
	return p, nil
}

func (s *Service) DeletePhoto(ctx context.Context, userID, tripID, photoID int64) error {
	if err := s.authorize(ctx, userID, tripID, "Not authorized to edit this trip"); err != nil {
		return apperr.Wrap(err, "Failed to delete photo")
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM trip_photos WHERE id = $1 AND trip_id = $2`, photoID, tripID)
	if err != nil {
		return apperr.Internal("Failed to delete photo", err)
	}
	if tag.RowsAffected() == 0 {
		return errPhotoMissing
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, userID, tripID int64, forbidden string) error {
	var owner int64
	err := s.db.QueryRow(ctx, `SELECT user_id FROM trips WHERE id = $1`, tripID).Scan(&owner)
	if err != nil {
		if db.IsNoRows(err) {
			return errTripMissing
		}
		return err
	}
	if owner != userID {
		return apperr.Forbidden(forbidden)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, id int64) (Trip, error) {
	t, err := scanTrip(s.db.QueryRow(ctx, selectTrip+` WHERE t.id = $1`, id))
	if db.IsNoRows(err) {
		return Trip{}, errTripMissing
	}
	return t, err
}

func (s *Service) photos(ctx context.Context, tripID int64) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, photo_url, caption, sort_order, created_at
		FROM trip_photos
		WHERE trip_id = $1
		ORDER BY sort_order, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (s *Service) queryTrips(ctx context.Context, viewer int64, query string, args ...any) ([]Trip, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	trips, err := collectTrips(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachFlags(ctx, viewer, trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// attachFlags marks which trips the viewer liked and saved, two queries for
// the whole page.
func (s *Service) attachFlags(ctx context.Context, viewer int64, trips []Trip) error {
	if viewer == 0 || len(trips) == 0 {
		return nil
	}
	args := make([]any, 0, len(trips)+1)
	args = append(args, viewer)
	placeholders := make([]string, 0, len(trips))
	for _, t := range trips {
		args = append(args, t.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	in := strings.Join(placeholders, ", ")

	liked, err := s.tripIDs(ctx, "SELECT trip_id FROM trip_likes WHERE user_id = $1 AND trip_id IN ("+in+")", args)
	if err != nil {
		return err
	}
	saved, err := s.tripIDs(ctx, "SELECT trip_id FROM trip_saves WHERE user_id = $1 AND trip_id IN ("+in+")", args)
	if err != nil {
		return err
	}
	for i := range trips {
		l, sv := liked[trips[i].ID], saved[trips[i].ID]
		trips[i].Liked = &l
		trips[i].Saved = &sv
	}
	return nil
}

func (s *Service) tripIDs(ctx context.Context, query string, args []any) (map[int64]bool, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := map[int64]bool{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (s *Service) invalidateFeatured(ctx context.Context) {
	if err := s.cache.Delete(ctx, cache.FeaturedTripsKey); err != nil {
		log.Warn().Err(err).Msg("featured trips: cache invalidation failed")
	}
}

func collectTrips(rows pgx.Rows) ([]Trip, error) {
	defer rows.Close()
	trips := []Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func scanTrip(row pgx.Row) (Trip, error) {
	var t Trip
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Location, &t.Latitude, &t.Longitude, &t.Date,
		&t.Description, &t.Mood, &t.ImageURL, &t.LikesCount, &t.CreatedAt, &t.UpdatedAt,
		&t.AuthorName, &t.AuthorAvatar)
	return t, err
}

func scanPhoto(row pgx.Row) (Photo, error) {
	var p Photo
	err := row.Scan(&p.ID, &p.TripID, &p.PhotoURL, &p.Caption, &p.SortOrder, &p.CreatedAt)
	return p, err
}
