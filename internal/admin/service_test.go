package admin

import (
	"context"
	"testing"

	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/config"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSQLite creates two users; Demo owns a trip that Ana liked, saved and
// commented on, and Ana owns a trip Demo commented on.
func seedSQLite(t *testing.T) (*db.SQLite, int64, int64) {
	t.Helper()
	engine, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, engine, config.DriverSQLite))

	insertID := func(query string, args ...any) int64 {
		var id int64
		require.NoError(t, engine.QueryRow(ctx, query+" RETURNING id", args...).Scan(&id))
		return id
	}
	exec := func(query string, args ...any) {
		_, err := engine.Exec(ctx, query, args...)
		require.NoError(t, err)
	}

	demo := insertID(`INSERT INTO users (email, password_hash, name) VALUES ($1, $2, $3)`, "demo@x.com", "h", "Demo")
	ana := insertID(`INSERT INTO users (email, password_hash, name) VALUES ($1, $2, $3)`, "ana@x.com", "h", "Ana")
	exec(`INSERT INTO user_profiles (user_id, bio) VALUES ($1, $2)`, demo, "hi")
	exec(`INSERT INTO social_connections (user_id, platform, username) VALUES ($1, $2, $3)`, demo, "instagram", "demo")

	kyoto := insertID(`INSERT INTO trips (user_id, title, location) VALUES ($1, $2, $3)`, demo, "Kyoto", "Kyoto, Japan")
	lisbon := insertID(`INSERT INTO trips (user_id, title, location) VALUES ($1, $2, $3)`, ana, "Lisbon", "Lisbon, Portugal")
	exec(`INSERT INTO trip_photos (trip_id, photo_url, sort_order) VALUES ($1, $2, $3)`, kyoto, "a.jpg", 0)
	exec(`INSERT INTO trip_likes (trip_id, user_id) VALUES ($1, $2)`, kyoto, ana)
	exec(`INSERT INTO trip_likes (trip_id, user_id) VALUES ($1, $2)`, lisbon, demo)
	exec(`INSERT INTO trip_saves (trip_id, user_id) VALUES ($1, $2)`, kyoto, ana)
	exec(`INSERT INTO comments (trip_id, user_id, content) VALUES ($1, $2, $3)`, kyoto, ana, "Lovely")
	exec(`INSERT INTO comments (trip_id, user_id, content) VALUES ($1, $2, $3)`, lisbon, demo, "Jealous")
	return engine, demo, ana
}

func count(t *testing.T, engine *db.SQLite, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, engine.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestDeleteUserCascades(t *testing.T) {
	engine, demo, ana := seedSQLite(t)
	svc := NewService(engine, cache.New(nil))
	ctx := context.Background()

	before, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Trips: 2, Comments: 2, Likes: 2}, before)

	require.NoError(t, svc.DeleteUser(ctx, demo))

	for _, table := range []string{"trips", "trip_likes", "trip_saves", "comments"} {
		assert.Zero(t, count(t, engine, `SELECT COUNT(*) FROM `+table+` WHERE user_id = $1`, demo), table)
	}
	assert.Zero(t, count(t, engine, `SELECT COUNT(*) FROM trip_photos`))
	assert.Zero(t, count(t, engine, `SELECT COUNT(*) FROM user_profiles WHERE user_id = $1`, demo))
	assert.Zero(t, count(t, engine, `SELECT COUNT(*) FROM social_connections WHERE user_id = $1`, demo))
	assert.Equal(t, int64(1), count(t, engine, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, int64(1), count(t, engine, `SELECT COUNT(*) FROM trips WHERE user_id = $1`, ana))

	after, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 1, Trips: 1, Comments: 0, Likes: 0}, after)

	err = svc.DeleteUser(ctx, demo)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestListsAndDeleteTrip(t *testing.T) {
	engine, demo, _ := seedSQLite(t)
	svc := NewService(engine, cache.New(nil))
	ctx := context.Background()

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	counts := map[string]int64{}
	for _, u := range users {
		counts[u.Email] = u.TripCount
	}
	assert.Equal(t, map[string]int64{"demo@x.com": 1, "ana@x.com": 1}, counts)

	trips, err := svc.Trips(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	var kyoto Trip
	for _, tr := range trips {
		if tr.Title == "Kyoto" {
			kyoto = tr
		}
	}
	assert.Equal(t, demo, kyoto.UserID)
	assert.Equal(t, int64(1), kyoto.LikesCount)
	require.NotNil(t, kyoto.AuthorEmail)
	assert.Equal(t, "demo@x.com", *kyoto.AuthorEmail)

	require.NoError(t, svc.DeleteTrip(ctx, kyoto.ID))
	assert.Zero(t, count(t, engine, `SELECT COUNT(*) FROM comments WHERE trip_id = $1`, kyoto.ID))
	assert.Zero(t, count(t, engine, `SELECT COUNT(*) FROM trip_saves`))
	assert.Equal(t, 404, apperr.Status(svc.DeleteTrip(ctx, kyoto.ID)))
}

func TestDeleteUserRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mock.Close()
	svc := NewService(db.NewPostgres(mock), cache.New(nil))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(`DELETE FROM comments WHERE user_id = \$1 OR trip_id IN`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM trip_likes`).
		WithArgs(int64(5)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = svc.DeleteUser(context.Background(), 5)
	assert.Equal(t, 500, apperr.Status(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
