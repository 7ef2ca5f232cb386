package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-milestomemories/internal/cache"
	"backend-milestomemories/internal/db"
	"backend-milestomemories/internal/shared/apperr"
	"backend-milestomemories/internal/trip"

	"github.com/pashagolub/pgxmock/v3"
)

var meColumns = []string{"id", "email", "name", "avatar_url", "bio", "location", "website"}

func strPtr(s string) *string { return &s }

func newMockService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	store := db.NewPostgres(mock)
	return NewService(store, trip.NewService(store, cache.New(nil))), mock
}

func TestUpdateProfileOnlyBio(t *testing.T) {
	svc, mock := newMockService(t)
	bio := "Slow traveller"

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs(int64(3), &bio, (*string)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`LEFT JOIN user_profiles p ON u.id = p.user_id`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(meColumns).
			AddRow(int64(3), "ana@x.com", "Ana", strPtr("a.png"), &bio, strPtr("Lisbon"), nil))

	me, err := svc.UpdateProfile(context.Background(), 3, ProfileRequest{Bio: &bio})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if me.Name != "Ana" || *me.Bio != bio || *me.Location != "Lisbon" || me.Website != nil {
		t.Fatalf("unexpected merged user: %+v", me)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("users row must not be touched: %v", err)
	}
}

func TestUpdateProfileNameAndAvatar(t *testing.T) {
	svc, mock := newMockService(t)
	name := "Ana Silva"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users\s+SET name = COALESCE\(\$1, name\)`).
		WithArgs(&name, (*string)(nil), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO user_profiles`).
		WithArgs(int64(3), (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM users u`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(meColumns).AddRow(int64(3), "ana@x.com", name, nil, nil, nil, nil))

	me, err := svc.UpdateProfile(context.Background(), 3, ProfileRequest{Name: &name})
	if err != nil || me.Name != name {
		t.Fatalf("update profile: %+v %v", me, err)
	}
}

func TestUpdateProfileRollsBack(t *testing.T) {
	svc, mock := newMockService(t)
	name := "Ana"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users`).
		WithArgs(&name, (*string)(nil), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO user_profiles`).
		WithArgs(int64(3), (*string)(nil), (*string)(nil), (*string)(nil)).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	if _, err := svc.UpdateProfile(context.Background(), 3, ProfileRequest{Name: &name}); apperr.Status(err) != 500 {
		t.Fatalf("expected 500, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, mock := newMockService(t)
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT location\) FROM trips WHERE user_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"trips", "countries", "photos"}).AddRow(int64(4), int64(3), int64(9)))

	st, err := svc.Stats(context.Background(), 3)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st != (Stats{Trips: 4, Countries: 3, Photos: 9}) {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestSavedTrips(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now()
	mock.ExpectQuery(`JOIN trip_saves sv ON sv.trip_id = t.id\s+WHERE sv.user_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "title", "location", "latitude", "longitude", "date", "description", "mood", "image_url", "likes_count", "created_at", "updated_at", "name", "avatar_url"}).
			AddRow(int64(8), int64(1), "Kyoto", "Kyoto, Japan", nil, nil, nil, nil, nil, nil, int64(1), now, now, "Demo", nil))
	mock.ExpectQuery(`FROM trip_likes`).
		WithArgs(int64(3), int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"trip_id"}))
	mock.ExpectQuery(`FROM trip_saves`).
		WithArgs(int64(3), int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"trip_id"}).AddRow(int64(8)))

	trips, err := svc.Saved(context.Background(), 3)
	if err != nil {
		t.Fatalf("saved: %v", err)
	}
	if len(trips) != 1 || !*trips[0].Saved || *trips[0].Liked {
		t.Fatalf("unexpected saved trips: %+v", trips)
	}
}
