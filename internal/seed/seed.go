// Package seed loads the demo account and its trips into an empty database.
package seed

import (
	"context"
	"fmt"

	"backend-milestomemories/internal/auth"
	"backend-milestomemories/internal/db"

	"github.com/rs/zerolog/log"
)

const (
	DemoEmail    = "demo@milestomemories.com"
	DemoPassword = "demo123"
	demoName     = "Travel Explorer"
	demoAvatar   = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=200&h=200&fit=crop"
	demoBio      = "Wanderer | Photographer | Storyteller"
)

type demoTrip struct {
	Title       string
	Location    string
	Lat, Lng    float64
	Date        string
	Description string
	Mood        string
	ImageURL    string
}

var demoTrips = []demoTrip{
	{"Whispers of Ancient Temples", "Kyoto, Japan", 35.0116, 135.7681, "November 2024", "Walking through the vermillion gates of Fushimi Inari at dawn.", "peaceful", "https://images.unsplash.com/photo-1493976040374-85c8e12f0c0e?w=800&q=80"},
	{"Lemon Groves & Coastal Dreams", "Amalfi Coast, Italy", 40.6333, 14.6029, "September 2024", "The scent of lemons and sea salt filled every breath.", "relaxed", "https://images.unsplash.com/photo-1516483638261-f4dbaf036963?w=800&q=80"},
	{"Above the Clouds", "Swiss Alps", 46.8182, 8.2275, "July 2024", "At 3,000 meters, the world below disappeared into a sea of clouds.", "adventurous", "https://images.unsplash.com/photo-1519681393784-d120267933ba?w=800&q=80"},
	{"Land of Fire and Ice", "Iceland", 64.9631, -19.0208, "March 2024", "Iceland defied every expectation with waterfalls and aurora.", "adventurous", "https://images.unsplash.com/photo-1504893524553-b855bce32c67?w=800&q=80"},
	{"Morning Stillness", "Lake Bled, Slovenia", 46.3625, 14.0936, "June 2024", "I woke at 5am to catch the lake in perfect stillness.", "peaceful", "https://images.unsplash.com/photo-1501785888041-af3ef285b470?w=800&q=80"},
	{"Colors of the Medina", "Marrakech, Morocco", 31.6295, -7.9811, "April 2024", "Lost in the maze of the medina, every turn revealed new colors.", "excited", "https://images.unsplash.com/photo-1518548419970-58e3b4079ab2?w=800&q=80"},
	{"Hidden Waterfall", "Costa Rica", 9.7489, -83.7534, "February 2024", "After a 3-hour jungle trek, we found this hidden paradise.", "adventurous", "https://images.unsplash.com/photo-1433086966358-54859d0ed716?w=800&q=80"},
	{"Fjord Dreams", "Norway", 60.4720, 8.4689, "January 2024", "Sailing through the Norwegian fjords felt like entering another world.", "peaceful", "https://images.unsplash.com/photo-1469474968028-56623f02e42e?w=800&q=80"},
	{"Misty Mountains", "Pacific Northwest, USA", 47.6062, -122.3321, "December 2023", "The Pacific Northwest in winter is a study in green and gray.", "nostalgic", "https://images.unsplash.com/photo-1470071459604-3b5ec3a7fe05?w=800&q=80"},
}

// demoComments are keyed by index into demoTrips.
var demoComments = []struct {
	Trip    int
	Content string
}{
	{0, "This is absolutely stunning!"},
	{0, "The temples look magical in the mist!"},
	{1, "Italy is always a good idea!"},
	{3, "Did you see the Northern Lights?"},
}

// Demo inserts the demo account with its trips and comments. It reports
// false without touching anything when the account already exists.
func Demo(ctx context.Context, store db.Store, bcryptCost int) (bool, error) {
	var existing int64
	err := store.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, DemoEmail).Scan(&existing)
	switch {
	case err == nil:
		log.Info().Str("email", DemoEmail).Msg("demo user already exists, skipping seed")
		return false, nil
	case !db.IsNoRows(err):
		return false, fmt.Errorf("seed: look up demo user: %w", err)
	}

	hash, err := auth.HashPassword(DemoPassword, bcryptCost)
	if err != nil {
		return false, fmt.Errorf("seed: hash password: %w", err)
	}

	err = store.InTx(ctx, func(q db.Querier) error {
		var userID int64
		err := q.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, name, avatar_url)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, DemoEmail, hash, demoName, demoAvatar).Scan(&userID)
		if err != nil {
			return fmt.Errorf("insert demo user: %w", err)
		}
		if _, err := q.Exec(ctx, `INSERT INTO user_profiles (user_id, bio) VALUES ($1, $2)`, userID, demoBio); err != nil {
			return fmt.Errorf("insert demo profile: %w", err)
		}

		tripIDs := make([]int64, len(demoTrips))
		for i, t := range demoTrips {
			err := q.QueryRow(ctx, `
				INSERT INTO trips (user_id, title, location, latitude, longitude, date, description, mood, image_url)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id
			`, userID, t.Title, t.Location, t.Lat, t.Lng, t.Date, t.Description, t.Mood, t.ImageURL).Scan(&tripIDs[i])
			if err != nil {
				return fmt.Errorf("insert trip %q: %w", t.Title, err)
			}
		}

		for _, c := range demoComments {
			if _, err := q.Exec(ctx, `INSERT INTO comments (trip_id, user_id, content) VALUES ($1, $2, $3)`,
				tripIDs[c.Trip], userID, c.Content); err != nil {
				return fmt.Errorf("insert comment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}

	log.Info().Str("email", DemoEmail).Int("trips", len(demoTrips)).Msg("demo data seeded")
	return true, nil
}
