package user

import "backend-milestomemories/internal/auth"

// ProfileRequest is a partial update of the user and their profile: nil
// fields keep the stored value.
type ProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	Website   *string `json:"website"`
}

type Stats struct {
	Trips     int64 `json:"trips"`
	Countries int64 `json:"countries"`
	Photos    int64 `json:"photos"`
}

// Profile is the merged user returned after a profile update. It carries
// the stored column name avatar_url, unlike the /auth/me shape.
type Profile struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	Website   *string `json:"website"`
}

func profileFrom(me auth.Me) Profile {
	return Profile{
		ID:        me.ID,
		Email:     me.Email,
		Name:      me.Name,
		AvatarURL: me.Avatar,
		Bio:       me.Bio,
		Location:  me.Location,
		Website:   me.Website,
	}
}
