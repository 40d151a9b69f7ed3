package domain

// UnknownDisplayName labels authors the identity directory no longer knows.
const UnknownDisplayName = "Unknown"

// Profile is the public identity of a user.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatar_url"`
}

// UnknownProfile is the placeholder shown for ids the directory omitted.
func UnknownProfile(id string) Profile {
	return Profile{ID: id, DisplayName: UnknownDisplayName}
}

// UserProfile is the profile page read model.
type UserProfile struct {
	Profile
	Stats       FollowStats `json:"stats"`
	ReviewCount int         `json:"review_count"`
	IsFollowing bool        `json:"is_following"`
	IsSelf      bool        `json:"is_self"`
}
