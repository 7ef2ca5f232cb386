package social

// Platforms are the social networks a user can link, in update order.
var Platforms = []string{"instagram", "pinterest", "youtube"}

type LikeState struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type SaveState struct {
	Saved bool `json:"saved"`
}

// LinksRequest replaces every platform at once: an empty or missing
// username removes that link.
type LinksRequest struct {
	Instagram string `json:"instagram"`
	Pinterest string `json:"pinterest"`
	Youtube   string `json:"youtube"`
}

func (r LinksRequest) byPlatform() map[string]string {
	return map[string]string{
		"instagram": r.Instagram,
		"pinterest": r.Pinterest,
		"youtube":   r.Youtube,
	}
}
