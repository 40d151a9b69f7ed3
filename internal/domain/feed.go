package domain

// FeedItem is a review enriched with its author and the viewer's like state.
type FeedItem struct {
	Review      Review  `json:"review"`
	Author      Profile `json:"author"`
	ViewerLiked bool    `json:"viewer_liked"`
}
