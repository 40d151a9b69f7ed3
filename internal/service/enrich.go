package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/linernotes/linernotes/internal/domain"
)

// enricher attaches authors and viewer like state to pages of content. Each
// page costs one directory call and at most one like lookup, regardless of
// its size.
type enricher struct {
	profiles ProfileResolver
	likes    LikedSetReader
}

// reviews turns a page of reviews into feed items. Author resolution and the
// viewer like lookup run concurrently; either failing fails the page.
func (e *enricher) reviews(ctx context.Context, reviews []domain.Review, viewerID string) ([]domain.FeedItem, error) {
	if len(reviews) == 0 {
		return []domain.FeedItem{}, nil
	}

	authorIDs := make([]string, len(reviews))
	reviewIDs := make([]string, len(reviews))
	for i := range reviews {
		authorIDs[i] = reviews[i].AuthorID
		reviewIDs[i] = reviews[i].ID
	}

	authors, liked, err := e.load(ctx, authorIDs, domain.TargetReview, reviewIDs, viewerID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.FeedItem, len(reviews))
	for i, r := range reviews {
		_, viewerLiked := liked[r.ID]
		items[i] = domain.FeedItem{
			Review:      r,
			Author:      authors[r.AuthorID],
			ViewerLiked: viewerLiked,
		}
	}
	return items, nil
}

// comments enriches comments in the order given.
func (e *enricher) comments(ctx context.Context, comments []domain.Comment, viewerID string) ([]domain.CommentView, error) {
	if len(comments) == 0 {
		return []domain.CommentView{}, nil
	}

	authorIDs := make([]string, len(comments))
	commentIDs := make([]string, len(comments))
	for i := range comments {
		authorIDs[i] = comments[i].AuthorID
		commentIDs[i] = comments[i].ID
	}

	authors, liked, err := e.load(ctx, authorIDs, domain.TargetComment, commentIDs, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.CommentView, len(comments))
	for i, c := range comments {
		_, viewerLiked := liked[c.ID]
		views[i] = domain.CommentView{
			Comment:     c,
			Author:      authors[c.AuthorID],
			ViewerLiked: viewerLiked,
		}
	}
	return views, nil
}

func (e *enricher) load(
	ctx context.Context,
	authorIDs []string,
	kind domain.TargetKind,
	targetIDs []string,
	viewerID string,
) (map[string]domain.Profile, map[string]struct{}, error) {
	var (
		authors map[string]domain.Profile
		liked   map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := e.profiles.ResolveOrUnknown(gctx, authorIDs)
		if err != nil {
			return fmt.Errorf("enrich authors: %w", err)
		}
		authors = p
		return nil
	})

	// Anonymous viewers have liked nothing; skip the lookup entirely.
	if viewerID != "" {
		g.Go(func() error {
			set, err := e.likes.ViewerLikedSet(gctx, viewerID, kind, targetIDs)
			if err != nil {
				return fmt.Errorf("enrich viewer likes: %w", err)
			}
			liked = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return authors, liked, nil
}
