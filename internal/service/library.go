package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/linernotes/linernotes/internal/domain"
	"github.com/linernotes/linernotes/internal/repository"
	apperrors "github.com/linernotes/linernotes/pkg/errors"
	"github.com/linernotes/linernotes/pkg/pagination"
)

// SaveAlbumInput holds the album metadata captured when saving to a library.
type SaveAlbumInput struct {
	UserID   string
	AlbumID  string
	Name     string
	CoverURL string
	Artists  []string
}

// LibraryService manages a user's saved albums.
type LibraryService struct {
	library  repository.LibraryRepository
	producer EventPublisher
	logger   *slog.Logger
}

// NewLibraryService creates a new library service.
func NewLibraryService(library repository.LibraryRepository, producer EventPublisher, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		library:  library,
		producer: producer,
		logger:   logger,
	}
}

// Save adds the album to the library, or refreshes its metadata when it is
// already there.
func (s *LibraryService) Save(ctx context.Context, input SaveAlbumInput) (*domain.LibraryEntry, error) {
	if input.UserID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	albumID := strings.TrimSpace(input.AlbumID)
	name := strings.TrimSpace(input.Name)
	if albumID == "" {
		return nil, apperrors.InvalidInput("album_id is required")
	}
	if name == "" {
		return nil, apperrors.InvalidInput("album name is required")
	}
	if utf8.RuneCountInString(name) > domain.MaxAlbumSnapshotField {
		return nil, apperrors.InvalidInput("album name is too long")
	}
	if len(input.Artists) > domain.MaxAlbumArtists {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d artists may be attached", domain.MaxAlbumArtists))
	}

	entry := &domain.LibraryEntry{
		UserID:   input.UserID,
		AlbumID:  albumID,
		Name:     name,
		CoverURL: strings.TrimSpace(input.CoverURL),
		Artists:  input.Artists,
		SavedAt:  domain.Now(),
	}
	if entry.Artists == nil {
		entry.Artists = []string{}
	}

	if err := s.library.Upsert(ctx, entry); err != nil {
		return nil, fmt.Errorf("save album: %w", err)
	}

	s.logger.InfoContext(ctx, "album saved to library",
		slog.String("user_id", entry.UserID),
		slog.String("album_id", entry.AlbumID),
	)

	if err := s.producer.PublishLibrarySaved(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish library.saved event",
			slog.String("album_id", entry.AlbumID),
			slog.String("error", err.Error()),
		)
	}

	return entry, nil
}

// Remove deletes the album from the library. Removing an unsaved album is a
// no-op.
func (s *LibraryService) Remove(ctx context.Context, userID, albumID string) error {
	if userID == "" {
		return apperrors.Unauthorized("authentication required")
	}

	removed, err := s.library.Delete(ctx, userID, albumID)
	if err != nil {
		return fmt.Errorf("remove album: %w", err)
	}
	if removed {
		s.logger.InfoContext(ctx, "album removed from library",
			slog.String("user_id", userID),
			slog.String("album_id", albumID),
		)
	}
	return nil
}

// Lookup returns the saved entry for the album, or nil when it is not saved.
func (s *LibraryService) Lookup(ctx context.Context, userID, albumID string) (*domain.LibraryEntry, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	entry, err := s.library.Get(ctx, userID, albumID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// List returns the user's saved albums, most recently saved first.
func (s *LibraryService) List(ctx context.Context, userID string, page, pageSize int) (pagination.Result[domain.LibraryEntry], error) {
	if userID == "" {
		return pagination.Result[domain.LibraryEntry]{}, apperrors.Unauthorized("authentication required")
	}

	params := pagination.DefaultParams()
	if page > 1 {
		params.Page = pagination.ClampPage(page)
	}
	params.PageSize = normalizePageSize(pageSize, pagination.MaxPageSize)
	params.Offset = pagination.Offset(params.Page, params.PageSize)

	entries, err := s.library.List(ctx, userID, params.Offset, params.PageSize+1)
	if err != nil {
		return pagination.Result[domain.LibraryEntry]{}, fmt.Errorf("list library: %w", err)
	}

	hasNext := len(entries) > params.PageSize
	if hasNext {
		entries = entries[:params.PageSize]
	}
	return pagination.NewResult(entries, hasNext, params), nil
}
