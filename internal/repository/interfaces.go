package repository

import (
	"context"

	"postshare/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// GetFavorites resolves the user's favorite post references into
	// full post records.
	GetFavorites(ctx context.Context, userID int64) ([]model.Post, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	// GetByID returns a post with its messages and their authors resolved.
	GetByID(ctx context.Context, postID int64) (*model.Post, error)
	// List returns all posts newest first with authors resolved.
	List(ctx context.Context) ([]model.Post, error)
	ListByAuthor(ctx context.Context, userID int64) ([]model.Post, error)
	// Page returns a newest-first slice for skip/limit pagination.
	Page(ctx context.Context, offset, limit int) ([]model.Post, error)
	Count(ctx context.Context) (int, error)
	// Search runs ranked full-text search, ties broken by like count.
	Search(ctx context.Context, term string, limit int) ([]model.Post, error)
	// UpdateOwned updates only when postID belongs to userID; a missing
	// or foreign post is the same model.ErrPostNotFound.
	UpdateOwned(ctx context.Context, postID, userID int64, args model.UpdatePostArgs) (*model.Post, error)
	DeleteOwned(ctx context.Context, postID, userID int64) (*model.Post, error)
	// AddMessage prepends a message (newest first) and returns it with
	// the author resolved.
	AddMessage(ctx context.Context, postID, userID int64, body string) (*model.Message, error)
	// Like increments the like counter and adds the post to the user's
	// favorites set in one transaction. Returns the new counter value.
	Like(ctx context.Context, postID, userID int64) (int, error)
	// Unlike decrements the counter (clamped at zero) and removes the
	// favorites entry in one transaction.
	Unlike(ctx context.Context, postID, userID int64) (int, error)
}
