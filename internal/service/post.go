package service

import (
	"context"
	"fmt"
	"strings"

	"postshare/internal/model"
	"postshare/internal/repository"
)

// PostService handles both read and write operations on posts.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

// GetPosts returns all posts, authors resolved, newest first.
func (s *PostService) GetPosts(ctx context.Context) ([]model.Post, error) {
	return s.postRepo.List(ctx)
}

// GetUserPosts returns the posts authored by one user.
func (s *PostService) GetUserPosts(ctx context.Context, userID int64) ([]model.Post, error) {
	return s.postRepo.ListByAuthor(ctx, userID)
}

// GetPost returns a single post with its message thread resolved.
func (s *PostService) GetPost(ctx context.Context, postID int64) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, postID)
}

// maxPageValue bounds pageNum and pageSize so the offset arithmetic
// below cannot overflow into a negative OFFSET.
const maxPageValue = 1 << 20

// InfiniteScrollPosts pages newest-first: page 1 is the first pageSize
// posts, page N skips (N-1)*pageSize. hasMore compares the total count
// against pageNum*pageSize.
func (s *PostService) InfiniteScrollPosts(ctx context.Context, args model.PageArgs) (*model.PostPage, error) {
	if args.PageNum < 1 || args.PageSize < 1 ||
		args.PageNum > maxPageValue || args.PageSize > maxPageValue {
		return nil, model.ErrInvalidPage
	}

	offset := (args.PageNum - 1) * args.PageSize
	posts, err := s.postRepo.Page(ctx, offset, args.PageSize)
	if err != nil {
		return nil, fmt.Errorf("page posts: %w", err)
	}

	total, err := s.postRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	return &model.PostPage{
		Posts:   posts,
		HasMore: total > args.PageNum*args.PageSize,
	}, nil
}

// SearchPosts returns the best-ranked matches, at most
// model.SearchResultLimit of them. No match is an empty result.
func (s *PostService) SearchPosts(ctx context.Context, term string) ([]model.Post, error) {
	if strings.TrimSpace(term) == "" {
		return []model.Post{}, nil
	}
	return s.postRepo.Search(ctx, term, model.SearchResultLimit)
}

// AddPost creates a post owned by creatorID and returns the stored
// record with its generated id and timestamp.
func (s *PostService) AddPost(ctx context.Context, creatorID int64, args model.AddPostArgs) (*model.Post, error) {
	if strings.TrimSpace(args.Title) == "" {
		return nil, model.ErrTitleRequired
	}

	post := &model.Post{
		Title:       args.Title,
		ImageURL:    args.ImageURL,
		Categories:  args.Categories,
		Description: args.Description,
		UserID:      creatorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// UpdateUserPost updates a post only when userID owns it. A missing
// post and a foreign post are indistinguishable to the caller.
func (s *PostService) UpdateUserPost(ctx context.Context, userID int64, args model.UpdatePostArgs) (*model.Post, error) {
	if strings.TrimSpace(args.Title) == "" {
		return nil, model.ErrTitleRequired
	}
	return s.postRepo.UpdateOwned(ctx, args.PostID, userID, args)
}

// DeleteUserPost removes a post owned by userID and returns the removed
// record.
func (s *PostService) DeleteUserPost(ctx context.Context, userID, postID int64) (*model.Post, error) {
	return s.postRepo.DeleteOwned(ctx, postID, userID)
}

// AddPostMessage prepends a message to a post's thread and returns only
// the new message, author resolved.
func (s *PostService) AddPostMessage(ctx context.Context, userID int64, args model.AddMessageArgs) (*model.Message, error) {
	if strings.TrimSpace(args.Body) == "" {
		return nil, model.ErrBodyRequired
	}
	return s.postRepo.AddMessage(ctx, args.PostID, userID, args.Body)
}

// LikePost bumps the post's counter and adds it to the caller's
// favorites, returning the new counter and the resolved favorites.
func (s *PostService) LikePost(ctx context.Context, userID, postID int64) (*model.LikeResult, error) {
	likes, err := s.postRepo.Like(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return s.likeResult(ctx, userID, likes)
}

// UnlikePost reverses LikePost. The counter clamps at zero and removing
// an absent favorite is a no-op, so the round trip is idempotent.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID int64) (*model.LikeResult, error) {
	likes, err := s.postRepo.Unlike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	return s.likeResult(ctx, userID, likes)
}

func (s *PostService) likeResult(ctx context.Context, userID int64, likes int) (*model.LikeResult, error) {
	favorites, err := s.userRepo.GetFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	return &model.LikeResult{Likes: likes, Favorites: favorites}, nil
}
