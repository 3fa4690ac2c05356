package handler

import (
	"context"
	"encoding/json"

	"postshare/internal/model"
	"postshare/internal/service"
)

// PostHandler groups the post-facing operations of the API boundary.
type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// GetPosts implements the getPosts operation.
func (h *PostHandler) GetPosts(ctx context.Context, _ *model.User, _ json.RawMessage) (interface{}, error) {
	return h.postService.GetPosts(ctx)
}

// GetUserPosts implements the getUserPosts operation. By convention it
// reads the caller's own posts.
func (h *PostHandler) GetUserPosts(ctx context.Context, caller *model.User, _ json.RawMessage) (interface{}, error) {
	return h.postService.GetUserPosts(ctx, caller.ID)
}

// GetPost implements the getPost operation.
func (h *PostHandler) GetPost(ctx context.Context, _ *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.PostIDArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.GetPost(ctx, args.PostID)
}

// InfiniteScrollPosts implements the infiniteScrollPosts operation.
func (h *PostHandler) InfiniteScrollPosts(ctx context.Context, _ *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.PageArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.InfiniteScrollPosts(ctx, args)
}

// SearchPosts implements the searchPosts operation.
func (h *PostHandler) SearchPosts(ctx context.Context, _ *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.SearchArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.SearchPosts(ctx, args.SearchTerm)
}

// AddPost implements the addPost operation.
func (h *PostHandler) AddPost(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.AddPostArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.AddPost(ctx, caller.ID, args)
}

// UpdateUserPost implements the updateUserPost operation.
func (h *PostHandler) UpdateUserPost(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.UpdatePostArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.UpdateUserPost(ctx, caller.ID, args)
}

// DeleteUserPost implements the deleteUserPost operation.
func (h *PostHandler) DeleteUserPost(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.PostIDArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.DeleteUserPost(ctx, caller.ID, args.PostID)
}

// AddPostMessage implements the addPostMessage operation.
func (h *PostHandler) AddPostMessage(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.AddMessageArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.AddPostMessage(ctx, caller.ID, args)
}

// LikePost implements the likePost operation.
func (h *PostHandler) LikePost(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.PostIDArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.LikePost(ctx, caller.ID, args.PostID)
}

// UnlikePost implements the unlikePost operation.
func (h *PostHandler) UnlikePost(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.PostIDArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.postService.UnlikePost(ctx, caller.ID, args.PostID)
}
