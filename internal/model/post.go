package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// Post represents a shared post with its metadata.
type Post struct {
	ID          int64          `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	ImageURL    string         `db:"image_url" json:"image_url"`
	Categories  pq.StringArray `db:"categories" json:"categories"`
	Description string         `db:"description" json:"description"`
	LikeCount   int            `db:"like_count" json:"likes"`
	UserID      int64          `db:"user_id" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	// Joined fields (not columns of the posts table)
	Author   *UserSummary `json:"created_by,omitempty"`
	Messages []Message    `json:"messages,omitempty"`
}

// Message is a threaded message attached to a post, newest first.
type Message struct {
	ID        int64        `db:"id" json:"id"`
	PostID    int64        `db:"post_id" json:"-"`
	UserID    int64        `db:"user_id" json:"-"`
	Body      string       `db:"body" json:"body"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Author    *UserSummary `json:"author,omitempty"` // Joined field
}

// UserSummary is the public slice of a user embedded in post responses.
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
}

// PostPage is the paginated response of infiniteScrollPosts.
type PostPage struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
}

// LikeResult is the response of likePost/unlikePost: the new counter
// value plus the caller's resolved favorites.
type LikeResult struct {
	Likes     int    `json:"likes"`
	Favorites []Post `json:"favorites"`
}

// AddPostArgs are the variables for the addPost operation.
type AddPostArgs struct {
	Title       string   `json:"title"`
	ImageURL    string   `json:"image_url"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
}

// UpdatePostArgs are the variables for the updateUserPost operation.
type UpdatePostArgs struct {
	PostID      int64    `json:"post_id"`
	Title       string   `json:"title"`
	ImageURL    string   `json:"image_url"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
}

// PostIDArgs identify a single post (getPost, deleteUserPost).
type PostIDArgs struct {
	PostID int64 `json:"post_id"`
}

// AddMessageArgs are the variables for the addPostMessage operation.
type AddMessageArgs struct {
	PostID int64  `json:"post_id"`
	Body   string `json:"body"`
}

// PageArgs are the variables for the infiniteScrollPosts operation.
type PageArgs struct {
	PageNum  int `json:"page_num"`
	PageSize int `json:"page_size"`
}

// SearchArgs are the variables for the searchPosts operation.
type SearchArgs struct {
	SearchTerm string `json:"search_term"`
}

// SearchResultLimit caps searchPosts to the best-ranked matches.
const SearchResultLimit = 5

// Post errors
var (
	ErrPostNotFound  = errors.New("post not found")
	ErrTitleRequired = errors.New("post title is required")
	ErrBodyRequired  = errors.New("message body is required")
	ErrInvalidPage   = errors.New("page_num or page_size out of range")
)
