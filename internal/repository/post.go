package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"postshare/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `p.id, p.title, p.image_url, p.categories, p.description,
	p.like_count, p.user_id, p.created_at, p.updated_at`

// postWithAuthor flattens the author join for sqlx scanning.
type postWithAuthor struct {
	model.Post
	AuthorID       int64  `db:"author_id"`
	AuthorUsername string `db:"author_username"`
	AuthorEmail    string `db:"author_email"`
}

// messageWithAuthor flattens the author join for sqlx scanning.
type messageWithAuthor struct {
	model.Message
	AuthorID       int64  `db:"author_id"`
	AuthorUsername string `db:"author_username"`
	AuthorEmail    string `db:"author_email"`
}

// Create inserts a new post owned by post.UserID.
func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		INSERT INTO posts (title, image_url, categories, description, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, like_count, created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		post.Title,
		post.ImageURL,
		pq.Array([]string(post.Categories)),
		post.Description,
		post.UserID,
	)

	err := row.Scan(&post.ID, &post.LikeCount, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post with its messages and their authors.
func (r *postRepository) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`

	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	messages, err := r.getMessages(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Messages = messages

	return &post, nil
}

// List returns all posts newest first with authors resolved.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `,
		       u.id AS author_id, u.username AS author_username, u.email AS author_email
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
	`
	var rows []postWithAuthor
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return attachAuthors(rows), nil
}

// ListByAuthor returns the posts created by one user.
func (r *postRepository) ListByAuthor(ctx context.Context, userID int64) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, userID); err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return posts, nil
}

// Page returns one newest-first slice for skip/limit pagination.
func (r *postRepository) Page(ctx context.Context, offset, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `,
		       u.id AS author_id, u.username AS author_username, u.email AS author_email
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
		OFFSET $1 LIMIT $2
	`
	var rows []postWithAuthor
	if err := r.db.SelectContext(ctx, &rows, query, offset, limit); err != nil {
		return nil, fmt.Errorf("page posts: %w", err)
	}
	return attachAuthors(rows), nil
}

// Count returns the total number of posts.
func (r *postRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return total, nil
}

// Search runs ranked full-text search over title, description and
// categories. Ties in rank break by like count, then recency. A term
// matching nothing is an empty result, not an error.
func (r *postRepository) Search(ctx context.Context, term string, limit int) ([]model.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		WHERE to_tsvector('english',
			p.title || ' ' || p.description || ' ' || array_to_string(p.categories, ' '))
			@@ plainto_tsquery('english', $1)
		ORDER BY ts_rank(
			to_tsvector('english',
				p.title || ' ' || p.description || ' ' || array_to_string(p.categories, ' ')),
			plainto_tsquery('english', $1)) DESC,
			p.like_count DESC, p.id DESC
		LIMIT $2
	`
	posts := []model.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, term, limit); err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

// UpdateOwned updates a post only when it belongs to userID. A missing
// post and a foreign post are the same not-found.
func (r *postRepository) UpdateOwned(ctx context.Context, postID, userID int64, args model.UpdatePostArgs) (*model.Post, error) {
	query := `
		UPDATE posts
		SET title = $1, image_url = $2, categories = $3, description = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING id, title, image_url, categories, description, like_count, user_id, created_at, updated_at
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query,
		args.Title, args.ImageURL, pq.Array(args.Categories), args.Description,
		postID, userID,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}

// DeleteOwned removes a post owned by userID and returns the removed
// record. Favorites and messages go with it via ON DELETE CASCADE.
func (r *postRepository) DeleteOwned(ctx context.Context, postID, userID int64) (*model.Post, error) {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2
		RETURNING id, title, image_url, categories, description, like_count, user_id, created_at, updated_at
	`
	var post model.Post
	err := r.db.GetContext(ctx, &post, query, postID, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete post: %w", err)
	}
	return &post, nil
}

// AddMessage inserts a message on a post. Newest-first ordering means
// the fresh row is position 0 on the next read.
func (r *postRepository) AddMessage(ctx context.Context, postID, userID int64, body string) (*model.Message, error) {
	query := `
		INSERT INTO post_messages (post_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, user_id, body, created_at
	`
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, query, postID, userID, body)
	if err != nil {
		// FK violation: the post does not exist
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return nil, model.ErrPostNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}

	var author model.UserSummary
	err = r.db.GetContext(ctx, &author, `SELECT id, username, email FROM users WHERE id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve message author: %w", err)
	}
	msg.Author = &author

	return &msg, nil
}

// Like increments the like counter and adds the favorites entry in one
// transaction. The favorites insert is a no-op when already present.
func (r *postRepository) Like(ctx context.Context, postID, userID int64) (int, error) {
	return r.adjustLike(ctx, postID, userID, true)
}

// Unlike decrements the counter, clamped at zero, and removes the
// favorites entry in one transaction.
func (r *postRepository) Unlike(ctx context.Context, postID, userID int64) (int, error) {
	return r.adjustLike(ctx, postID, userID, false)
}

func (r *postRepository) adjustLike(ctx context.Context, postID, userID int64, like bool) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	counter := `UPDATE posts SET like_count = like_count + 1, updated_at = NOW() WHERE id = $1 RETURNING like_count`
	if !like {
		counter = `UPDATE posts SET like_count = GREATEST(like_count - 1, 0), updated_at = NOW() WHERE id = $1 RETURNING like_count`
	}

	var likes int
	err = tx.GetContext(ctx, &likes, counter, postID)
	if err == sql.ErrNoRows {
		return 0, model.ErrPostNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update like count: %w", err)
	}

	if like {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO favorites (user_id, post_id) VALUES ($1, $2)
			ON CONFLICT (user_id, post_id) DO NOTHING
		`, userID, postID)
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND post_id = $2`, userID, postID)
	}
	if err != nil {
		return 0, fmt.Errorf("update favorites: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return likes, nil
}

// Helper: fetch all messages of a post, newest first, authors resolved.
func (r *postRepository) getMessages(ctx context.Context, postID int64) ([]model.Message, error) {
	query := `
		SELECT m.id, m.post_id, m.user_id, m.body, m.created_at,
		       u.id AS author_id, u.username AS author_username, u.email AS author_email
		FROM post_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.post_id = $1
		ORDER BY m.created_at DESC, m.id DESC
	`
	var rows []messageWithAuthor
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}

	messages := make([]model.Message, len(rows))
	for i, row := range rows {
		msg := row.Message
		msg.Author = &model.UserSummary{ID: row.AuthorID, Username: row.AuthorUsername, Email: row.AuthorEmail}
		messages[i] = msg
	}
	return messages, nil
}

// Helper: move flattened author columns onto the post structs.
func attachAuthors(rows []postWithAuthor) []model.Post {
	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		post := row.Post
		post.Author = &model.UserSummary{ID: row.AuthorID, Username: row.AuthorUsername, Email: row.AuthorEmail}
		posts[i] = post
	}
	return posts
}
