package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"postshare/internal/config"
	"postshare/internal/handler"
	"postshare/internal/model"
	"postshare/internal/service"
	transport "postshare/internal/transport/http"
)

// =============================================================================
// IN-MEMORY REPOSITORIES
// =============================================================================

type memUserRepo struct {
	users  map[string]*model.User
	nextID int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, ok := m.users[user.Username]; ok {
		return model.ErrUsernameExists
	}
	user.ID = m.nextID
	m.nextID++
	copied := *user
	m.users[user.Username] = &copied
	return nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *memUserRepo) GetFavorites(ctx context.Context, userID int64) ([]model.Post, error) {
	return []model.Post{}, nil
}

type memPostRepo struct {
	posts []model.Post // newest first
}

func (m *memPostRepo) Create(ctx context.Context, post *model.Post) error {
	post.ID = int64(len(m.posts) + 1)
	m.posts = append([]model.Post{*post}, m.posts...)
	return nil
}

func (m *memPostRepo) GetByID(ctx context.Context, postID int64) (*model.Post, error) {
	for i := range m.posts {
		if m.posts[i].ID == postID {
			p := m.posts[i]
			return &p, nil
		}
	}
	return nil, model.ErrPostNotFound
}

func (m *memPostRepo) List(ctx context.Context) ([]model.Post, error) { return m.posts, nil }

func (m *memPostRepo) ListByAuthor(ctx context.Context, userID int64) ([]model.Post, error) {
	var out []model.Post
	for _, p := range m.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPostRepo) Page(ctx context.Context, offset, limit int) ([]model.Post, error) {
	if offset >= len(m.posts) {
		return []model.Post{}, nil
	}
	end := offset + limit
	if end > len(m.posts) {
		end = len(m.posts)
	}
	return m.posts[offset:end], nil
}

func (m *memPostRepo) Count(ctx context.Context) (int, error) { return len(m.posts), nil }

func (m *memPostRepo) Search(ctx context.Context, term string, limit int) ([]model.Post, error) {
	return []model.Post{}, nil
}

func (m *memPostRepo) UpdateOwned(ctx context.Context, postID, userID int64, args model.UpdatePostArgs) (*model.Post, error) {
	return nil, model.ErrPostNotFound
}

func (m *memPostRepo) DeleteOwned(ctx context.Context, postID, userID int64) (*model.Post, error) {
	return nil, model.ErrPostNotFound
}

func (m *memPostRepo) AddMessage(ctx context.Context, postID, userID int64, body string) (*model.Message, error) {
	return nil, model.ErrPostNotFound
}

func (m *memPostRepo) Like(ctx context.Context, postID, userID int64) (int, error) {
	return 0, model.ErrPostNotFound
}

func (m *memPostRepo) Unlike(ctx context.Context, postID, userID int64) (int, error) {
	return 0, model.ErrPostNotFound
}

// =============================================================================
// TEST SERVER
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:   "test-secret",
		TokenMaxAge: 3600,

		// Throwaway R2 credentials: client construction is offline,
		// and no test pushes an upload through to storage.
		R2AccountID:       "test-account",
		R2AccessKeyID:     "test-key",
		R2SecretAccessKey: "test-secret-key",
		R2BucketName:      "test-bucket",
		R2PublicURL:       "https://media.test.example.com",
	}
	userRepo := newMemUserRepo()
	postRepo := &memPostRepo{}

	authService := service.NewAuthService(userRepo, cfg)
	postService := service.NewPostService(postRepo, userRepo)

	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build media service: %v", err)
	}

	dispatcher := handler.NewDispatcher(
		authService,
		handler.NewAuthHandler(authService),
		handler.NewPostHandler(postService),
	)

	router := transport.NewRouter(transport.RouterConfig{
		Dispatcher:      dispatcher,
		MediaHandler:    handler.NewMediaHandler(mediaService),
		ResolveIdentity: authService.ResolveIdentity,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func callOperation(t *testing.T, srv *httptest.Server, token, opName string, variables interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	body := map[string]interface{}{"operation_name": opName}
	if variables != nil {
		body["variables"] = variables
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/query", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("call %s: %v", opName, err)
	}
	defer resp.Body.Close()

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode %s response: %v", opName, err)
	}
	return resp, envelope
}

func errorCode(t *testing.T, envelope map[string]json.RawMessage) string {
	t.Helper()
	var detail struct {
		Code string `json:"code"`
	}
	if raw, ok := envelope["error"]; ok {
		if err := json.Unmarshal(raw, &detail); err != nil {
			t.Fatalf("decode error detail: %v", err)
		}
	}
	return detail.Code
}

func signUp(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	resp, envelope := callOperation(t, srv, "", "signUp", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signUp status = %d, body = %v", resp.StatusCode, envelope)
	}
	var data model.TokenResponse
	if err := json.Unmarshal(envelope["data"], &data); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if data.Token == "" {
		t.Fatal("signUp returned an empty token")
	}
	return data.Token
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatcher_UnknownOperation(t *testing.T) {
	srv := newTestServer(t)

	resp, envelope := callOperation(t, srv, "", "dropAllTables", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "BAD_REQUEST" {
		t.Errorf("code = %q, want BAD_REQUEST", code)
	}
}

func TestDispatcher_ProtectedOperationRequiresCaller(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, envelope := callOperation(t, srv, tt.token, "addPost", map[string]string{"title": "x"})
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
			if code := errorCode(t, envelope); code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", code)
			}
		})
	}
}

func TestDispatcher_AnonymousOperationsFailOpen(t *testing.T) {
	srv := newTestServer(t)

	// A stale or garbage token must not break anonymous reads
	resp, envelope := callOperation(t, srv, "expired.garbage.token", "getPosts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (got %v)", resp.StatusCode, envelope)
	}
	if _, ok := envelope["data"]; !ok {
		t.Error("expected a data envelope")
	}
}

func TestDispatcher_SignInErrors(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "grace")

	resp, envelope := callOperation(t, srv, "", "signIn", map[string]string{
		"username": "grace", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "INVALID_CREDENTIAL" {
		t.Errorf("wrong password: code = %q, want INVALID_CREDENTIAL", code)
	}

	resp, envelope = callOperation(t, srv, "", "signIn", map[string]string{
		"username": "nobody", "password": "wrong",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown user: status = %d, want 404", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "NOT_FOUND" {
		t.Errorf("unknown user: code = %q, want NOT_FOUND", code)
	}

	resp, envelope = callOperation(t, srv, "", "signUp", map[string]string{
		"username": "grace", "email": "grace@example.com", "password": "password123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate signup: status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, envelope); code != "ALREADY_EXISTS" {
		t.Errorf("duplicate signup: code = %q, want ALREADY_EXISTS", code)
	}
}

func TestDispatcher_AuthenticatedFlow(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "heidi")

	// The token identifies the caller
	resp, envelope := callOperation(t, srv, token, "getCurrentUser", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("getCurrentUser status = %d, body = %v", resp.StatusCode, envelope)
	}
	var user model.User
	if err := json.Unmarshal(envelope["data"], &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if user.Username != "heidi" {
		t.Errorf("username = %q, want heidi", user.Username)
	}

	// Mutations run on behalf of the resolved caller
	resp, envelope = callOperation(t, srv, token, "addPost", map[string]interface{}{
		"title":      "First light",
		"image_url":  "https://img.example.com/1.jpg",
		"categories": []string{"nature"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("addPost status = %d, body = %v", resp.StatusCode, envelope)
	}

	resp, envelope = callOperation(t, srv, token, "getUserPosts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("getUserPosts status = %d, body = %v", resp.StatusCode, envelope)
	}
	var posts []model.Post
	if err := json.Unmarshal(envelope["data"], &posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "First light" {
		t.Errorf("posts = %+v, want the created post", posts)
	}
}

func TestMediaUpload_RequiresIdentity(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/media/posts", "multipart/form-data", nil)
	if err != nil {
		t.Fatalf("call media upload: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", envelope.Error.Code)
	}
}

func TestDispatcher_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "ivan")

	cases := []struct {
		opName    string
		token     string
		variables interface{}
		wantCode  string
	}{
		{"infiniteScrollPosts", "", map[string]int{"page_num": 0, "page_size": 2}, "VALIDATION_FAILED"},
		{"infiniteScrollPosts", "", map[string]int{"page_num": 1, "page_size": 0}, "VALIDATION_FAILED"},
		{"addPost", token, map[string]string{"title": "  "}, "VALIDATION_FAILED"},
		{"addPostMessage", token, map[string]interface{}{"post_id": 1, "body": ""}, "VALIDATION_FAILED"},
		{"getPost", "", map[string]int{"post_id": 999}, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.opName, tc.wantCode), func(t *testing.T) {
			resp, envelope := callOperation(t, srv, tc.token, tc.opName, tc.variables)
			if resp.StatusCode == http.StatusOK {
				t.Fatalf("expected an error response, got 200: %v", envelope)
			}
			if code := errorCode(t, envelope); code != tc.wantCode {
				t.Errorf("code = %q, want %q", code, tc.wantCode)
			}
		})
	}
}
