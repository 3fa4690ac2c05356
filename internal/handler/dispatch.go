package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"postshare/internal/httputil"
	"postshare/internal/model"
	"postshare/internal/service"
	"postshare/internal/transport/http/middleware"
)

// errInvalidVariables marks a variables payload that does not decode
// into the operation's argument shape.
var errInvalidVariables = errors.New("invalid operation variables")

// OperationFunc is one API operation. caller is non-nil iff the
// operation requires authentication.
type OperationFunc func(ctx context.Context, caller *model.User, vars json.RawMessage) (interface{}, error)

type operation struct {
	fn OperationFunc
	// requireAuth is the pre-dispatch guard: the operation only runs
	// with a resolved caller.
	requireAuth bool
}

// OperationRequest is the single-endpoint payload.
type OperationRequest struct {
	OperationName string          `json:"operation_name"`
	Variables     json.RawMessage `json:"variables"`
}

// Dispatcher is the API boundary: it maps operation names to handlers
// and resolves the caller before any identity-requiring operation runs.
type Dispatcher struct {
	authService *service.AuthService
	operations  map[string]operation
}

func NewDispatcher(authService *service.AuthService, auth *AuthHandler, posts *PostHandler) *Dispatcher {
	d := &Dispatcher{
		authService: authService,
		operations:  make(map[string]operation),
	}

	// Anonymous operations
	d.register("signIn", auth.SignIn, false)
	d.register("signUp", auth.SignUp, false)
	d.register("getPosts", posts.GetPosts, false)
	d.register("getPost", posts.GetPost, false)
	d.register("infiniteScrollPosts", posts.InfiniteScrollPosts, false)
	d.register("searchPosts", posts.SearchPosts, false)

	// Operations requiring an authenticated caller
	d.register("getCurrentUser", auth.GetCurrentUser, true)
	d.register("getUserPosts", posts.GetUserPosts, true)
	d.register("addPost", posts.AddPost, true)
	d.register("updateUserPost", posts.UpdateUserPost, true)
	d.register("deleteUserPost", posts.DeleteUserPost, true)
	d.register("addPostMessage", posts.AddPostMessage, true)
	d.register("likePost", posts.LikePost, true)
	d.register("unlikePost", posts.UnlikePost, true)

	return d
}

func (d *Dispatcher) register(name string, fn OperationFunc, requireAuth bool) {
	d.operations[name] = operation{fn: fn, requireAuth: requireAuth}
}

// ServeHTTP handles POST /api/query.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.OperationName == "" {
		httputil.WriteBadRequest(w, "operation_name is required")
		return
	}

	op, ok := d.operations[req.OperationName]
	if !ok {
		httputil.WriteBadRequest(w, "Unknown operation: "+req.OperationName)
		return
	}

	var caller *model.User
	if op.requireAuth {
		identity := middleware.GetIdentityFromContext(r.Context())
		resolved, err := d.authService.CurrentUser(r.Context(), identity)
		if err != nil {
			log.Printf("[Dispatcher] Resolve caller: op=%s err=%v", req.OperationName, err)
			httputil.WriteInternalError(w, "Failed to resolve caller")
			return
		}
		if resolved == nil {
			httputil.WriteUnauthorized(w, "Authentication required")
			return
		}
		caller = resolved
	}

	vars := req.Variables
	if len(vars) == 0 {
		vars = json.RawMessage("{}")
	}

	result, err := op.fn(r.Context(), caller, vars)
	if err != nil {
		d.writeOperationError(w, req.OperationName, err)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// writeOperationError maps domain errors onto the wire taxonomy.
func (d *Dispatcher) writeOperationError(w http.ResponseWriter, opName string, err error) {
	switch {
	case errors.Is(err, errInvalidVariables):
		httputil.WriteBadRequest(w, "Invalid variables for operation "+opName)
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteInvalidCredential(w, "Invalid password")
	case errors.Is(err, model.ErrUsernameExists):
		httputil.WriteConflict(w, "User already exists")
	case errors.Is(err, model.ErrMissingFields):
		httputil.WriteValidationError(w, "username, email and password are required")
	case errors.Is(err, model.ErrInvalidPage):
		httputil.WriteValidationError(w, "page_num and page_size must be positive and within range")
	case errors.Is(err, model.ErrTitleRequired):
		httputil.WriteValidationError(w, "title is required")
	case errors.Is(err, model.ErrBodyRequired):
		httputil.WriteValidationError(w, "message body is required")
	default:
		log.Printf("[Dispatcher] Operation failed: op=%s err=%v", opName, err)
		httputil.WriteInternalError(w, "Operation failed")
	}
}
