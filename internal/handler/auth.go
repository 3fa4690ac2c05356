package handler

import (
	"context"
	"encoding/json"

	"postshare/internal/model"
	"postshare/internal/service"
)

// AuthHandler groups the auth-facing operations of the API boundary.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignIn implements the signIn operation.
func (h *AuthHandler) SignIn(ctx context.Context, _ *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.SignInArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.authService.SignIn(ctx, args)
}

// SignUp implements the signUp operation.
func (h *AuthHandler) SignUp(ctx context.Context, _ *model.User, vars json.RawMessage) (interface{}, error) {
	var args model.SignUpArgs
	if err := json.Unmarshal(vars, &args); err != nil {
		return nil, errInvalidVariables
	}
	return h.authService.SignUp(ctx, args)
}

// GetCurrentUser implements the getCurrentUser operation. The caller is
// already resolved by the dispatcher, favorites included.
func (h *AuthHandler) GetCurrentUser(_ context.Context, caller *model.User, _ json.RawMessage) (interface{}, error) {
	return caller, nil
}
