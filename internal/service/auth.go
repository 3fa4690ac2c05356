package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"postshare/internal/config"
	"postshare/internal/model"
	"postshare/internal/repository"
)

// AuthService owns the credential and token lifecycle: signup, signin,
// and resolving a bearer token back into a user record. Tokens are
// stateless; validity is entirely signature plus expiry.
type AuthService struct {
	userRepo repository.UserRepository
	config   *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		config:   cfg,
	}
}

// SignUp creates a new account and returns a signed token.
func (s *AuthService) SignUp(ctx context.Context, args model.SignUpArgs) (*model.TokenResponse, error) {
	if strings.TrimSpace(args.Username) == "" || strings.TrimSpace(args.Email) == "" || args.Password == "" {
		return nil, model.ErrMissingFields
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, args.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(args.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       args.Username,
		Email:          args.Email,
		PasswordHashed: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.TokenResponse{Token: token}, nil
}

// SignIn verifies the credentials and returns a signed token. An
// unknown username is ErrUserNotFound; a wrong password for an existing
// username is always ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, args model.SignInArgs) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, args.Username)
	if err != nil {
		return nil, err
	}

	// bcrypt comparison is constant-time over the hash
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(args.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &model.TokenResponse{Token: token}, nil
}

// ResolveIdentity decodes a bearer token into a caller identity.
// It fails open: a missing, malformed, or expired token yields nil so
// anonymous reads still succeed.
func (s *AuthService) ResolveIdentity(tokenString string) *model.Identity {
	if tokenString == "" {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil
	}
	email, _ := claims["email"].(string)

	return &model.Identity{Username: username, Email: email}
}

// CurrentUser loads the full user record for an identity, favorites
// resolved. A nil identity or a vanished user resolves to nil, not an
// error.
func (s *AuthService) CurrentUser(ctx context.Context, identity *model.Identity) (*model.User, error) {
	if identity == nil {
		return nil, nil
	}

	user, err := s.userRepo.GetByUsername(ctx, identity.Username)
	if err != nil {
		if err == model.ErrUserNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load current user: %w", err)
	}

	favorites, err := s.userRepo.GetFavorites(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	user.Favorites = favorites

	return user, nil
}

// generateToken signs a token encoding username and email with the
// configured validity window.
func (s *AuthService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username": user.Username,
		"email":    user.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Duration(s.config.TokenMaxAge) * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
