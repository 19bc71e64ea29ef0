package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vonout/Backend/internal/discord"
	"github.com/vonout/Backend/internal/domain"
	"github.com/vonout/Backend/internal/repository"
	backend_errors "github.com/vonout/Backend/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	DefaultStateTTL = 10 * time.Minute
	stateIssuer     = "vonout-backend"
	nonceBytes      = 16
)

// DiscordOAuth is the part of the Discord client the login flow needs.
type DiscordOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	CurrentUser(ctx context.Context, accessToken string) (*discord.User, error)
}

type AuthService struct {
	discord  DiscordOAuth
	userRepo repository.UserRepository
	stateKey []byte
	stateTTL time.Duration
	now      func() time.Time
}

// NewAuthService signs OAuth state with stateKey. userRepo may be nil, in
// which case logins are not persisted.
func NewAuthService(client DiscordOAuth, userRepo repository.UserRepository, stateKey []byte) *AuthService {
	return &AuthService{
		discord:  client,
		userRepo: userRepo,
		stateKey: stateKey,
		stateTTL: DefaultStateTTL,
		now:      time.Now,
	}
}

type LoginRequest struct {
	URL   string
	Nonce string
}

type CallbackInput struct {
	Code  string
	State string
	Nonce string
}

type LoginResult struct {
	User     *discord.User
	Token    *oauth2.Token
	Stored   *domain.User
	Redirect string
}

type stateClaims struct {
	Nonce    string `json:"nonce"`
	Redirect string `json:"redirect"`
	jwt.RegisteredClaims
}

// BeginLogin returns the Discord authorize URL and the nonce the caller must
// bind to the browser. The redirect path travels inside the state token.
func (s *AuthService) BeginLogin(redirect string) (*LoginRequest, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}

	now := s.now()
	claims := stateClaims{
		Nonce:    nonce,
		Redirect: SanitizeRedirect(redirect),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
		},
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.stateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign oauth state: %w", err)
	}

	return &LoginRequest{URL: s.discord.AuthCodeURL(state), Nonce: nonce}, nil
}

func (s *AuthService) parseState(state string) (*stateClaims, error) {
	claims := &stateClaims{}
	_, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (any, error) {
		return s.stateKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("oauth state: %v: %w", err, backend_errors.ErrInvalidState)
	}
	return claims, nil
}

// CompleteLogin verifies the state against the browser nonce, exchanges the
// code and loads the Discord user. The user is upserted when a repository
// is configured.
func (s *AuthService) CompleteLogin(ctx context.Context, in CallbackInput) (*LoginResult, error) {
	if in.Code == "" {
		return nil, fmt.Errorf("missing authorization code: %w", backend_errors.ErrInvalidInput)
	}
	if in.State == "" || in.Nonce == "" {
		return nil, fmt.Errorf("missing oauth state: %w", backend_errors.ErrInvalidState)
	}

	claims, err := s.parseState(in.State)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(in.Nonce)) != 1 {
		return nil, fmt.Errorf("oauth nonce mismatch: %w", backend_errors.ErrInvalidState)
	}

	token, err := s.discord.Exchange(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	user, err := s.discord.CurrentUser(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load discord user: %v: %w", err, backend_errors.ErrUpstream)
	}

	result := &LoginResult{User: user, Token: token, Redirect: claims.Redirect}
	if s.userRepo == nil {
		return result, nil
	}

	stored := &domain.User{
		ID:         user.ID,
		Username:   user.Username,
		GlobalName: user.GlobalName,
		Avatar:     user.Avatar,
		Email:      user.Email,
	}
	if err := s.userRepo.Upsert(ctx, stored); err != nil {
		return nil, err
	}
	result.Stored = stored
	return result, nil
}

// RefreshToken renews an expired user token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token: %w", backend_errors.ErrUnauthorized)
	}
	return s.discord.Refresh(ctx, refreshToken)
}

// Profile returns the stored user, or ErrNotFound when nothing is stored or
// persistence is disabled.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	if s.userRepo == nil {
		return nil, backend_errors.ErrNotFound
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, backend_errors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return u, nil
}

// SanitizeRedirect keeps only same-site absolute paths. Anything else, a
// scheme-relative "//host" included, becomes "/".
func SanitizeRedirect(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	if strings.ContainsAny(p, "\r\n") {
		return "/"
	}
	return p
}

func generateNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
