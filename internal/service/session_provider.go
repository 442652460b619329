package service

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/repository"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// Validation messages shown before any identity call is made.
const (
	MsgCredentialsRequired = "Email and password are required."
	MsgInvalidEmail        = "Please enter a valid email address."
	MsgPasswordMismatch    = "Passwords do not match."
)

// IdentityBackend is the opaque identity collaborator.
type IdentityBackend interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// SignUpOutcome is the result of registering an account.
type SignUpOutcome struct {
	Session             *domain.Session `json:"session,omitempty"`
	VerificationPending bool            `json:"verification_pending"`
}

// SessionProviderDependencies wires collaborators for SessionProvider.
type SessionProviderDependencies struct {
	Identity IdentityBackend
	// Local is the persistent copy; Cookie is the cookie copy sent to the backend.
	Local      repository.SessionStore
	Cookie     repository.SessionStore
	Tokens     *auth.TokenParser
	AuthHeader string
	Logger     *zap.Logger
	Now        func() time.Time
}

// SessionProvider bridges the identity backend and the two session copies.
type SessionProvider struct {
	identity   IdentityBackend
	local      repository.SessionStore
	cookie     repository.SessionStore
	tokens     *auth.TokenParser
	authHeader string
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.Mutex
	listeners []func(*domain.Session)
}

// NewSessionProvider creates the provider.
func NewSessionProvider(deps SessionProviderDependencies) *SessionProvider {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Local == nil {
		deps.Local = repository.NewMemorySessionStore()
	}
	if deps.Cookie == nil {
		deps.Cookie = repository.NewMemorySessionStore()
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenParser("")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &SessionProvider{
		identity:   deps.Identity,
		local:      deps.Local,
		cookie:     deps.Cookie,
		tokens:     deps.Tokens,
		authHeader: deps.AuthHeader,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// OnSessionChanged registers a listener called with the new session, or nil on sign-out.
func (p *SessionProvider) OnSessionChanged(fn func(*domain.Session)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// SignIn authenticates and persists the session in both copies.
func (p *SessionProvider) SignIn(ctx context.Context, email, password string) Result[*domain.Session] {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return Fail[*domain.Session](err)
	}
	session, err := p.identity.SignIn(ctx, email, password)
	if err != nil {
		p.logger.Info("sign in failed", zap.String("email", email), zap.Error(err))
		return Fail[*domain.Session](err)
	}
	p.store(ctx, session)
	return Ok(session)
}

// SignUp registers an account. Without an immediate session the outcome asks for email verification.
func (p *SessionProvider) SignUp(ctx context.Context, email, password, confirm string) Result[SignUpOutcome] {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return Fail[SignUpOutcome](err)
	}
	if password != confirm {
		return Fail[SignUpOutcome](apperrors.NewValidationError(MsgPasswordMismatch, map[string]any{"field": "confirm_password"}))
	}
	session, err := p.identity.SignUp(ctx, email, password)
	if err != nil {
		p.logger.Info("sign up failed", zap.String("email", email), zap.Error(err))
		return Fail[SignUpOutcome](err)
	}
	if session == nil {
		return Ok(SignUpOutcome{VerificationPending: true})
	}
	p.store(ctx, session)
	return Ok(SignUpOutcome{Session: session})
}

// CurrentSession returns the live session, or nil when signed out or expired.
// A copy missing from either store is restored from the other.
func (p *SessionProvider) CurrentSession(ctx context.Context) (*domain.Session, error) {
	local, err := p.local.Load(ctx)
	if err != nil {
		p.logger.Warn("load local session", zap.Error(err))
	}
	cookie, err := p.cookie.Load(ctx)
	if err != nil {
		p.logger.Warn("load session cookie", zap.Error(err))
	}

	session := local
	if session == nil && cookie != nil {
		session = p.fromToken(cookie.AccessToken)
	}
	if session == nil {
		return nil, nil
	}

	if p.expired(session) {
		refreshed := p.refresh(ctx, session)
		if refreshed == nil {
			p.clear(ctx)
			p.notify(nil)
			return nil, nil
		}
		p.store(ctx, refreshed)
		return refreshed, nil
	}

	if local == nil {
		if err := p.local.Save(ctx, session); err != nil {
			p.logger.Warn("restore local session", zap.Error(err))
		}
	}
	if cookie == nil || cookie.AccessToken != session.AccessToken {
		if err := p.cookie.Save(ctx, session); err != nil {
			p.logger.Warn("restore session cookie", zap.Error(err))
		}
	}
	return session, nil
}

// SignOut ends the session. Both copies are cleared even when the backend call fails.
func (p *SessionProvider) SignOut(ctx context.Context) Result[struct{}] {
	session, _ := p.CurrentSession(ctx)
	if session != nil && p.identity != nil {
		if err := p.identity.SignOut(ctx, session.AccessToken); err != nil {
			p.logger.Info("identity sign out failed", zap.Error(err))
		}
	}
	p.clear(ctx)
	p.notify(nil)
	return Ok(struct{}{})
}

// AuthHeaders returns the bearer and custom auth headers for the current session.
func (p *SessionProvider) AuthHeaders(ctx context.Context) http.Header {
	header := http.Header{}
	session, err := p.CurrentSession(ctx)
	if err != nil || session == nil {
		return header
	}
	header.Set("Authorization", "Bearer "+session.AccessToken)
	if p.authHeader != "" {
		header.Set(p.authHeader, session.AccessToken)
	}
	return header
}

// Identity returns the session identity, or fallback when signed out.
func (p *SessionProvider) Identity(fallback string) IdentityFunc {
	return func(ctx context.Context) string {
		session, _ := p.CurrentSession(ctx)
		if id := session.Identity(); id != "" {
			return id
		}
		return fallback
	}
}

func (p *SessionProvider) fromToken(token string) *domain.Session {
	claims, err := p.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &domain.Session{AccessToken: token, ExpiresAt: p.now()}
		}
		p.logger.Debug("session cookie is not a readable token", zap.Error(err))
		return &domain.Session{AccessToken: token}
	}
	return &domain.Session{
		UserID:      claims.Subject,
		Email:       claims.Email,
		AccessToken: token,
		ExpiresAt:   claims.Expiry(),
	}
}

func (p *SessionProvider) expired(session *domain.Session) bool {
	if session.Expired(p.now()) {
		return true
	}
	if _, err := p.tokens.Parse(session.AccessToken); errors.Is(err, jwt.ErrTokenExpired) {
		return true
	}
	return false
}

func (p *SessionProvider) refresh(ctx context.Context, session *domain.Session) *domain.Session {
	if session.RefreshToken == "" || p.identity == nil {
		return nil
	}
	refreshed, err := p.identity.Refresh(ctx, session.RefreshToken)
	if err != nil {
		p.logger.Info("session refresh failed", zap.Error(err))
		return nil
	}
	return refreshed
}

func (p *SessionProvider) store(ctx context.Context, session *domain.Session) {
	if err := p.local.Save(ctx, session); err != nil {
		p.logger.Warn("save local session", zap.Error(err))
	}
	if err := p.cookie.Save(ctx, session); err != nil {
		p.logger.Warn("save session cookie", zap.Error(err))
	}
	p.notify(session)
}

func (p *SessionProvider) clear(ctx context.Context) {
	if err := p.local.Clear(ctx); err != nil {
		p.logger.Warn("clear local session", zap.Error(err))
	}
	if err := p.cookie.Clear(ctx); err != nil {
		p.logger.Warn("clear session cookie", zap.Error(err))
	}
}

func (p *SessionProvider) notify(session *domain.Session) {
	p.mu.Lock()
	listeners := append([]func(*domain.Session){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(session)
	}
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return apperrors.NewValidationError(MsgCredentialsRequired, nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return apperrors.NewValidationError(MsgInvalidEmail, map[string]any{"field": "email"})
	}
	return nil
}
