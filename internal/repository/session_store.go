package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-console/internal/domain"
)

// SessionStore persists one copy of the console session.
type SessionStore interface {
	// Load returns nil without error when no session is stored.
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Clear(ctx context.Context) error
}

type memorySessionStore struct {
	mu      sync.RWMutex
	session *domain.Session
}

// NewMemorySessionStore keeps the session in process memory.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{}
}

func (s *memorySessionStore) Load(context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *memorySessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	copied := *session
	s.mu.Lock()
	s.session = &copied
	s.mu.Unlock()
	return nil
}

func (s *memorySessionStore) Clear(context.Context) error {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return nil
}

type redisSessionStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisSessionStore stores the session as JSON under key.
func NewRedisSessionStore(client *redis.Client, key string, ttl time.Duration) SessionStore {
	return &redisSessionStore{client: client, key: key, ttl: ttl}
}

func (s *redisSessionStore) Load(ctx context.Context) (*domain.Session, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *redisSessionStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

type cookieSessionStore struct {
	jar    http.CookieJar
	target *url.URL
	name   string
	maxAge time.Duration
	now    func() time.Time
}

// NewCookieSessionStore keeps the access token as a cookie in jar, scoped to the backend URL.
// The cookie copy only carries the access token.
func NewCookieSessionStore(jar http.CookieJar, backendURL, name string, maxAge time.Duration) (SessionStore, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	return &cookieSessionStore{jar: jar, target: target, name: name, maxAge: maxAge, now: time.Now}, nil
}

func (s *cookieSessionStore) Load(context.Context) (*domain.Session, error) {
	for _, cookie := range s.jar.Cookies(s.target) {
		if cookie.Name == s.name && cookie.Value != "" {
			token, err := url.QueryUnescape(cookie.Value)
			if err != nil {
				return nil, fmt.Errorf("decode session cookie: %w", err)
			}
			return &domain.Session{AccessToken: token}, nil
		}
	}
	return nil, nil
}

func (s *cookieSessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil || session.AccessToken == "" {
		return errors.New("session has no access token")
	}
	s.jar.SetCookies(s.target, []*http.Cookie{{
		Name:     s.name,
		Value:    url.QueryEscape(session.AccessToken),
		Path:     "/",
		MaxAge:   int(s.maxAge / time.Second),
		Expires:  s.now().Add(s.maxAge),
		SameSite: http.SameSiteLaxMode,
	}})
	return nil
}

func (s *cookieSessionStore) Clear(context.Context) error {
	s.jar.SetCookies(s.target, []*http.Cookie{{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	}})
	return nil
}
