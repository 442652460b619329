package repository

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-console/internal/domain"
)

func TestMemorySessionStore_RoundTrip(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	if s, err := store.Load(ctx); err != nil || s != nil {
		t.Fatalf("Expected empty store, got %v %v", s, err)
	}
	original := &domain.Session{UserID: "u1", AccessToken: "tok"}
	if err := store.Save(ctx, original); err != nil {
		t.Fatalf("save: %v", err)
	}
	original.UserID = "mutated"

	got, _ := store.Load(ctx)
	if got == nil || got.UserID != "u1" {
		t.Errorf("Expected stored copy to be isolated, got %+v", got)
	}
	_ = store.Clear(ctx)
	if got, _ := store.Load(ctx); got != nil {
		t.Errorf("Expected cleared store, got %+v", got)
	}
}

func TestCookieSessionStore_SevenDayLaxCookie(t *testing.T) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("jar: %v", err)
	}
	store, err := NewCookieSessionStore(jar, "http://backend.test", "supabase-auth-token", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cs := store.(*cookieSessionStore)
	var captured []*http.Cookie
	cs.jar = captureJar{Jar: jar, captured: &captured}

	ctx := context.Background()
	if err := store.Save(ctx, &domain.Session{AccessToken: "a.b=c"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("Expected one cookie written, got %d", len(captured))
	}
	c := captured[0]
	if c.MaxAge != 7*24*60*60 || c.SameSite != http.SameSiteLaxMode || c.Path != "/" {
		t.Errorf("Unexpected cookie attributes %+v", c)
	}

	got, err := store.Load(ctx)
	if err != nil || got == nil || got.AccessToken != "a.b=c" {
		t.Fatalf("Expected token round trip, got %+v %v", got, err)
	}

	u, _ := url.Parse("http://backend.test/customer/chat/message")
	if cookies := jar.Cookies(u); len(cookies) != 1 {
		t.Errorf("Expected cookie to accompany backend requests, got %v", cookies)
	}

	_ = store.Clear(ctx)
	if got, _ := store.Load(ctx); got != nil {
		t.Errorf("Expected cookie removed, got %+v", got)
	}
}

type captureJar struct {
	*cookiejar.Jar
	captured *[]*http.Cookie
}

func (j captureJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.MaxAge > 0 {
			*j.captured = append(*j.captured, c)
		}
	}
	j.Jar.SetCookies(u, cookies)
}

func TestRedisSessionStore_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	store := NewRedisSessionStore(client, "supabase.auth.token", time.Hour)

	if _, err := store.Load(context.Background()); err == nil {
		t.Error("Expected load error for unreachable redis")
	}
	if err := store.Save(context.Background(), &domain.Session{AccessToken: "tok"}); err == nil {
		t.Error("Expected save error for unreachable redis")
	}
}
