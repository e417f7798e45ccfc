package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisad "reviews_dashboard/internal/adapters/redis"
	"reviews_dashboard/internal/domain"
)

func newStore(t *testing.T) (*redisad.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return redisad.NewWithClient(c), mr
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	in := domain.Selection{StartYear: 2019, EndYear: 2021, Scores: domain.RestrictTo(5, 4), Behavior: "Diverse"}
	if err := s.Save(ctx, "abc", in, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got domain.Selection
	ok, err := s.Get(ctx, "abc", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.StartYear != 2019 || got.EndYear != 2021 || got.Behavior != "Diverse" {
		t.Fatalf("unexpected selection: %+v", got)
	}
	if !got.Scores.Restrict || len(got.Scores.Scores) != 2 || got.Scores.Scores[0] != 4 {
		t.Fatalf("score filter not round-tripped: %+v", got.Scores)
	}

	if err := s.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, err = s.Get(ctx, "abc", &got)
	if err != nil || ok {
		t.Fatalf("expected miss after delete, ok=%v err=%v", ok, err)
	}
}

func TestSessionStore_NoScoreFilterSurvivesRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "x", domain.Selection{StartYear: 2000, EndYear: 2001, Scores: domain.NoScoreFilter()}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	var got domain.Selection
	if ok, err := s.Get(ctx, "x", &got); err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Scores.Restrict || !got.Scores.Allows(1) {
		t.Fatalf("expected no score restriction, got %+v", got.Scores)
	}
}

func TestSessionStore_Expires(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "ttl", domain.Selection{StartYear: 2020, EndYear: 2020}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	var got domain.Selection
	if ok, _ := s.Get(ctx, "ttl", &got); ok {
		t.Fatalf("expected session to expire")
	}
}
