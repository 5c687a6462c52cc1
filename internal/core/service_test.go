package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{MaxSessions: 2})

	id, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if svc.Count() != 1 {
		t.Errorf("Count() = %d, want 1", svc.Count())
	}

	err = svc.Do(ctx, id, func(s *Session) error {
		_, err := s.Load("a.csv", RawTable{Header: []string{"a"}, Rows: [][]any{{"1"}}})
		return err
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	var state State
	_ = svc.Do(ctx, id, func(s *Session) error {
		state = s.State()
		return nil
	})
	if state != StateLoaded {
		t.Errorf("state = %v, want loaded", state)
	}

	if _, err := svc.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("Create() over limit error = %v, want ErrTooManySessions", err)
	}

	if err := svc.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Do(ctx, id, func(*Session) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Do(deleted) error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.Delete(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete(deleted) error = %v, want ErrSessionNotFound", err)
	}
}

func TestService_DoSerializesAccess(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{})
	id, _ := svc.Create(ctx)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		overlap bool
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Do(ctx, id, func(*Session) error {
				mu.Lock()
				inside++
				if inside > 1 {
					overlap = true
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if overlap {
		t.Error("Do() ran two callbacks for one session at the same time")
	}
}

func TestService_SharedTemplateStore(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryTemplateStore()
	svc := NewService(ServiceConfig{Templates: shared})

	a, _ := svc.Create(ctx)
	b, _ := svc.Create(ctx)

	err := svc.Do(ctx, a, func(s *Session) error {
		if _, err := s.Load("a.csv", RawTable{Header: []string{"x"}}); err != nil {
			return err
		}
		_, err := s.SaveTemplate(ctx, "shared", "")
		return err
	})
	if err != nil {
		t.Fatalf("save in session a: %v", err)
	}

	err = svc.Do(ctx, b, func(s *Session) error {
		_, err := s.Template(ctx, "shared")
		return err
	})
	if err != nil {
		t.Errorf("session b cannot see shared template: %v", err)
	}
}

func TestService_ReapIdle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceConfig{})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stale, _ := svc.Create(ctx)
	now = now.Add(time.Hour)
	fresh, _ := svc.Create(ctx)

	if got := svc.ReapIdle(30 * time.Minute); got != 1 {
		t.Errorf("ReapIdle() = %d, want 1", got)
	}
	if err := svc.Do(ctx, stale, func(*Session) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Do(stale) error = %v, want ErrSessionNotFound", err)
	}
	if err := svc.Do(ctx, fresh, func(*Session) error { return nil }); err != nil {
		t.Errorf("Do(fresh) error = %v", err)
	}
}
