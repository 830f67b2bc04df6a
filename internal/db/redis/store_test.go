package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/cardex/internal/db"
)

// --- client.go tests ---

func TestNewStore_NoAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestWaitForReady_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 250*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisString("hello")))

	s := NewStoreForTest(c)
	got, err := s.Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want hello", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.ErrorResult(errors.New("boom")))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "v", "EX", "60")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.SetWithTTL(context.Background(), "mykey", []byte("v"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "mykey"
		})).
		Return(mock.ErrorResult(errors.New("readonly")))

	s := NewStoreForTest(c)
	err := s.SetWithTTL(context.Background(), "mykey", []byte("v"), time.Minute)
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %v", err)
	}
}

// --- helpers ---

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
