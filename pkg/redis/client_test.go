package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hardcastle/ledger-direct-backend/pkg/config"
)

type mockCmdable struct {
	values map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{values: map[string]string{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if value, ok := m.values[key]; ok {
		cmd.SetVal(value)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, exists := m.values[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	m.values[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	// The only script in the tree is check-and-del; emulate its semantics
	// in one step.
	if len(keys) == 1 && len(args) == 1 {
		if value, ok := m.values[keys[0]]; ok && value == fmt.Sprint(args[0]) {
			delete(m.values, keys[0])
			cmd.SetVal(int64(1))
			return cmd
		}
	}
	cmd.SetVal(int64(0))
	return cmd
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			delete(m.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func TestSetNXOnlyWinsOnce(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	ok, err := client.SetNX(ctx, "k", "owner-a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}

	ok, err = client.SetNX(ctx, "k", "owner-b", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second SetNX should lose")
	}

	value, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "owner-a" {
		t.Fatalf("expected first owner, got %q", value)
	}
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if _, err := client.Get(context.Background(), "missing"); err != redis.Nil {
		t.Fatalf("expected redis.Nil, got %v", err)
	}
}

func TestEvalDeletesOnlyMatchingOwner(t *testing.T) {
	ctx := context.Background()
	store := newMockCmdable()
	client := &Client{store: store}
	store.values["k"] = "owner-a"

	script := `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	result, err := client.Eval(ctx, script, []string{"k"}, "owner-b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != int64(0) || store.values["k"] != "owner-a" {
		t.Fatalf("mismatched owner must not delete: result=%v values=%v", result, store.values)
	}

	result, err = client.Eval(ctx, script, []string{"k"}, "owner-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != int64(1) {
		t.Fatalf("expected matching owner to delete, got %v", result)
	}
}

func TestLockKey(t *testing.T) {
	client := &Client{}
	if got := client.LockKey("payment_sync"); got != "ld:lock:payment_sync" {
		t.Fatalf("unexpected lock key %s", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither url nor address configured")
	}
}
