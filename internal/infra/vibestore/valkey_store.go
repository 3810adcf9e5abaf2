package vibestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/wanderwise/internal/domain/vibe"
)

// ValkeyStore caches quick prompts in a Valkey-compatible database so
// multiple instances share one prompt cache per mood.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a prompt cache backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "vibe"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) GetPrompts(ctx context.Context, mood string) ([]string, bool, error) {
	if mood == "" {
		return nil, false, nil
	}
	cmd := s.client.B().Get().Key(s.promptKey(mood)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var prompts []string
	if err := json.Unmarshal([]byte(payload), &prompts); err != nil {
		return nil, false, err
	}
	return prompts, true, nil
}

func (s *ValkeyStore) SavePrompts(ctx context.Context, mood string, prompts []string) error {
	if mood == "" {
		return nil
	}
	payload, err := json.Marshal(prompts)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.promptKey(mood)).Value(string(payload))
	var cmd valkey.Completed
	if s.ttl > 0 {
		ttl := s.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) promptKey(mood string) string {
	return fmt.Sprintf("%s:prompts:%s", s.prefix, mood)
}

var _ vibe.Store = (*ValkeyStore)(nil)
