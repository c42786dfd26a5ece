package telegram

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Resolver maps public @handles to user ids through the Bot API
type Resolver struct {
	bot   Sender
	cache *lru.Cache[string, int64]
}

// NewResolver creates a resolver caching up to size handles
func NewResolver(bot Sender, size int) (*Resolver, error) {
	cache, err := lru.New[string, int64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create handle cache: %w", err)
	}
	return &Resolver{bot: bot, cache: cache}, nil
}

// ResolveHandle returns the id behind handle. Handles are case-insensitive.
func (r *Resolver) ResolveHandle(ctx context.Context, handle string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	key := strings.ToLower(strings.TrimPrefix(handle, "@"))
	if id, ok := r.cache.Get(key); ok {
		return id, nil
	}

	chat, err := r.bot.ChatByUsername("@" + key)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", handle, err)
	}

	r.cache.Add(key, chat.ID)
	return chat.ID, nil
}
