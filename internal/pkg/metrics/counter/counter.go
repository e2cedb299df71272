package counter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const shareViewsKey = "history:counters:views"

// ViewSink receives drained view increments keyed by share slug.
type ViewSink interface {
	AddViews(increments map[string]int64) error
}

// Counter buffers share page views in a Redis hash and periodically flushes
// them to the database in one batch.
type Counter struct {
	client *redis.Client
}

func New(client *redis.Client) *Counter {
	return &Counter{client: client}
}

// AddShareView increments the pending view counter for a shared proposal
func (c *Counter) AddShareView(ctx context.Context, slug string) error {
	return c.client.HIncrBy(ctx, shareViewsKey, slug, 1).Err()
}

// Pending returns the not yet flushed views of slug.
func (c *Counter) Pending(ctx context.Context, slug string) (int64, error) {
	n, err := c.client.HGet(ctx, shareViewsKey, slug).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Flush drains the hash atomically and applies the increments to sink.
// Uses RENAME to a temporary key so in-flight increments are never lost.
func (c *Counter) Flush(ctx context.Context, sink ViewSink) (int, error) {
	tmpKey := fmt.Sprintf("%s:tmp:%d", shareViewsKey, time.Now().UnixNano())
	if err := c.client.Rename(ctx, shareViewsKey, tmpKey).Err(); err != nil {
		// Nothing to flush when the hash does not exist
		if strings.Contains(strings.ToLower(err.Error()), "no such key") || errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer c.client.Del(ctx, tmpKey)

	data, err := c.client.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return 0, err
	}

	increments := make(map[string]int64, len(data))
	for slug, v := range data {
		inc, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil || inc == 0 {
			continue
		}
		increments[slug] = inc
	}
	if len(increments) == 0 {
		return 0, nil
	}

	if err := sink.AddViews(increments); err != nil {
		return 0, err
	}
	return len(increments), nil
}
