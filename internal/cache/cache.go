// Package cache 缓存已发布的周。已发布的周不会再变化，因此不需要失效逻辑
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
)

type WeekCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
}

func NewWeekCache(rdb *redis.Client, ttl, opTimeout time.Duration) *WeekCache {
	return &WeekCache{
		rdb:       rdb,
		ttl:       ttl,
		opTimeout: opTimeout,
	}
}

func weekKey(startDate string) string {
	return fmt.Sprintf("week:%s", startDate)
}

// Get 返回缓存的周，未命中时 ok 为 false
func (c *WeekCache) Get(ctx context.Context, startDate string) (week domain.WeekView, ok bool, err error) {
	if c == nil || c.rdb == nil {
		return domain.WeekView{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	val, err := c.rdb.Get(ctx, weekKey(startDate)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.WeekView{}, false, nil
		}
		return domain.WeekView{}, false, err
	}

	if err := json.Unmarshal(val, &week); err != nil {
		return domain.WeekView{}, false, err
	}

	return week, true, nil
}

// Set 只缓存已发布的周，未发布的周仍可能变化
func (c *WeekCache) Set(ctx context.Context, week domain.WeekView) error {
	if c == nil || c.rdb == nil || !week.IsPublished || week.ID == nil {
		return nil
	}

	data, err := json.Marshal(week)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	return c.rdb.Set(ctx, weekKey(week.StartDate), data, c.ttl).Err()
}

func (c *WeekCache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	return c.rdb.Ping(ctx).Err()
}
