package routes

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/img-hub/img-hub/internal/cache"
)

// CacheRouteOptions 描述缓存诊断接口的依赖。
type CacheRouteOptions struct {
	Logger *logrus.Logger
	Cache  *cache.Cache
}

// RegisterCacheRoutes 暴露 /-/stats 与 /-/cache 诊断接口，供运维查询缓存
// 状态或手动清空缓存。
func RegisterCacheRoutes(app *fiber.App, opts CacheRouteOptions) {
	if app == nil || opts.Cache == nil {
		return
	}

	app.Get("/-/stats", func(c fiber.Ctx) error {
		return c.JSON(encodeStats(opts.Cache.Stats()))
	})

	app.Delete("/-/cache", func(c fiber.Ctx) error {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		removed, err := opts.Cache.Clear(ctx)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.WithError(err).WithFields(logrus.Fields{
					"action": "cache_clear",
				}).Error("cache_clear_failed")
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_clear_failed"})
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"removed": removed,
		})
	})
}

type statsPayload struct {
	Entries  int    `json:"entries"`
	Capacity int    `json:"capacity"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

func encodeStats(stats cache.Stats) statsPayload {
	return statsPayload{
		Entries:  stats.Entries,
		Capacity: stats.Capacity,
		Hits:     stats.Hits,
		Misses:   stats.Misses,
	}
}
