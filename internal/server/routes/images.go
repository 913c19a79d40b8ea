package routes

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/img-hub/img-hub/internal/cache"
	"github.com/img-hub/img-hub/internal/logging"
	"github.com/img-hub/img-hub/internal/server"
)

const headerCacheHit = "X-Img-Hub-Cache-Hit"

// ImageRouteOptions 描述图片接口依赖的缓存、日志与主机白名单。
type ImageRouteOptions struct {
	Logger *logrus.Logger
	Cache  *cache.Cache
	// AllowedHosts 为空时放行所有主机。
	AllowedHosts []string
}

// RegisterImageRoutes 挂载 GET /image 接口：?url= 指定资源地址，
// ?refresh=1 时绕过命中判定强制回源。
func RegisterImageRoutes(app *fiber.App, opts ImageRouteOptions) {
	if app == nil || opts.Cache == nil {
		return
	}

	app.Get("/image", func(c fiber.Ctx) error {
		return handleImage(c, opts)
	})
}

func handleImage(c fiber.Ctx, opts ImageRouteOptions) error {
	start := time.Now()

	identifier := strings.TrimSpace(c.Query("url"))
	if identifier == "" {
		return writeError(c, fiber.StatusBadRequest, "url_required")
	}

	parsed, err := url.Parse(identifier)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return writeError(c, fiber.StatusBadRequest, "url_invalid")
	}
	if !hostAllowed(parsed, opts.AllowedHosts) {
		return writeError(c, fiber.StatusForbidden, "host_not_allowed")
	}

	force := c.Query("refresh") == "1"
	hit := !force && opts.Cache.IsCached(identifier)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	location, err := opts.Cache.Fetch(ctx, identifier, cache.FetchOptions{ForceRefresh: force})
	if err != nil {
		logImageResult(c, opts, identifier, hit, start, err)
		return renderFetchFailure(c, err)
	}

	c.Set(headerCacheHit, strconv.FormatBool(hit))
	logImageResult(c, opts, identifier, hit, start, nil)
	return c.SendFile(location)
}

// hostAllowed 对照白名单检查目标主机，条目同时匹配裸主机名与 host:port 形式。
func hostAllowed(u *url.URL, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, entry := range allowed {
		if strings.EqualFold(entry, u.Hostname()) || strings.EqualFold(entry, u.Host) {
			return true
		}
	}
	return false
}

func renderFetchFailure(c fiber.Ctx, err error) error {
	var writeErr *cache.WriteError
	if errors.As(err, &writeErr) {
		return writeError(c, fiber.StatusBadGateway, "cache_write_failed")
	}
	return writeError(c, fiber.StatusBadGateway, "fetch_failed")
}

func writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func logImageResult(c fiber.Ctx, opts ImageRouteOptions, identifier string, cacheHit bool, start time.Time, err error) {
	if opts.Logger == nil {
		return
	}

	fields := logging.ImageFields(identifier, string(opts.Cache.Key(identifier)), cacheHit)
	fields["action"] = "image"
	fields["elapsed_ms"] = time.Since(start).Milliseconds()
	if reqID := server.RequestID(c); reqID != "" {
		fields["request_id"] = reqID
	}

	if err != nil {
		opts.Logger.WithError(err).WithFields(fields).Error("image_failed")
		return
	}
	opts.Logger.WithFields(fields).Info("image_complete")
}
