package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDKey = "_imghub_request_id"

// AppOptions carries the dependencies shared by the whole HTTP surface.
// Route handlers themselves are mounted by the routes subpackage.
type AppOptions struct {
	Logger     *logrus.Logger
	ListenPort int
}

// NewApp assembles the Fiber application: panic recovery plus a request ID
// stamped on every response.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.ListenPort <= 0 || opts.ListenPort > 65535 {
		return nil, fmt.Errorf("listen port out of range: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		AppName:       "img-hub",
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	return app, nil
}

// requestIDMiddleware 给每个请求指派 ID；上游代理已带 X-Request-ID 时原样透传。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := string(c.Request().Header.Peek("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Locals(requestIDKey, reqID)
		c.Set("X-Request-ID", reqID)

		return c.Next()
	}
}

// RequestID 取出中间件写入的请求 ID，没有则返回空串。
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(requestIDKey); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
