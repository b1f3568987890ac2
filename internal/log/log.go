// Package log provides action-oriented structured logging over zerolog.
// Handlers pass their fiber context so every line carries request id, ip,
// method and path; background code uses the context-free helpers.
package log

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init configures the global logger: pretty console output in
// development, plain JSON at info level otherwise.
func Init(env string) {
	if env == "production" {
		zlog.Logger = zlog.Logger.Level(zerolog.InfoLevel)
		return
	}
	zlog.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

func write(ev *zerolog.Event, c *fiber.Ctx, action string, err error, fields map[string]any) {
	if c != nil {
		ev = ev.Str("ip", c.IP()).Str("method", c.Method()).Str("path", c.Path()).
			Int("status", c.Response().StatusCode())
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ev = ev.Str("req_id", rid)
		}
	}
	if err != nil {
		ev = ev.Err(err)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(action)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zlog.Info(), c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zlog.Info().Str("kind", "audit"), c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zlog.Warn().Str("kind", "security"), c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zlog.Error(), c, action, err, fields)
}

// Event logs outside any request context.
func Event(action string, fields map[string]any) {
	write(zlog.Info(), nil, action, nil, fields)
}

// Warn logs a non-fatal failure outside any request context.
func Warn(action string, err error, fields map[string]any) {
	write(zlog.Warn(), nil, action, err, fields)
}
