// Package webserver hosts the embedded browser UI
package webserver

import (
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

//go:embed web
var webFS embed.FS

// NewApp builds the UI app; apiURL is handed to the page through /config
func NewApp(apiURL string) (*fiber.App, error) {
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, fmt.Errorf("failed to create web sub-filesystem: %w", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	})

	app.Use(logger.New(logger.Config{
		Format: "${time} WEB ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())

	// Served before the static handler
	app.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"apiUrl": apiURL,
		})
	})

	app.Get("*", func(c *fiber.Ctx) error {
		fsPath := strings.TrimPrefix(c.Path(), "/")
		if fsPath == "" {
			fsPath = "index.html"
		}

		data, err := fs.ReadFile(webContent, fsPath)
		if err != nil {
			// Single page: unknown paths get the page itself
			fsPath = "index.html"
			if data, err = fs.ReadFile(webContent, fsPath); err != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("index.html not found")
			}
		}

		c.Set(fiber.HeaderContentType, contentType(fsPath))
		return c.Send(data)
	})

	return app, nil
}

// Start serves the UI until the listener fails
func Start(host string, port int, apiURL string) (*fiber.App, <-chan error) {
	errCh := make(chan error, 1)
	app, err := NewApp(apiURL)
	if err != nil {
		errCh <- err
		return nil, errCh
	}

	go func() {
		errCh <- app.Listen(fmt.Sprintf("%s:%d", host, port))
	}()
	return app, errCh
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
