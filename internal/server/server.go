package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"document-chat/internal/api"
)

// Server wires the HTTP routes around a configured fiber app.
type Server struct {
	app  *fiber.App
	addr string
}

func New(addr string, handler *api.Handler) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	grp := app.Group("/api")
	grp.Get("/health", handler.HandleHealthy)
	grp.Get("/pdf-status", handler.HandleStatus)
	grp.Post("/upload-pdf", handler.HandleUploadPDF)
	grp.Post("/ingest-youtube", handler.HandleIngestYouTube)
	grp.Post("/pdf-chat", handler.HandleChat)
	grp.Delete("/reset-pdf", handler.HandleReset)

	return &Server{app: app, addr: addr}
}

func (s *Server) Run() error {
	return s.app.Listen(s.addr)
}

func (s *Server) Stop() error {
	return s.app.Shutdown()
}
