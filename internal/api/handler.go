package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"document-chat/internal/models"
	"document-chat/internal/parser"
)

// Ingestor manages the single active corpus.
type Ingestor interface {
	Ingest(ctx context.Context, kind models.CorpusKind, rawText string, meta models.Metadata) (int, error)
	Reset()
	Status() models.Status
}

// AnswerStream delivers answer fragments as the model produces them. Err is
// valid only after the fragment channel is closed.
type AnswerStream interface {
	Fragments() <-chan string
	Err() error
}

// Answerer runs a retrieval-augmented query against the active corpus.
type Answerer interface {
	Answer(ctx context.Context, question string) (AnswerStream, error)
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type YouTubeIngestRequest struct {
	Transcript string `json:"transcript" validate:"required"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Duration   string `json:"duration"`
}

type Handler struct {
	ingestor Ingestor
	answerer Answerer
	validate *validator.Validate
}

func NewHandler(ingestor Ingestor, answerer Answerer) *Handler {
	return &Handler{
		ingestor: ingestor,
		answerer: answerer,
		validate: validator.New(),
	}
}

// HandleUploadPDF accepts a multipart PDF upload, extracts its text and
// replaces the active corpus with it.
func (h *Handler) HandleUploadPDF(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest("missing file field")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return ErrBadRequest("only PDF files are supported")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	text, err := parser.ExtractPDF(f, fileHeader.Size)
	if err != nil {
		return ErrBadRequest(fmt.Sprintf("failed to read PDF: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return ErrBadRequest("no extractable text found in PDF")
	}

	count, err := h.ingestor.Ingest(c.Context(), models.KindPDF, text, models.Metadata{
		Title: fileHeader.Filename,
	})
	if err != nil {
		return err
	}

	log.Info().Str("filename", fileHeader.Filename).Int("chunks", count).Msg("PDF indexed")

	return c.JSON(fiber.Map{
		"message":      "PDF uploaded and indexed successfully",
		"filename":     fileHeader.Filename,
		"chunks_count": count,
	})
}

// HandleIngestYouTube replaces the active corpus with a video transcript.
func (h *Handler) HandleIngestYouTube(c *fiber.Ctx) error {
	var req YouTubeIngestRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest("invalid request body")
	}
	if err := h.validateStruct(req); err != nil {
		return err
	}

	count, err := h.ingestor.Ingest(c.Context(), models.KindYouTube, req.Transcript, models.Metadata{
		Title:    req.Title,
		Author:   req.Author,
		Duration: req.Duration,
	})
	if err != nil {
		return err
	}

	log.Info().Str("title", req.Title).Int("chunks", count).Msg("Transcript indexed")

	return c.JSON(fiber.Map{
		"message":      "Transcript indexed successfully",
		"chunks_count": count,
	})
}

// HandleChat answers a question against the active corpus, streaming the
// answer as plain text fragments.
func (h *Handler) HandleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrBadRequest("invalid request body")
	}
	if err := h.validateStruct(req); err != nil {
		return err
	}

	// The request context only ends on server shutdown, so a disconnecting
	// client cannot unblock the producing goroutine by itself. The writer
	// owns this cancel and releases the generation call when it stops
	// consuming, for any reason.
	ctx, cancel := context.WithCancel(c.Context())

	st, err := h.answerer.Answer(ctx, req.Message)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for fr := range st.Fragments() {
			if _, werr := w.WriteString(fr); werr != nil {
				break
			}
			if werr := w.Flush(); werr != nil {
				break
			}
		}
		cancel()
		// Drain until the producer observes the cancellation and closes.
		for range st.Fragments() {
		}
		if serr := st.Err(); serr != nil {
			log.Error().Err(serr).Msg("Answer stream aborted")
		}
	})
	return nil
}

func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	st := h.ingestor.Status()
	resp := fiber.Map{
		"pdf_uploaded": st.Active,
		"chunks_count": st.ChunkCount,
	}
	if st.Active {
		resp["kind"] = st.Kind
	}
	return c.JSON(resp)
}

func (h *Handler) HandleReset(c *fiber.Ctx) error {
	h.ingestor.Reset()
	return c.JSON(fiber.Map{"message": "PDF state reset successfully"})
}

func (h *Handler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *Handler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	errs := make(map[string]string)
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		for _, fe := range invalid {
			errs[strings.ToLower(fe.Field())] = fmt.Sprintf("failed on %q", fe.Tag())
		}
	} else {
		errs["request"] = err.Error()
	}
	return NewValidationError(errs)
}
