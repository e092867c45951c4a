package handlers

import (
	"context"
	"io"
	"net/http"

	"spandi-backend/internal/flows"
	"spandi-backend/internal/models"
)

// Palm photos arrive inline as data URIs.
const maxReadingBody = 10 << 20

type readingService interface {
	Horoscope(ctx context.Context, in flows.HoroscopeInput) (flows.Reading, error)
	Palm(ctx context.Context, in flows.PalmInput) (flows.Reading, error)
	Roast(ctx context.Context, in flows.RoastInput) (flows.RoastOutput, error)
	Astronomer(ctx context.Context, in flows.AstronomerInput) (flows.AstronomerOutput, error)
}

type renderer interface {
	Render() string
}

type ReadingHandler struct {
	readingService readingService
}

func NewReadingHandler(readingService readingService) *ReadingHandler {
	return &ReadingHandler{readingService: readingService}
}

// Horoscope POST /api/v1/horoscope
func (h *ReadingHandler) Horoscope(w http.ResponseWriter, r *http.Request) {
	serveReading(w, r, "getHoroscope", h.readingService.Horoscope)
}

// Palm POST /api/v1/palm
func (h *ReadingHandler) Palm(w http.ResponseWriter, r *http.Request) {
	serveReading(w, r, "readPalm", h.readingService.Palm)
}

// Roast POST /api/v1/roast
func (h *ReadingHandler) Roast(w http.ResponseWriter, r *http.Request) {
	serveReading(w, r, "roastFollowUp", h.readingService.Roast)
}

// Astronomer POST /api/v1/astronomer
func (h *ReadingHandler) Astronomer(w http.ResponseWriter, r *http.Request) {
	serveReading(w, r, "astronomerResponse", h.readingService.Astronomer)
}

func serveReading[In flows.Input, Out renderer](
	w http.ResponseWriter,
	r *http.Request,
	flow string,
	call func(context.Context, In) (Out, error),
) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReadingBody))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("VALIDATION_ERROR", "Request body too large", r))
		return
	}

	in, err := flows.DecodeInput[In](flow, body)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out, err := call(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ReadingResponse{Result: out, Text: out.Render()})
}
