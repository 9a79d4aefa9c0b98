package web

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/campsite/internal/booking"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

type errorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

type bookingResponse struct {
	BookingID string `json:"bookingId"`
}

type availabilityResponse struct {
	AvailableDates []string `json:"availableDates"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorBody{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   msg,
	})
}

// statusFor maps an engine error to its HTTP status.
func statusFor(err error) int {
	switch booking.KindOf(err) {
	case booking.KindInvalidRange:
		return http.StatusBadRequest
	case booking.KindConflict:
		return http.StatusConflict
	case booking.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// messageFor hides store internals from clients; rule violations keep their explanation.
func messageFor(err error) string {
	switch booking.KindOf(err) {
	case booking.KindInvalidRange:
		return err.Error()
	case booking.KindConflict:
		return booking.ErrConflict.Error()
	case booking.KindNotFound:
		return booking.ErrNotFound.Error()
	default:
		return "the booking service is temporarily unavailable, please retry"
	}
}

func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, statusFor(err), messageFor(err))
}

var (
	errUnsupportedMedia = errors.New("content type must be application/json")
	errEmptyBody        = errors.New("request body is required")
)

// decodeJSON reads a JSON request body into dst. It returns the HTTP status to use on failure.
func decodeJSON(r *http.Request, dst any) (int, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return http.StatusUnsupportedMediaType, errUnsupportedMedia
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return http.StatusBadRequest, err
	}
	if len(body) == 0 {
		return http.StatusBadRequest, errEmptyBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return http.StatusBadRequest, err
	}
	return 0, nil
}
