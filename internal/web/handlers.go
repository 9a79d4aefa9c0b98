package web

import (
	"net/http"
	"strings"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/calendar"
)

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawStart := strings.TrimSpace(q.Get("start"))
	if rawStart == "" {
		writeError(w, r, http.StatusBadRequest, "start is required")
		return
	}
	start, err := calendar.Parse(rawStart)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "start: "+err.Error())
		return
	}

	var end *calendar.Date
	if rawEnd := strings.TrimSpace(q.Get("end")); rawEnd != "" {
		d, err := calendar.Parse(rawEnd)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "end: "+err.Error())
			return
		}
		end = &d
	}

	days, err := s.Projector.Query(r.Context(), start, end)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	resp := availabilityResponse{AvailableDates: make([]string, 0, len(days))}
	for _, d := range days {
		resp.AvailableDates = append(resp.AvailableDates, d.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if status, err := decodeJSON(r, &req); err != nil {
		writeError(w, r, status, err.Error())
		return
	}
	req.Name, req.Email = strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.Engine.Create(r.Context(), req.Name, req.Email, *req.Start, *req.End)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{BookingID: id.String()})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := booking.ParseExternalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid UUID")
		return
	}

	var req updateRequest
	if status, err := decodeJSON(r, &req); err != nil {
		writeError(w, r, status, err.Error())
		return
	}
	req.Name, req.Email = trimmed(req.Name), trimmed(req.Email)
	if err := validateRequest(req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	_, err = s.Engine.Update(r.Context(), id, booking.Changes{
		GuestName:    req.Name,
		GuestContact: req.Email,
		Start:        req.Start,
		End:          req.End,
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{BookingID: id.String()})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := booking.ParseExternalID(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid UUID")
		return
	}

	cancelled, err := s.Engine.Cancel(r.Context(), id)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bookingResponse{BookingID: cancelled.String()})
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
