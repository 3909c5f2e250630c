package handlers

import (
	"errors"
	"net/http"

	analyticsvc "github.com/pkaiserui/VagusNerveReset/internal/services/analytics"
	authsvc "github.com/pkaiserui/VagusNerveReset/internal/services/auth"
	"github.com/pkaiserui/VagusNerveReset/internal/transport/http/dto"
	httperrors "github.com/pkaiserui/VagusNerveReset/internal/transport/http/errors"
)

type EventsHandler struct {
	service *analyticsvc.Service
}

func NewEventsHandler(service *analyticsvc.Service) *EventsHandler {
	return &EventsHandler{service: service}
}

func (h *EventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	h.Batch(w, r)
}

func (h *EventsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "events service is unavailable")
		return
	}

	var req dto.EventsBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	input := make([]analyticsvc.BatchEvent, 0, len(req))
	for _, item := range req {
		input = append(input, analyticsvc.BatchEvent{
			Name:  item.Name,
			TS:    item.TS,
			Props: item.Props,
		})
	}

	var userID *string
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok && identity.UserID != "" {
		uid := identity.UserID
		userID = &uid
	}

	if err := h.service.IngestBatch(r.Context(), userID, input); err != nil {
		switch {
		case errors.Is(err, analyticsvc.ErrValidation):
			writeBadRequest(w, "invalid events batch: max 100 events, each with non-empty name")
		default:
			writeInternal(w, "failed to ingest events")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.EventsBatchResponse{
		OK:       true,
		Accepted: len(input),
	})
}
