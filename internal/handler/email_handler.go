package handler

import (
	"net/http"

	"edu-platform/internal/model"
	"edu-platform/internal/service"
	"edu-platform/pkg/apierror"
	"edu-platform/pkg/envelope"
)

type EmailHandler struct {
	service   *service.EmailService
	responder *envelope.Responder
}

func NewEmailHandler(service *service.EmailService, responder *envelope.Responder) *EmailHandler {
	return &EmailHandler{service: service, responder: responder}
}

func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var payload model.EmailRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		h.responder.Error(w, r, err)
		return
	}

	msg, err := h.service.Compose(payload)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}

	receipt, err := h.service.Deliver(r.Context(), msg)
	if err != nil {
		h.responder.Error(w, r, err, apierror.WithStack())
		return
	}

	envelope.SendSuccess(w, http.StatusOK, receipt, "Email sent successfully")
}
