package handler

import (
	"errors"
	"net/http"

	"github.com/Stewz00/go-login-guard/internal/model"
	"github.com/Stewz00/go-login-guard/internal/service"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	officials *service.OfficialService
	log       zerolog.Logger
}

func NewUserHandler(officials *service.OfficialService, log zerolog.Logger) *UserHandler {
	return &UserHandler{officials: officials, log: log}
}

// LeadOfficials resolves the user_id query value to (id, name) pairs
func (h *UserHandler) LeadOfficials(w http.ResponseWriter, r *http.Request) {
	officials, err := h.officials.LeadOfficials(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) {
			sendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.log.Error().Err(err).Msg("lead officials lookup failed")
		sendJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}
	sendJSON(w, struct {
		Data []*model.Official `json:"data"`
	}{Data: officials}, http.StatusOK)
}
