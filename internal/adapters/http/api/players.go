package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/coach/internal/domain/model"
	"github.com/okian/coach/pkg/logger"
)

// PlayersHandler serves the roster and player avatars.
type PlayersHandler struct {
	players PlayerRepository
	log     logger.Logger
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(players PlayerRepository, log logger.Logger) *PlayersHandler {
	return &PlayersHandler{players: players, log: log}
}

type playerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthYear string `json:"birth_year"`
}

func (p playerRequest) form() model.PlayerForm {
	return model.PlayerForm{FirstName: p.FirstName, LastName: p.LastName, BirthYear: p.BirthYear}
}

// HandleList handles GET /players.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.players.List(r.Context())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	if list == nil {
		list = []model.Player{}
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate handles POST /players.
func (h *PlayersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	p, err := h.players.Add(r.Context(), req.form())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	w.Header().Set("Location", "/players/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

// HandleGet handles GET /players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.players.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /players/{id}.
func (h *PlayersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	p, err := h.players.Update(r.Context(), r.PathValue("id"), req.form())
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDelete handles DELETE /players/{id}.
func (h *PlayersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.players.Delete(r.Context(), r.PathValue("id")); err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePutAvatar handles PUT /players/{id}/avatar. The raw body is the image.
func (h *PlayersHandler) HandlePutAvatar(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	p, err := h.players.SetAvatar(r.Context(), r.PathValue("id"), r.Body, ct)
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetAvatar handles GET /players/{id}/avatar.
func (h *PlayersHandler) HandleGetAvatar(w http.ResponseWriter, r *http.Request) {
	info, rc, err := h.players.Avatar(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), h.log, w, err)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	if !info.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", info.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Cache-Control", "private, max-age="+strconv.Itoa(int(time.Hour.Seconds())))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn(r.Context(), "avatar copy interrupted", logger.Error(err))
	}
}
