package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"phonebook/internal/auth"
	"phonebook/internal/db"
	"phonebook/internal/logger"
	"phonebook/internal/mapper"
	"phonebook/internal/models"
	"phonebook/internal/service"
	"phonebook/internal/share"
	"phonebook/internal/trash"
)

type Handlers struct {
	svc  *service.Service
	db   *db.DB
	auth *auth.Auth
	log  zerolog.Logger
}

func New(svc *service.Service, database *db.DB, a *auth.Auth, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc:  svc,
		db:   database,
		auth: a,
		log:  logger.Component(log, "http"),
	}
}

func (h *Handlers) respond(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.log.Warn().Err(err).Msg("failed to encode response")
		}
	}
}

func (h *Handlers) error(w http.ResponseWriter, message string, status int) {
	h.respond(w, map[string]string{"error": message}, status)
}

// fail maps a service error to a status code. Contract violations are
// logged as errors; they mean the reference tables and notes disagree.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	var (
		missing     *mapper.MissingReferenceError
		unsupported *trash.UnsupportedSelectorError
		transition  *trash.TransitionError
	)
	switch {
	case errors.Is(err, db.ErrNotFound):
		h.error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidNote), errors.Is(err, service.ErrNotCheckable):
		h.error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &unsupported):
		h.error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNoteNotActive), errors.Is(err, service.ErrNotInTrash), errors.As(err, &transition):
		h.error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &missing):
		requestLogger(r, h.log).Error().Err(err).Str("kind", missing.Kind).Int64("ref_id", missing.ID).Msg("reference data incomplete")
		h.error(w, message, http.StatusInternalServerError)
	default:
		requestLogger(r, h.log).Error().Err(err).Msg(message)
		h.error(w, message, http.StatusInternalServerError)
	}
}

func (h *Handlers) requireWriter(w http.ResponseWriter, r *http.Request) bool {
	if !auth.IsWriter(r) {
		h.error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

type refRequest struct {
	ID int64 `json:"id"`
}

// noteRequest accepts both the flat form (color_id, tag_id) and the shape
// notes are served in (color.id, tag.id). Fields left out keep the value of
// the note the request is applied to.
type noteRequest struct {
	Name         *string         `json:"name"`
	PhoneNumber  *string         `json:"phone_number"`
	IsCheckedOff json.RawMessage `json:"is_checked_off"`
	ColorID      int64           `json:"color_id"`
	TagID        int64           `json:"tag_id"`
	Color        *refRequest     `json:"color"`
	Tag          *refRequest     `json:"tag"`
}

func (req noteRequest) apply(n models.Note) (models.Note, error) {
	if req.Name != nil {
		n.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		n.PhoneNumber = *req.PhoneNumber
	}
	if len(req.IsCheckedOff) > 0 {
		if err := json.Unmarshal(req.IsCheckedOff, &n.CheckedOff); err != nil {
			return models.Note{}, err
		}
	}
	switch {
	case req.ColorID != 0:
		n.Color = models.Color{ID: req.ColorID}
	case req.Color != nil:
		n.Color = models.Color{ID: req.Color.ID}
	}
	switch {
	case req.TagID != 0:
		n.Tag = models.Tag{ID: req.TagID}
	case req.Tag != nil:
		n.Tag = models.Tag{ID: req.Tag.ID}
	}
	return n, nil
}

type idsRequest struct {
	IDs []int64 `json:"ids"`
}

type idsResponse struct {
	Requested []int64 `json:"requested"`
	Changed   []int64 `json:"changed"`
}

// Notes
func (h *Handlers) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.NotesNotInTrash(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get notes")
		return
	}
	h.respond(w, notes, http.StatusOK)
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	draft, err := req.apply(models.NewNote())
	if err != nil {
		h.error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.SaveNote(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err, "Failed to create note")
		return
	}
	h.respond(w, note, http.StatusCreated)
}

// noteID parses /api/notes/{id}[/action].
func noteID(path string) (int64, string, bool) {
	rest := strings.TrimPrefix(path, "/api/notes/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, action, true
}

func (h *Handlers) GetNote(w http.ResponseWriter, r *http.Request) {
	id, _, ok := noteID(r.URL.Path)
	if !ok {
		h.error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}

	note, err := h.svc.Note(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to get note")
		return
	}
	h.respond(w, note, http.StatusOK)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	id, _, ok := noteID(r.URL.Path)
	if !ok {
		h.error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.svc.Note(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to update note")
		return
	}
	draft, err := req.apply(current)
	if err != nil {
		h.error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.SaveNote(r.Context(), draft)
	if err != nil {
		h.fail(w, r, err, "Failed to update note")
		return
	}
	h.respond(w, note, http.StatusOK)
}

// DeleteNote moves the note to the trash. Permanent deletion only happens
// from the trash.
func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	id, _, ok := noteID(r.URL.Path)
	if !ok {
		h.error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}

	if err := h.svc.MoveToTrash(r.Context(), id); err != nil {
		h.fail(w, r, err, "Failed to delete note")
		return
	}
	h.respond(w, nil, http.StatusNoContent)
}

func (h *Handlers) ToggleNote(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	id, _, ok := noteID(r.URL.Path)
	if !ok {
		h.error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}

	note, err := h.svc.ToggleCheckedOff(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to toggle note")
		return
	}
	h.respond(w, note, http.StatusOK)
}

// Tags and colors
func (h *Handlers) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get tags")
		return
	}
	h.respond(w, tags, http.StatusOK)
}

// refID parses the trailing id of /api/colors/{id} and /api/tags/{id}.
func refID(path, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handlers) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := refID(r.URL.Path, "/api/tags/")
	if !ok {
		h.error(w, "Invalid tag ID", http.StatusBadRequest)
		return
	}
	tag, err := h.svc.Tag(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to get tag")
		return
	}
	h.respond(w, tag, http.StatusOK)
}

func (h *Handlers) GetColor(w http.ResponseWriter, r *http.Request) {
	id, ok := refID(r.URL.Path, "/api/colors/")
	if !ok {
		h.error(w, "Invalid color ID", http.StatusBadRequest)
		return
	}
	color, err := h.svc.Color(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to get color")
		return
	}
	h.respond(w, color, http.StatusOK)
}

func (h *Handlers) GetTagNotes(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		notes, err := h.svc.NotesWithTag(r.Context(), name)
		if err != nil {
			h.fail(w, r, err, "Failed to get notes")
			return
		}
		h.respond(w, notes, http.StatusOK)
		return
	}

	groups, err := h.svc.NotesByTag(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get notes")
		return
	}
	h.respond(w, groups, http.StatusOK)
}

func (h *Handlers) GetColors(w http.ResponseWriter, r *http.Request) {
	colors, err := h.svc.Colors(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get colors")
		return
	}
	h.respond(w, colors, http.StatusOK)
}

// Trash
func (h *Handlers) GetTrash(w http.ResponseWriter, r *http.Request) {
	tabStr := r.URL.Query().Get("tab")
	if tabStr == "" {
		notes, err := h.svc.NotesInTrash(r.Context())
		if err != nil {
			h.fail(w, r, err, "Failed to get trash")
			return
		}
		h.respond(w, notes, http.StatusOK)
		return
	}

	tab, err := strconv.Atoi(tabStr)
	if err != nil {
		h.error(w, "Invalid tab", http.StatusBadRequest)
		return
	}

	notes, err := h.svc.TrashTab(r.Context(), trash.Tab(tab))
	if err != nil {
		h.fail(w, r, err, "Failed to get trash")
		return
	}
	h.respond(w, notes, http.StatusOK)
}

type tabSummary struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GetTrashTabs lists the trash tabs with the number of notes on each.
func (h *Handlers) GetTrashTabs(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.NotesInTrash(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get trash")
		return
	}

	tabs := make([]tabSummary, 0, len(trash.Tabs()))
	for _, tab := range trash.Tabs() {
		filtered, err := trash.FilterByTab(notes, tab)
		if err != nil {
			h.fail(w, r, err, "Failed to get trash")
			return
		}
		tabs = append(tabs, tabSummary{Index: int(tab), Name: tab.String(), Count: len(filtered)})
	}
	h.respond(w, tabs, http.StatusOK)
}

func (h *Handlers) decodeIDs(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if len(req.IDs) == 0 {
		h.error(w, "ids are required", http.StatusBadRequest)
		return nil, false
	}
	return req.IDs, true
}

func (h *Handlers) RestoreNotes(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, trash.DialogRestore)
}

func (h *Handlers) PermanentlyDeleteNotes(w http.ResponseWriter, r *http.Request) {
	h.confirm(w, r, trash.DialogPermanentlyDelete)
}

func (h *Handlers) confirm(w http.ResponseWriter, r *http.Request, dialog trash.Dialog) {
	if !h.requireWriter(w, r) {
		return
	}

	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}

	changed, err := h.svc.ConfirmDialog(r.Context(), dialog, ids)
	if err != nil {
		h.fail(w, r, err, "Failed to update trash")
		return
	}
	h.respond(w, idsResponse{Requested: ids, Changed: changed}, http.StatusOK)
}

// SelectNote toggles a trashed note in the trash selection.
func (h *Handlers) SelectNote(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/trash/select/"), 10, 64)
	if err != nil {
		h.error(w, "Invalid note ID", http.StatusBadRequest)
		return
	}

	selected, err := h.svc.SelectNote(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to select note")
		return
	}
	h.respond(w, map[string]any{"id": id, "selected": selected, "selection": h.svc.SelectedNotes()}, http.StatusOK)
}

func (h *Handlers) GetSelection(w http.ResponseWriter, r *http.Request) {
	h.respond(w, map[string][]int64{"ids": h.svc.SelectedNotes()}, http.StatusOK)
}

// ConfirmSelection applies a trash dialog to the selected notes.
func (h *Handlers) ConfirmSelection(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/trash/confirm/"))
	if err != nil {
		h.error(w, "Invalid dialog", http.StatusBadRequest)
		return
	}

	requested := h.svc.SelectedNotes()
	changed, err := h.svc.ConfirmSelection(r.Context(), trash.Dialog(n))
	if err != nil {
		h.fail(w, r, err, "Failed to update trash")
		return
	}
	h.respond(w, idsResponse{Requested: requested, Changed: changed}, http.StatusOK)
}

// GetDialog returns the confirmation prompt for a trash dialog.
func (h *Handlers) GetDialog(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/trash/dialogs/"))
	if err != nil {
		h.error(w, "Invalid dialog", http.StatusBadRequest)
		return
	}
	dialog := trash.Dialog(n)

	title, err := dialog.Title()
	if err != nil {
		h.fail(w, r, err, "Failed to get dialog")
		return
	}
	text, err := dialog.Text()
	if err != nil {
		h.fail(w, r, err, "Failed to get dialog")
		return
	}
	h.respond(w, map[string]string{"title": title, "text": text}, http.StatusOK)
}

// Share
func (h *Handlers) GetVCard(w http.ResponseWriter, r *http.Request) {
	id, ok := share.ExtractNoteID(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	note, err := h.svc.Note(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Failed to export note")
		return
	}

	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+share.FileName(note)+`"`)
	if err := share.Encode(w, note); err != nil {
		requestLogger(r, h.log).Warn().Err(err).Int64("note_id", id).Msg("failed to write vcard")
	}
}

// Settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.db.GetSettings(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to get settings")
		return
	}
	h.respond(w, settings, http.StatusOK)
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireWriter(w, r) {
		return
	}

	var req models.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Theme == "" || req.Language == "" {
		h.error(w, "theme and language are required", http.StatusBadRequest)
		return
	}

	if err := h.db.SaveSettings(r.Context(), req); err != nil {
		h.fail(w, r, err, "Failed to save settings")
		return
	}
	h.respond(w, req, http.StatusOK)
}

// Auth
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.error(w, "Token is required", http.StatusBadRequest)
		return
	}

	session, err := h.auth.RedeemLoginToken(r.Context(), token)
	if err != nil {
		requestLogger(r, h.log).Warn().Err(err).Msg("login rejected")
		h.error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	h.auth.SetSessionCookie(w, session)
	http.Redirect(w, r, "../../", http.StatusFound)
}

func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	h.respond(w, map[string]bool{"authenticated": auth.IsWriter(r)}, http.StatusOK)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	h.respond(w, map[string]string{"status": "ok"}, http.StatusOK)
}
