package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

func methodNotAllowed(w http.ResponseWriter) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// Routes builds the API mux. Static files and the index page are served from
// staticDir and indexFile when they are set.
func (h *Handlers) Routes(staticDir, indexFile string) http.Handler {
	a := h.auth
	mux := http.NewServeMux()

	if staticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	mux.HandleFunc("/api/notes", a.Middleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetNotes(w, r)
		case http.MethodPost:
			h.CreateNote(w, r)
		default:
			methodNotAllowed(w)
		}
	}, false))

	mux.HandleFunc("/api/notes/", a.Middleware(func(w http.ResponseWriter, r *http.Request) {
		_, action, _ := noteID(r.URL.Path)
		switch {
		case action == "toggle" && r.Method == http.MethodPost:
			h.ToggleNote(w, r)
		case action != "":
			http.NotFound(w, r)
		case r.Method == http.MethodGet:
			h.GetNote(w, r)
		case r.Method == http.MethodPut:
			h.UpdateNote(w, r)
		case r.Method == http.MethodDelete:
			h.DeleteNote(w, r)
		default:
			methodNotAllowed(w)
		}
	}, false))

	mux.HandleFunc("/api/tags", a.Middleware(getOnly(h.GetTags), false))
	mux.HandleFunc("/api/tags/notes", a.Middleware(getOnly(h.GetTagNotes), false))
	mux.HandleFunc("/api/tags/", a.Middleware(getOnly(h.GetTag), false))
	mux.HandleFunc("/api/colors", a.Middleware(getOnly(h.GetColors), false))
	mux.HandleFunc("/api/colors/", a.Middleware(getOnly(h.GetColor), false))

	mux.HandleFunc("/api/trash", a.Middleware(getOnly(h.GetTrash), false))
	mux.HandleFunc("/api/trash/tabs", a.Middleware(getOnly(h.GetTrashTabs), false))
	mux.HandleFunc("/api/trash/restore", a.Middleware(postOnly(h.RestoreNotes), true))
	mux.HandleFunc("/api/trash/delete", a.Middleware(postOnly(h.PermanentlyDeleteNotes), true))
	mux.HandleFunc("/api/trash/dialogs/", a.Middleware(getOnly(h.GetDialog), false))
	mux.HandleFunc("/api/trash/select/", a.Middleware(postOnly(h.SelectNote), true))
	mux.HandleFunc("/api/trash/selection", a.Middleware(getOnly(h.GetSelection), false))
	mux.HandleFunc("/api/trash/confirm/", a.Middleware(postOnly(h.ConfirmSelection), true))

	mux.HandleFunc("/api/settings", a.Middleware(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetSettings(w, r)
		case http.MethodPut:
			h.UpdateSettings(w, r)
		default:
			methodNotAllowed(w)
		}
	}, false))

	mux.HandleFunc("/contact/", a.Middleware(getOnly(h.GetVCard), false))

	mux.HandleFunc("/api/auth/check", a.Middleware(h.CheckAuth, false))
	mux.HandleFunc("/api/auth/logout", h.Logout)
	mux.HandleFunc("/auth/login", h.Login)

	if indexFile != "" {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, indexFile)
		})
	}

	return h.withRequestLog(mux)
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags every request with an id and logs its outcome.
func (h *Handlers) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.log.Debug().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func requestLogger(r *http.Request, l zerolog.Logger) *zerolog.Logger {
	scoped := l.With().Str("request_id", r.Header.Get(requestIDHeader)).Logger()
	return &scoped
}
