package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conorfennell/flashdeck/internal/api"
	"github.com/conorfennell/flashdeck/internal/cache"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/editor"
	"github.com/conorfennell/flashdeck/internal/library"
	"github.com/conorfennell/flashdeck/internal/quiz"
	"github.com/conorfennell/flashdeck/internal/viewer"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Cache         *cache.Cache
	History       library.History
	RedirectDelay time.Duration
	SessionTTL    time.Duration
	NewTicker     quiz.NewTickerFunc
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	backend       library.Backend
	cache         *cache.Cache
	history       library.History
	redirectDelay time.Duration
	newTicker     quiz.NewTickerFunc

	sessions  *sessionStore
	router    *http.ServeMux
	templates *template.Template
}

var templateFuncs = template.FuncMap{
	"difficultyLabel": domain.DifficultyLabel,
	"formatTime":      quiz.FormatTime,
	"inc":             func(i int) int { return i + 1 },
}

// NewServer creates and configures a new server.
func NewServer(backend library.Backend, opts Options) *Server {
	tpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html"))

	if opts.RedirectDelay < 0 {
		opts.RedirectDelay = 0
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.NewTicker == nil {
		opts.NewTicker = quiz.NewStdTicker
	}

	s := &Server{
		backend:       backend,
		cache:         opts.Cache,
		history:       opts.History,
		redirectDelay: opts.RedirectDelay,
		newTicker:     opts.NewTicker,
		sessions:      newSessionStore(opts.SessionTTL),
		router:        http.NewServeMux(),
		templates:     tpl,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run evicts idle sessions until ctx is cancelled, then closes all of them.
func (s *Server) Run(ctx context.Context) {
	s.sessions.run(ctx)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("web: static assets missing: " + err.Error())
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("GET /metrics", promhttp.Handler())

	s.router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/library", http.StatusSeeOther)
	})
	s.router.HandleFunc("GET /library", s.handleGetLibrary())
	s.router.HandleFunc("POST /library/{id}/delete", s.handleDeleteSet())

	s.router.HandleFunc("GET /study/{id}", s.handleGetStudy())
	s.router.HandleFunc("POST /study/{id}/review/{action}", s.handleReviewAction())
	s.router.HandleFunc("GET /study/{id}/cards/{cardId}/edit", s.handleGetEdit())
	s.router.HandleFunc("POST /study/{id}/cards/{cardId}/edit", s.handlePostEdit())
	s.router.HandleFunc("POST /study/{id}/quiz/{action}", s.handleQuizAction())
	s.router.HandleFunc("GET /study/{id}/quiz/timer", s.handleGetTimer())
	s.router.HandleFunc("GET /study/{id}/export", s.handleExport())
}

// render executes a template into a buffer first so a failure never leaves
// a half-written page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func studyURL(id string, view library.View) string {
	return "/study/" + url.PathEscape(id) + "?view=" + view.String()
}

// foregroundPage returns the caller's page for id after pausing the quizzes
// of the session's other sets.
func (s *Server) foregroundPage(w http.ResponseWriter, r *http.Request, id string) *studyPage {
	sess := s.sessions.get(w, r)
	sess.pauseQuizzes(id)
	return s.page(sess, id)
}

// catalog returns the session's Library page model.
func (s *Server) catalog(sess *session) *library.Catalog {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.catalog == nil {
		sess.catalog = library.NewCatalog(s.backend, s.cache)
	}
	return sess.catalog
}

// page returns the session's Study page for a set, creating it on first use.
func (s *Server) page(sess *session, id string) *studyPage {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if p, ok := sess.pages[id]; ok {
		return p
	}
	p := &studyPage{
		study: library.NewStudy(id, s.backend,
			library.WithCache(s.cache),
			library.WithHistory(s.history),
			library.WithRedirectDelay(s.redirectDelay),
		),
	}
	sess.pages[id] = p
	return p
}

// ensureLoadedLocked loads the set when the page has not got it yet, and
// builds the review viewer over it. Failed and not-found loads are retried
// on each call.
func (s *Server) ensureLoadedLocked(ctx context.Context, p *studyPage) library.StudyView {
	v := p.study.Snapshot()
	if v.State != library.Loaded {
		if err := p.study.Load(ctx); err != nil {
			slog.Debug("Study load failed", "set_id", p.study.SetID(), "error", err)
		}
		v = p.study.Snapshot()
	}
	if v.State == library.Loaded && p.viewer == nil {
		p.viewer = viewer.New(v.Set.Flashcards, func(card domain.Flashcard) {
			s.openEditorLocked(p, card)
		})
	}
	return v
}

// openEditorLocked starts editing card. A save goes through the Study page
// and, once accepted, updates the viewer in place.
func (s *Server) openEditorLocked(p *studyPage, card domain.Flashcard) {
	p.editMsg = ""
	p.editor = editor.New(card, func(ctx context.Context, c domain.Flashcard) error {
		if err := p.study.SaveCard(ctx, c); err != nil {
			return err
		}
		if p.viewer != nil {
			p.viewer.UpdateCard(c)
		}
		return nil
	})
}

// openQuizLocked starts a quiz over the loaded set in the last chosen mode.
func (s *Server) openQuizLocked(p *studyPage, set domain.FlashcardSet) {
	var eng *quiz.Engine
	eng = quiz.New(set.Flashcards,
		quiz.WithMode(p.quizMode),
		quiz.WithTicker(s.newTicker, time.Second),
		quiz.OnComplete(func(results []domain.QuizResult) {
			if err := p.study.RecordQuiz(eng.Mode(), results); err != nil {
				slog.Error("Failed to record quiz", "set_id", set.ID, "error", err)
			}
		}),
	)
	p.quiz = eng
	activeQuizzes.Inc()
}

// handleGetLibrary renders the set listing. Each visit refetches, which also
// serves as Try Again after a failure.
func (s *Server) handleGetLibrary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.get(w, r)
		sess.pauseQuizzes("")
		c := s.catalog(sess)
		if err := c.Load(r.Context()); err != nil && !errors.Is(err, library.ErrBusy) {
			slog.Debug("Library load failed", "error", err)
		}
		s.render(w, http.StatusOK, "library", libraryData{View: c.View()})
	}
}

// handleDeleteSet removes a set and returns to the listing.
func (s *Server) handleDeleteSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.get(w, r)
		id := r.PathValue("id")
		if err := s.catalog(sess).Delete(r.Context(), id); err != nil {
			slog.Debug("Delete failed", "set_id", id, "error", err)
		} else {
			sess.mu.Lock()
			if p, ok := sess.pages[id]; ok {
				p.mu.Lock()
				p.closeQuizLocked()
				p.mu.Unlock()
				delete(sess.pages, id)
			}
			sess.mu.Unlock()
		}
		http.Redirect(w, r, "/library", http.StatusSeeOther)
	}
}

// handleGetStudy renders the Study page in review or quiz view.
func (s *Server) handleGetStudy() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.foregroundPage(w, r, r.PathValue("id"))
		view := library.ParseView(r.URL.Query().Get("view"))

		p.mu.Lock()
		defer p.mu.Unlock()

		v := s.ensureLoadedLocked(r.Context(), p)
		switch v.State {
		case library.NotFound:
			s.render(w, http.StatusNotFound, "not_found", notFoundData{View: v})
			return
		case library.Loaded:
		default:
			s.render(w, http.StatusBadGateway, "study", studyData{Study: v})
			return
		}

		p.study.SetView(view)
		v.View = view
		data := studyData{Study: v, Notice: p.takeNotice()}
		if view == library.QuizView {
			if p.quiz == nil {
				s.openQuizLocked(p, v.Set)
			}
			p.quiz.Resume()
			snap := p.quiz.Snapshot()
			data.Quiz = &snap
		} else {
			p.closeQuizLocked()
			data.Review = newReviewData(p.viewer)
		}
		s.render(w, http.StatusOK, "study", data)
	}
}

// handleReviewAction applies one card viewer action.
func (s *Server) handleReviewAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p := s.foregroundPage(w, r, id)

		p.mu.Lock()
		defer p.mu.Unlock()

		v := s.ensureLoadedLocked(r.Context(), p)
		if v.State != library.Loaded {
			http.Redirect(w, r, studyURL(id, library.ReviewView), http.StatusSeeOther)
			return
		}
		p.closeQuizLocked()

		switch r.PathValue("action") {
		case "next":
			p.viewer.Advance()
		case "prev":
			p.viewer.Retreat()
		case "toggle":
			p.viewer.ToggleAnswer()
		case "restart":
			p.viewer.Restart()
		case "edit":
			if p.viewer.Edit() {
				card := p.editor.Draft()
				http.Redirect(w, r, "/study/"+url.PathEscape(id)+"/cards/"+url.PathEscape(card.ID)+"/edit", http.StatusSeeOther)
				return
			}
		default:
			http.Error(w, "Unknown review action", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, studyURL(id, library.ReviewView), http.StatusSeeOther)
	}
}

// editorForLocked returns an open editor on cardID, opening one on the
// loaded copy when none is open for that card.
func (s *Server) editorForLocked(p *studyPage, set domain.FlashcardSet, cardID string) (*editor.Editor, bool) {
	if p.editor != nil && p.editor.IsOpen() && p.editor.Draft().ID == cardID {
		return p.editor, true
	}
	card, ok := set.Card(cardID)
	if !ok {
		return nil, false
	}
	s.openEditorLocked(p, card)
	return p.editor, true
}

// handleGetEdit renders the card editor.
func (s *Server) handleGetEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p := s.foregroundPage(w, r, id)

		p.mu.Lock()
		defer p.mu.Unlock()

		v := s.ensureLoadedLocked(r.Context(), p)
		if v.State != library.Loaded {
			http.Redirect(w, r, studyURL(id, library.ReviewView), http.StatusSeeOther)
			return
		}
		if p.quiz != nil {
			p.quiz.Pause()
		}
		ed, ok := s.editorForLocked(p, v.Set, r.PathValue("cardId"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		s.render(w, http.StatusOK, "edit", newEditData(v, ed, p.editMsg))
	}
}

// handlePostEdit applies the edit form. The op field picks tag changes,
// cancel or save; the text fields are applied first in every case so typed
// input survives a tag change.
func (s *Server) handlePostEdit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p := s.foregroundPage(w, r, id)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()

		v := s.ensureLoadedLocked(r.Context(), p)
		if v.State != library.Loaded {
			http.Redirect(w, r, studyURL(id, library.ReviewView), http.StatusSeeOther)
			return
		}
		if p.quiz != nil {
			p.quiz.Pause()
		}
		ed, ok := s.editorForLocked(p, v.Set, r.PathValue("cardId"))
		if !ok {
			http.NotFound(w, r)
			return
		}

		ed.SetQuestion(r.PostFormValue("question"))
		ed.SetAnswer(r.PostFormValue("answer"))
		ed.SetDifficultyText(r.PostFormValue("difficulty"))

		back := studyURL(id, library.ReviewView)
		switch r.PostFormValue("op") {
		case "add-tag":
			ed.AddTag(r.PostFormValue("new_tag"))
		case "remove-tag":
			ed.RemoveTag(r.FormValue("tag"))
		case "cancel":
			ed.Cancel()
			p.editor = nil
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		case "save", "":
			err := ed.Submit(r.Context())
			if err == nil {
				p.editor = nil
				p.notice = "Flashcard saved"
				http.Redirect(w, r, back, http.StatusSeeOther)
				return
			}
			var verr *editor.ValidationError
			switch {
			case errors.As(err, &verr):
				p.editMsg = ""
				s.render(w, http.StatusUnprocessableEntity, "edit", newEditData(v, ed, ""))
				return
			case errors.Is(err, library.ErrBusy):
				p.editMsg = "A save is already in progress"
			default:
				p.editMsg = api.UserMessage(err, "Failed to save flashcard")
			}
			s.render(w, http.StatusOK, "edit", newEditData(p.study.Snapshot(), ed, p.editMsg))
			return
		default:
			http.Error(w, "Unknown edit operation", http.StatusBadRequest)
			return
		}
		s.render(w, http.StatusOK, "edit", newEditData(v, ed, p.editMsg))
	}
}

// handleQuizAction applies one quiz action and returns to the quiz view.
func (s *Server) handleQuizAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p := s.foregroundPage(w, r, id)
		back := studyURL(id, library.QuizView)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()

		v := s.ensureLoadedLocked(r.Context(), p)
		if v.State != library.Loaded {
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}
		p.study.SetView(library.QuizView)
		if p.quiz == nil {
			s.openQuizLocked(p, v.Set)
		}
		p.quiz.Resume()

		var err error
		switch r.PathValue("action") {
		case "mode":
			m, ok := quiz.ParseMode(r.PostFormValue("mode"))
			if !ok {
				http.Error(w, "Unknown quiz mode", http.StatusBadRequest)
				return
			}
			p.quizMode = m
			p.quiz.SetMode(m)
		case "select":
			err = p.quiz.Select(r.PostFormValue("option"))
		case "answer":
			if p.quiz.State() == quiz.AnsweringFillIn {
				err = p.quiz.SetInput(r.PostFormValue("input"))
			} else if r.PostForm.Has("option") {
				err = p.quiz.Select(r.PostForm.Get("option"))
			}
			if err == nil {
				_, err = p.quiz.Submit()
			}
		case "next":
			err = p.quiz.Next()
		case "restart":
			p.quiz.Restart()
		default:
			http.Error(w, "Unknown quiz action", http.StatusBadRequest)
			return
		}
		if err != nil {
			p.notice = quizMessage(err)
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
	}
}

func quizMessage(err error) string {
	switch {
	case errors.Is(err, quiz.ErrNoAnswer):
		return "Please choose or type an answer first"
	case errors.Is(err, quiz.ErrUnknownOption):
		return "That option is not one of the choices"
	case errors.Is(err, quiz.ErrNotAnswering), errors.Is(err, quiz.ErrNotShowingResult):
		return "That action is not available right now"
	}
	return "Something went wrong"
}

// handleGetTimer renders the quiz timer fragment polled by the page.
func (s *Server) handleGetTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.page(s.sessions.get(w, r), r.PathValue("id"))

		p.mu.Lock()
		eng := p.quiz
		p.mu.Unlock()

		data := timerData{}
		if eng != nil {
			data.Active = eng.State().Answering()
			data.Elapsed = eng.Elapsed()
		}
		w.Header().Set("Cache-Control", "no-store")
		s.render(w, http.StatusOK, "timer", data)
	}
}

// handleExport downloads the set as an indented JSON file.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		p := s.page(s.sessions.get(w, r), id)

		p.mu.Lock()
		defer p.mu.Unlock()

		v := s.ensureLoadedLocked(r.Context(), p)
		if v.State == library.NotFound {
			http.NotFound(w, r)
			return
		}
		filename, data, err := p.study.Export()
		if err != nil {
			slog.Error("Failed to export flashcard set", "set_id", id, "error", err)
			http.Error(w, "Failed to export flashcard set", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)
		slog.Info("Exported flashcard set", "set_id", id, "filename", filename)
	}
}
