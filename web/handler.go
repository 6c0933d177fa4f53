// Package web serves the task list as a small server-rendered page.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/amonks/tasklist/task"
)

// Options configures the web handler.
type Options struct {
	// Store is the task store to serve. Required.
	Store *task.Store

	// Logger receives request failures. Defaults to stderr.
	Logger *log.Logger
}

// FlashKind styles a flash message.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Handler serves the task list. It also implements task.Observer so
// store notifications become flash messages.
type Handler struct {
	store     *task.Store
	logger    *log.Logger
	mux       *http.ServeMux
	templates *template.Template

	mu      sync.Mutex
	flashes []Flash
}

// ErrNoStore is returned by NewHandler when Options.Store is nil.
var ErrNoStore = errors.New("web handler requires a task store")

// NewHandler creates a new web handler.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "tasks: ", log.LstdFlags)
	}
	handler := &Handler{
		store:     opts.Store,
		logger:    logger,
		templates: newTemplates(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", handler.handleIndex)
	mux.HandleFunc("/tasks/add", handler.handleAdd)
	mux.HandleFunc("/tasks/toggle", handler.handleToggle)
	mux.HandleFunc("/tasks/edit", handler.handleEdit)
	mux.HandleFunc("/tasks/delete", handler.handleDelete)
	mux.HandleFunc("/tasks/delete/confirm", handler.handleDeleteConfirm)
	mux.HandleFunc("/tasks/delete/cancel", handler.handleDeleteCancel)
	mux.HandleFunc("/filter", handler.handleFilter)
	handler.mux = mux
	return handler, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// TasksChanged implements task.Observer. Pages are rendered from the
// store on every request, so there is nothing to cache.
func (h *Handler) TasksChanged([]task.Task, task.Stats) {}

// ValidationFailed implements task.Observer.
func (h *Handler) ValidationFailed(reason task.Reason) {
	h.addFlash(FlashWarning, reason.Message(h.store.MaxLength()))
}

// TaskDeleted implements task.Observer.
func (h *Handler) TaskDeleted(text string) {
	h.addFlash(FlashSuccess, fmt.Sprintf("Task deleted: %q", text))
}

// PersistFailed implements task.Observer.
func (h *Handler) PersistFailed(err error) {
	h.logger.Printf("persist failed: %v", err)
	h.addFlash(FlashError, "Changes could not be saved")
}

type pageData struct {
	Filter       task.Filter
	Filters      []task.Filter
	Tasks        []task.Task
	Stats        task.Stats
	MaxLength    int
	EmptyMessage string
	Flashes      []Flash
	Pending      *task.Task
	EditingID    string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	if err := h.store.Reload(); err != nil {
		h.logger.Printf("reload tasks: %v", err)
	}

	if value := r.URL.Query().Get("filter"); value != "" {
		filter, err := task.ParseFilter(value)
		if err != nil {
			h.fail(w, r, http.StatusBadRequest, err)
			return
		}
		_ = h.store.SetFilter(filter)
	}

	filter := h.store.CurrentFilter()
	data := pageData{
		Filter:       filter,
		Filters:      task.ValidFilters(),
		Tasks:        h.store.Visible(),
		Stats:        h.store.Stats(),
		MaxLength:    h.store.MaxLength(),
		EmptyMessage: filter.EmptyMessage(),
		Flashes:      h.takeFlashes(),
		EditingID:    strings.TrimSpace(r.URL.Query().Get("edit")),
	}
	if pending, ok := h.store.PendingDelete(); ok {
		data.Pending = &pending
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "page", data); err != nil {
		h.logger.Printf("render page: %v", err)
	}
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	if _, err := h.store.Add(r.PostFormValue("text")); err == nil || errors.Is(err, task.ErrPersist) {
		h.addFlash(FlashSuccess, "Task added")
	} else {
		h.logUnlessValidation(r, err)
	}
	redirectHome(w, r)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	toggled, found, err := h.store.Toggle(queryID(r))
	if found && (err == nil || errors.Is(err, task.ErrPersist)) {
		h.addFlash(FlashSuccess, "Task marked as "+completionLabel(toggled.Completed))
	}
	redirectHome(w, r)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	id, text := queryID(r), r.PostFormValue("text")
	if existing, ok := h.store.Get(id); ok && task.NormalizeText(text) == existing.Text {
		redirectHome(w, r)
		return
	}
	_, found, err := h.store.Edit(id, text)
	switch {
	case !found:
	case err == nil || errors.Is(err, task.ErrPersist):
		h.addFlash(FlashSuccess, "Task updated")
	default:
		h.logUnlessValidation(r, err)
	}
	redirectHome(w, r)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	h.store.RequestDelete(queryID(r))
	redirectHome(w, r)
}

func (h *Handler) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	if _, _, err := h.store.ConfirmDelete(); err != nil && !errors.Is(err, task.ErrPersist) {
		h.logger.Printf("request %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	redirectHome(w, r)
}

func (h *Handler) handleDeleteCancel(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	h.store.CancelDelete()
	redirectHome(w, r)
}

func (h *Handler) handleFilter(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}
	value := r.URL.Query().Get("filter")
	if value == "" {
		value = r.PostFormValue("filter")
	}
	filter, err := task.ParseFilter(value)
	if err != nil {
		h.fail(w, r, http.StatusBadRequest, err)
		return
	}
	_ = h.store.SetFilter(filter)
	redirectHome(w, r)
}

func (h *Handler) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return false
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid form input: %w", err))
		return false
	}
	return true
}

func (h *Handler) logUnlessValidation(r *http.Request, err error) {
	if _, ok := task.ReasonFor(err); ok {
		return
	}
	h.logger.Printf("request %s %s failed: %v", r.Method, r.URL.Path, err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	h.logger.Printf("request %s %s failed (%d): %v", r.Method, r.URL.Path, status, err)
	http.Error(w, err.Error(), status)
}

func (h *Handler) addFlash(kind FlashKind, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flashes = append(h.flashes, Flash{Kind: kind, Message: message})
}

func (h *Handler) takeFlashes() []Flash {
	h.mu.Lock()
	defer h.mu.Unlock()
	flashes := h.flashes
	h.flashes = nil
	return flashes
}

func queryID(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("id"))
}

func completionLabel(completed bool) string {
	if completed {
		return "completed"
	}
	return "pending"
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeMethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
