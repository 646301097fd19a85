package portfolio

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	authapi "folio/cmd/internal/auth/api"
	"folio/cmd/internal/blob"
)

// Handler serves the project and tag endpoints. Reads are public; every
// mutation goes through the bearer gate supplied at registration.
type Handler struct {
	log   *slog.Logger
	cfg   authapi.Config
	store Store
	blobs blob.Store
}

// NewHandler constructs a portfolio Handler.
func NewHandler(log *slog.Logger, cfg authapi.Config, store Store, blobs blob.Store) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, cfg: cfg, store: store, blobs: blobs}
}

// Register wires the portfolio routes onto mux, wrapping mutations in gate.
func (h *Handler) Register(mux *http.ServeMux, gate func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/projects", h.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", h.handleGetProject)
	mux.Handle("POST /api/projects", gate(http.HandlerFunc(h.handleCreateProject)))
	mux.Handle("PUT /api/projects/{id}", gate(http.HandlerFunc(h.handleUpdateProject)))
	mux.Handle("PUT /api/projects/{id}/upload", gate(http.HandlerFunc(h.handleUploadImage)))
	mux.Handle("DELETE /api/projects/{id}", gate(http.HandlerFunc(h.handleDeleteProject)))

	mux.HandleFunc("GET /api/tags", h.handleListTags)
	mux.HandleFunc("GET /api/tags/{id}", h.handleGetTag)
	mux.Handle("POST /api/tags", gate(http.HandlerFunc(h.handleCreateTag)))
	mux.Handle("PUT /api/tags/{id}", gate(http.HandlerFunc(h.handleUpdateTag)))
	mux.Handle("DELETE /api/tags/{id}", gate(http.HandlerFunc(h.handleDeleteTag)))
}

type projectRequest struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Link        string   `json:"link"`
	Tags        []string `json:"tags"`
}

type tagRequest struct {
	Name string `json:"name"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ---- projects ----

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		h.log.Error("portfolio.projects.list.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeProjectError(w, err, "Project not found")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeProjectInput(w, r)
	if !ok {
		return
	}

	p, err := h.store.CreateProject(r.Context(), in)
	if err != nil {
		h.log.Error("portfolio.projects.create.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeProjectInput(w, r)
	if !ok {
		return
	}

	p, err := h.store.UpdateProject(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeProjectError(w, err, "Project not found!")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, p)
}

// handleUploadImage accepts a multipart form with an "image" field and
// stores the file through the blob store. A request without a file clears
// the project's image, mirroring the replace-with-empty behavior of the
// original upload flow.
func (h *Handler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.store.GetProject(r.Context(), id); err != nil {
		h.writeProjectError(w, err, "Project not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	image := ""
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		stored, saveErr := h.blobs.Save(r.Context(), header.Filename, file)
		if saveErr != nil {
			h.log.Error("portfolio.projects.upload.fail", "err", saveErr, "project_id", id)
			authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		image = stored
	case errors.Is(err, http.ErrMissingFile):
		// No file: clear the image.
	default:
		authapi.WriteError(w, http.StatusBadRequest, "Invalid upload request")
		return
	}

	p, err := h.store.SetProjectImage(r.Context(), id, image)
	if err != nil {
		h.writeProjectError(w, err, "Project not found")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		h.writeProjectError(w, err, "Project not found")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, messageResponse{Message: "Project deleted successfully!"})
}

func (h *Handler) decodeProjectInput(w http.ResponseWriter, r *http.Request) (ProjectInput, bool) {
	var req projectRequest
	if err := authapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return ProjectInput{}, false
	}

	title := strings.TrimSpace(req.Title)
	summary := strings.TrimSpace(req.Summary)
	description := strings.TrimSpace(req.Description)
	if title == "" || summary == "" || description == "" {
		authapi.WriteError(w, http.StatusBadRequest, "Project title, summary and description are required!")
		return ProjectInput{}, false
	}

	return ProjectInput{
		Title:       title,
		Summary:     summary,
		Description: description,
		Link:        strings.TrimSpace(req.Link),
		Tags:        req.Tags,
	}, true
}

func (h *Handler) writeProjectError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, ErrNotFound) {
		authapi.WriteError(w, http.StatusNotFound, notFoundMsg)
		return
	}
	h.log.Error("portfolio.projects.fail", "err", err)
	authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// ---- tags ----

func (h *Handler) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		h.log.Error("portfolio.tags.list.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, tags)
}

func (h *Handler) handleGetTag(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.GetTag(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeTagError(w, err, "Tag not found")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeTagName(w, r)
	if !ok {
		return
	}

	t, err := h.store.CreateTag(r.Context(), name)
	if err != nil {
		h.writeTagError(w, err, "Tag not found")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	name, ok := h.decodeTagName(w, r)
	if !ok {
		return
	}

	t, err := h.store.UpdateTag(r.Context(), r.PathValue("id"), name)
	if err != nil {
		h.writeTagError(w, err, "Tag not found!")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		h.writeTagError(w, err, "Tag not found")
		return
	}
	authapi.WriteJSON(w, http.StatusOK, messageResponse{Message: "Tag deleted successfully!"})
}

func (h *Handler) decodeTagName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req tagRequest
	if err := authapi.DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		authapi.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		authapi.WriteError(w, http.StatusBadRequest, "Tag name is required!")
		return "", false
	}
	return name, true
}

func (h *Handler) writeTagError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		authapi.WriteError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, ErrConflict):
		authapi.WriteError(w, http.StatusBadRequest, "Tag name must be unique!")
	default:
		h.log.Error("portfolio.tags.fail", "err", err)
		authapi.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
