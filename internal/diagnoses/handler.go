package diagnoses

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/handlers"
	"github.com/JaimeStill/verdant/pkg/pagination"
	"github.com/JaimeStill/verdant/pkg/pipeline"
	"github.com/JaimeStill/verdant/pkg/routes"
)

// Handler provides HTTP endpoints for diagnosis operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "diagnoses"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for diagnosis endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/diagnoses",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Diagnose},
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// Diagnose runs the diagnosis workflow for the caller and returns the stored result.
func (h *Handler) Diagnose(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	var cmd DiagnoseCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	d, err := h.sys.Diagnose(r.Context(), caller, cmd)
	if err != nil {
		h.respondDiagnoseError(w, r, cmd, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, d)
}

func (h *Handler) respondDiagnoseError(w http.ResponseWriter, r *http.Request, cmd DiagnoseCommand, err error) {
	status := MapHTTPStatus(err)

	switch {
	case status == http.StatusUnprocessableEntity && isNotPlant(err):
		handlers.RespondJSON(w, status, NotPlantResponse{
			ImageID:  cmd.ImageID,
			UserText: cmd.UserText,
			Error:    ErrNotPlant.Error(),
		})
	case status == http.StatusInternalServerError:
		step, _ := pipeline.FailedStep(err)
		h.logger.ErrorContext(r.Context(), "diagnosis failed",
			"image_id", cmd.ImageID,
			"step", step,
			"error", err,
		)
		handlers.RespondJSON(w, status, map[string]string{"error": ErrFailed.Error()})
	default:
		handlers.RespondError(w, h.logger, status, unwrapPublic(err))
	}
}

// List returns the caller's diagnoses, newest first unless sort is given.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), caller.Subject, page, filters)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list diagnoses failed", "error", err)
		handlers.RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": ErrFailed.Error()})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single diagnosis owned by the caller.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	d, err := h.sys.Find(r.Context(), id, caller.Subject)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, d)
}

// Delete removes a diagnosis owned by the caller.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.FromContext(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusUnauthorized, ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.Delete(r.Context(), id, caller.Subject); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
