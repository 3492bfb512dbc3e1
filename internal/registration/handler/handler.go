package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"opsdesk/internal/audit"
	"opsdesk/internal/registration/models"
	"opsdesk/internal/registration/service"
	regstore "opsdesk/internal/registration/store"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
	"opsdesk/pkg/platform/httputil"
	"opsdesk/pkg/requestcontext"
)

// Service defines the lifecycle operations the HTTP layer exposes.
type Service interface {
	Submit(ctx context.Context, input service.SubmitInput) (*models.Registration, error)
	ApplyTransition(ctx context.Context, regID domain.RegistrationID, target models.Status, payload models.Payload) (*models.Registration, error)
	Provision(ctx context.Context, regID domain.RegistrationID) (domain.CustomerID, domain.TicketID, error)
	Get(ctx context.Context, regID domain.RegistrationID) (*models.Registration, error)
	List(ctx context.Context, filter regstore.Filter) ([]models.Registration, error)
	GetTimeline(ctx context.Context, regID domain.RegistrationID) ([]audit.Entry, error)
}

// Handler wires registration endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registration handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts registration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.HandleSubmit)
		r.Get("/", h.HandleList)
		r.Route("/{registrationID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Post("/transitions", h.HandleTransition)
			r.Post("/provision", h.HandleProvision)
			r.Get("/timeline", h.HandleTimeline)
		})
	})
}

func (h *Handler) registrationID(w http.ResponseWriter, r *http.Request) (domain.RegistrationID, bool) {
	regID, err := domain.ParseRegistrationID(chi.URLParam(r, "registrationID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.RegistrationID{}, false
	}
	return regID, true
}

// HandleSubmit handles POST /registrations.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.Submit(ctx, service.SubmitInput{
		Applicant:       req.Applicant(),
		PackageID:       req.PackageID,
		PreferredWindow: req.PreferredWindow,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submission rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRegistration(reg))
}

// HandleTransition handles POST /registrations/{registrationID}/transitions.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reg, err := h.service.ApplyTransition(ctx, regID, models.Status(req.Target), req.Payload)
	if err != nil {
		h.logger.WarnContext(ctx, "transition refused",
			"request_id", requestID,
			"registration_id", regID.String(),
			"target", req.Target,
			"kind", string(dErrors.CodeOf(err)),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "transition applied",
		"request_id", requestID,
		"registration_id", regID.String(),
		"target", req.Target,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleProvision handles POST /registrations/{registrationID}/provision.
func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}

	customerID, ticketID, err := h.service.Provision(ctx, regID)
	if err != nil {
		h.logger.WarnContext(ctx, "provisioning refused",
			"request_id", requestID,
			"registration_id", regID.String(),
			"kind", string(dErrors.CodeOf(err)),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ProvisionResponse{
		CustomerID: customerID.String(),
		TicketID:   ticketID.String(),
	})
}

// HandleGet handles GET /registrations/{registrationID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	reg, err := h.service.Get(r.Context(), regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistration(reg))
}

// HandleList handles GET /registrations with an optional status filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := regstore.Filter{
		Status: models.Status(r.URL.Query().Get("status")),
	}
	regs, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := ListResponse{Registrations: make([]RegistrationResponse, 0, len(regs))}
	for i := range regs {
		resp.Registrations = append(resp.Registrations, *FromRegistration(&regs[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleTimeline handles GET /registrations/{registrationID}/timeline.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	regID, ok := h.registrationID(w, r)
	if !ok {
		return
	}
	entries, err := h.service.GetTimeline(r.Context(), regID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTimeline(regID.String(), entries))
}
