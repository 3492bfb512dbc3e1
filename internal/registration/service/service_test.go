package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"opsdesk/internal/audit"
	"opsdesk/internal/catalog"
	"opsdesk/internal/customer"
	"opsdesk/internal/registration/models"
	"opsdesk/internal/registration/store"
	"opsdesk/internal/ticket"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
	"opsdesk/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	registrations *store.InMemory
	customers     *customer.InMemoryStore
	tickets       *ticket.InMemoryStore
	auditStore    *audit.InMemoryStore
	service       *Service
	now           time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.registrations = store.NewInMemory()
	s.customers = customer.NewInMemoryStore()
	s.tickets = ticket.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.now = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	s.service = New(
		s.registrations,
		s.customers,
		s.tickets,
		audit.NewRecorder(s.auditStore),
		catalog.NewStatic(catalog.DefaultPackages()...),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) ctxAs(role domain.Role) context.Context {
	ctx := requestcontext.WithActor(context.Background(), domain.Actor{
		ID:   domain.ActorID(uuid.New()),
		Name: "Test Operator",
		Role: role,
	})
	ctx = requestcontext.WithTime(ctx, s.now)
	return requestcontext.WithRequestID(ctx, "req-test")
}

func (s *ServiceSuite) submit(ctx context.Context) *models.Registration {
	reg, err := s.service.Submit(ctx, SubmitInput{
		Applicant: models.Applicant{
			Name:    "Sari Wulandari",
			Phone:   "+62-815-777-888",
			Email:   "sari@example.com",
			Address: "Jl. Cemara 9",
			City:    "Semarang",
		},
		PackageID:       "pkg-home-100",
		PreferredWindow: "weekday-afternoon",
	})
	s.Require().NoError(err)
	return reg
}

// advance walks a registration along the survey path to the given status.
func (s *ServiceSuite) advance(ctx context.Context, reg *models.Registration, to models.Status) *models.Registration {
	steps := []struct {
		target  models.Status
		payload models.Payload
	}{
		{models.StatusVerified, models.Payload{}},
		{models.StatusSurveyScheduled, models.Payload{SurveyScheduledDate: "2025-06-20"}},
		{models.StatusSurveyCompleted, models.Payload{SurveyNotes: "signal OK", SurveyResult: models.SurveyFeasible}},
		{models.StatusApproved, models.Payload{}},
	}
	current := reg
	for _, step := range steps {
		if current.Status == to {
			return current
		}
		next, err := s.service.ApplyTransition(ctx, current.ID, step.target, step.payload)
		s.Require().NoError(err)
		s.Require().NoError(next.CheckInvariants())
		current = next
	}
	s.Require().Equal(to, current.Status)
	return current
}

func (s *ServiceSuite) TestSubmit() {
	ctx := s.ctxAs(domain.RoleCustomerService)

	s.Run("creates a pending registration with a dated number", func() {
		reg := s.submit(ctx)
		s.Equal(models.StatusPendingVerification, reg.Status)
		s.Regexp(`^REG-20250610-\d{6}$`, reg.Number)
		s.NoError(reg.CheckInvariants())

		entries, err := s.service.GetTimeline(ctx, reg.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(audit.ActionSubmit, entries[0].Action)
	})

	s.Run("rejects an unknown package", func() {
		_, err := s.service.Submit(ctx, SubmitInput{
			Applicant: models.Applicant{Name: "X", Phone: "1", Address: "Y"},
			PackageID: "pkg-nope",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestFullLifecycle() {
	ctx := s.ctxAs(domain.RoleSupervisor)
	reg := s.submit(ctx)

	step1, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusVerified, models.Payload{})
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, step1.Status)
	s.Require().NotNil(step1.VerifiedAt)
	s.Nil(step1.RejectedAt)

	step2, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusSurveyScheduled,
		models.Payload{SurveyScheduledDate: "2025-06-20"})
	s.Require().NoError(err)
	s.Equal(models.StatusSurveyScheduled, step2.Status)

	step3, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusSurveyCompleted,
		models.Payload{SurveyNotes: "OK", SurveyResult: models.SurveyFeasible})
	s.Require().NoError(err)
	s.Equal(models.StatusSurveyCompleted, step3.Status)

	step4, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusApproved, models.Payload{})
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, step4.Status)

	customerID, ticketID, err := s.service.Provision(ctx, reg.ID)
	s.Require().NoError(err)
	s.False(customerID.IsNil())
	s.False(ticketID.IsNil())

	final, err := s.service.Get(ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCustomerCreated, final.Status)
	s.Require().NotNil(final.CustomerID)
	s.Equal(customerID, *final.CustomerID)
	s.NoError(final.CheckInvariants())

	// Stage timestamps are monotonically non-decreasing.
	stamps := []*time.Time{final.VerifiedAt, final.SurveyScheduledAt, final.SurveyCompletedAt, final.ApprovedAt, final.CustomerCreatedAt}
	for i := 1; i < len(stamps); i++ {
		s.Require().NotNil(stamps[i])
		s.False(stamps[i].Before(*stamps[i-1]))
	}

	created, err := s.customers.FindByID(ctx, customerID)
	s.Require().NoError(err)
	s.Equal("Sari Wulandari", created.Name)
	s.Equal("Home 100", created.PackageName)
	s.Equal(100, created.SpeedMbps)

	order, err := s.tickets.FindByID(ctx, ticketID)
	s.Require().NoError(err)
	s.Equal(ticket.TypeInstallation, order.Type)
	s.Equal(ticket.StatusOpen, order.Status)
	s.Equal(customerID, order.CustomerID)

	entries, err := s.service.GetTimeline(ctx, reg.ID)
	s.Require().NoError(err)
	s.Len(entries, 6, "submit, four transitions, provision")
	s.Equal(audit.ActionProvision, entries[5].Action)
	s.Require().NotNil(entries[5].CustomerID)
	s.Equal(customerID, *entries[5].CustomerID)
}

func (s *ServiceSuite) TestFastTrackApproval() {
	ctx := s.ctxAs(domain.RoleAdmin)
	reg := s.submit(ctx)

	verified, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusVerified, models.Payload{})
	s.Require().NoError(err)

	approved, err := s.service.ApplyTransition(ctx, verified.ID, models.StatusApproved, models.Payload{})
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Nil(approved.SurveyScheduledAt, "fast track skips the survey")
}

func (s *ServiceSuite) TestTransitionRefusals() {
	s.Run("unknown registration is not found", func() {
		ctx := s.ctxAs(domain.RoleAdmin)
		_, err := s.service.ApplyTransition(ctx, domain.NewRegistrationID(), models.StatusVerified, models.Payload{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unauthorized role changes nothing and is audited", func() {
		adminCtx := s.ctxAs(domain.RoleAdmin)
		reg := s.submit(adminCtx)

		techCtx := s.ctxAs(domain.RoleTechnician)
		_, err := s.service.ApplyTransition(techCtx, reg.ID, models.StatusVerified, models.Payload{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		unchanged, getErr := s.service.Get(adminCtx, reg.ID)
		s.Require().NoError(getErr)
		s.Equal(models.StatusPendingVerification, unchanged.Status)
		s.Nil(unchanged.VerifiedAt, "no stage timestamp on a refused attempt")
		s.NoError(unchanged.CheckInvariants())

		entries, err := s.service.GetTimeline(adminCtx, reg.ID)
		s.Require().NoError(err)
		s.Require().Len(entries, 2)
		refused := entries[1]
		s.Equal(audit.OutcomeFailure, refused.Outcome)
		s.Equal(string(dErrors.CodeUnauthorized), refused.FailureKind)
	})

	s.Run("infeasible survey blocks approval and leaves status unchanged", func() {
		ctx := s.ctxAs(domain.RoleSupervisor)
		reg := s.submit(ctx)
		s.advance(ctx, reg, models.StatusSurveyScheduled)

		completed, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusSurveyCompleted,
			models.Payload{SurveyNotes: "blocked line of sight", SurveyResult: models.SurveyInfeasible})
		s.Require().NoError(err)

		_, err = s.service.ApplyTransition(ctx, completed.ID, models.StatusApproved, models.Payload{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodePrecondition))

		unchanged, getErr := s.service.Get(ctx, reg.ID)
		s.Require().NoError(getErr)
		s.Equal(models.StatusSurveyCompleted, unchanged.Status)
		s.Nil(unchanged.ApprovedAt)
	})

	s.Run("missing rejection reason fails validation", func() {
		ctx := s.ctxAs(domain.RoleAdmin)
		reg := s.submit(ctx)
		_, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusRejected, models.Payload{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// staleStore returns a fixed snapshot from FindByID, simulating an operator
// holding a stale read while another operator has already moved the record.
type staleStore struct {
	store.Store
	snapshot models.Registration
}

func (s *staleStore) FindByID(_ context.Context, _ domain.RegistrationID) (*models.Registration, error) {
	reg := s.snapshot
	return &reg, nil
}

func (s *ServiceSuite) TestConflictOnStaleRead() {
	ctx := s.ctxAs(domain.RoleAdmin)
	reg := s.submit(ctx)

	// Another operator verifies first.
	_, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusVerified, models.Payload{})
	s.Require().NoError(err)

	// This operator still sees pending_verification and tries to reject.
	stale := &staleStore{Store: s.registrations, snapshot: *reg}
	staleService := New(stale, s.customers, s.tickets, audit.NewRecorder(s.auditStore),
		catalog.NewStatic(catalog.DefaultPackages()...),
		WithTx(NewMemoryTx(TxStores{
			Registrations: s.registrations,
			Customers:     s.customers,
			Tickets:       s.tickets,
			Audit:         s.auditStore,
		})),
	)

	_, err = staleService.ApplyTransition(ctx, reg.ID, models.StatusRejected,
		models.Payload{RejectionReason: "duplicate request"})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))

	current, err := s.service.Get(ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, current.Status, "losing write must not land")
}

func (s *ServiceSuite) TestConcurrentTransitions() {
	ctx := s.ctxAs(domain.RoleAdmin)
	reg := s.submit(ctx)

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []models.Status{models.StatusVerified, models.StatusRejected}
	payloads := []models.Payload{{}, {RejectionReason: "out of coverage"}}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.service.ApplyTransition(ctx, reg.ID, targets[i], payloads[i])
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	s.Equal(1, successes, "exactly one racing transition wins")

	final, err := s.service.Get(ctx, reg.ID)
	s.Require().NoError(err)
	s.NoError(final.CheckInvariants())
	s.Contains([]models.Status{models.StatusVerified, models.StatusRejected}, final.Status)
}

func (s *ServiceSuite) TestProvisionIdempotency() {
	ctx := s.ctxAs(domain.RoleCustomerService)
	reg := s.submit(ctx)
	s.advance(ctx, reg, models.StatusApproved)

	customerID, ticketID, err := s.service.Provision(ctx, reg.ID)
	s.Require().NoError(err)
	s.False(customerID.IsNil())
	s.False(ticketID.IsNil())

	_, _, err = s.service.Provision(ctx, reg.ID)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeAlreadyProvisioned))

	s.Equal(1, s.customers.Count(), "no second customer")
	s.Equal(1, s.tickets.Count(), "no second ticket")
}

func (s *ServiceSuite) TestProvisionPreconditions() {
	ctx := s.ctxAs(domain.RoleAdmin)

	s.Run("requires approved status", func() {
		reg := s.submit(ctx)
		_, _, err := s.service.Provision(ctx, reg.ID)
		s.True(dErrors.HasCode(err, dErrors.CodePrecondition))
	})

	s.Run("requires a permitted role", func() {
		reg := s.submit(ctx)
		s.advance(ctx, reg, models.StatusApproved)

		_, _, err := s.service.Provision(s.ctxAs(domain.RoleFinance), reg.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown registration is not found", func() {
		_, _, err := s.service.Provision(ctx, domain.NewRegistrationID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// failingTicketStore fails every Create, simulating an outage in the
// ticketing backend mid-provisioning.
type failingTicketStore struct {
	*ticket.InMemoryStore
}

func (f *failingTicketStore) Create(context.Context, *ticket.Ticket) error {
	return dErrors.New(dErrors.CodeInternal, "ticket backend unavailable")
}

func (s *ServiceSuite) TestProvisionRollbackOnPartialFailure() {
	ctx := s.ctxAs(domain.RoleAdmin)

	broken := &failingTicketStore{InMemoryStore: s.tickets}
	svc := New(s.registrations, s.customers, broken, audit.NewRecorder(s.auditStore),
		catalog.NewStatic(catalog.DefaultPackages()...))

	reg := s.submit(ctx)
	s.advance(ctx, reg, models.StatusApproved)

	_, _, err := svc.Provision(ctx, reg.ID)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeProvisioningFailed))

	after, getErr := svc.Get(ctx, reg.ID)
	s.Require().NoError(getErr)
	s.Equal(models.StatusApproved, after.Status, "registration left retryable")
	s.Nil(after.CustomerID)
	s.NoError(after.CheckInvariants())
	s.Equal(0, s.customers.Count(), "customer write compensated away")

	// Retry against a healthy ticket store succeeds.
	customerID, _, err := s.service.Provision(ctx, reg.ID)
	s.Require().NoError(err)
	s.False(customerID.IsNil())
}

func (s *ServiceSuite) TestTimelineForUnknownRegistration() {
	ctx := s.ctxAs(domain.RoleAdmin)
	_, err := s.service.GetTimeline(ctx, domain.NewRegistrationID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestApplyTransitionDelegatesProvisioning() {
	ctx := s.ctxAs(domain.RoleSupervisor)
	reg := s.submit(ctx)
	s.advance(ctx, reg, models.StatusApproved)

	final, err := s.service.ApplyTransition(ctx, reg.ID, models.StatusCustomerCreated, models.Payload{})
	s.Require().NoError(err)
	s.Equal(models.StatusCustomerCreated, final.Status)
	s.NotNil(final.CustomerID)
	s.Equal(1, s.customers.Count())
}

func (s *ServiceSuite) TestList() {
	ctx := s.ctxAs(domain.RoleAdmin)
	first := s.submit(ctx)
	second := s.submit(ctx)
	_, err := s.service.ApplyTransition(ctx, second.ID, models.StatusVerified, models.Payload{})
	s.Require().NoError(err)

	all, err := s.service.List(ctx, store.Filter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	pending, err := s.service.List(ctx, store.Filter{Status: models.StatusPendingVerification})
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(first.ID, pending[0].ID)

	_, err = s.service.List(ctx, store.Filter{Status: models.Status("bogus")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
