package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/customer"
	"opsdesk/internal/notify"
	"opsdesk/internal/registration/models"
	"opsdesk/internal/ticket"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
	"opsdesk/pkg/platform/sentinel"
	"opsdesk/pkg/requestcontext"
)

// Provision converts exactly one approved registration into exactly one
// customer account plus one linked installation work order.
//
// The three writes and the timeline entry commit as a single unit. On a
// backend without multi-record transactions the compensating deletes unwind
// whatever already landed, so a failed attempt always leaves the
// registration approved, without a customer, and safely retryable.
func (s *Service) Provision(ctx context.Context, regID domain.RegistrationID) (domain.CustomerID, domain.TicketID, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Provision")
	defer span.End()
	start := time.Now()

	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	reg, err := s.registrations.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.CustomerID{}, domain.TicketID{}, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return domain.CustomerID{}, domain.TicketID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	fail := func(cause error) (domain.CustomerID, domain.TicketID, error) {
		s.recorder.RecordBestEffort(ctx, s.provisionEntry(ctx, reg, nil, nil, cause))
		if s.metrics != nil {
			s.metrics.RecordProvisionFailure(string(dErrors.CodeOf(cause)), start)
		}
		return domain.CustomerID{}, domain.TicketID{}, cause
	}

	rule, err := models.RuleFor(models.StatusApproved, models.StatusCustomerCreated)
	if err != nil {
		return domain.CustomerID{}, domain.TicketID{}, dErrors.Wrap(err, dErrors.CodeInternal, "provisioning rule missing")
	}
	if !rule.Permitted(actor.Role) {
		return fail(dErrors.Newf(dErrors.CodeUnauthorized, "role %s may not provision a registration", actor.Role))
	}
	if reg.Provisioned() {
		return fail(dErrors.Newf(dErrors.CodeAlreadyProvisioned,
			"registration already provisioned as customer %s", reg.CustomerID.String()))
	}
	if reg.Status != models.StatusApproved {
		return fail(dErrors.Newf(dErrors.CodePrecondition,
			"registration must be approved to provision, not %s", reg.Status))
	}

	pkg, err := s.catalog.GetPackage(ctx, reg.PackageID)
	if err != nil {
		return fail(dErrors.Wrap(err, dErrors.CodeProvisioningFailed,
			fmt.Sprintf("package %s lookup failed", reg.PackageID)))
	}

	newCustomer := &customer.Customer{
		ID:             domain.NewCustomerID(),
		RegistrationID: reg.ID,
		Name:           reg.Applicant.Name,
		Phone:          reg.Applicant.Phone,
		Email:          reg.Applicant.Email,
		Address:        reg.Applicant.Address,
		City:           reg.Applicant.City,
		District:       reg.Applicant.District,
		PostalCode:     reg.Applicant.PostalCode,
		PackageID:      pkg.ID,
		PackageName:    pkg.Name,
		PackageType:    pkg.Type,
		SpeedMbps:      pkg.SpeedMbps,
		MonthlyPrice:   pkg.MonthlyPrice,
		Status:         customer.StatusActive,
		CreatedAt:      now,
	}
	newTicket := &ticket.Ticket{
		ID:         domain.NewTicketID(),
		CustomerID: newCustomer.ID,
		Type:       ticket.TypeInstallation,
		Status:     ticket.StatusOpen,
		Subject:    fmt.Sprintf("Installation for %s (%s)", reg.Applicant.Name, reg.Number),
		Address:    reg.Applicant.Address,
		Window:     reg.PreferredWindow,
		CreatedAt:  now,
	}

	updated := *reg
	updated.ApplyCustomerCreated(newCustomer.ID, now)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context, stores TxStores) error {
		if err := stores.Customers.Create(txCtx, newCustomer); err != nil {
			return dErrors.Wrap(err, dErrors.CodeProvisioningFailed, "failed to create customer")
		}
		if err := stores.Tickets.Create(txCtx, newTicket); err != nil {
			s.compensate(txCtx, stores, newCustomer.ID, domain.TicketID{})
			return dErrors.Wrap(err, dErrors.CodeProvisioningFailed, "failed to create installation ticket")
		}
		if err := stores.Registrations.UpdateIfStatus(txCtx, &updated, models.StatusApproved); err != nil {
			s.compensate(txCtx, stores, newCustomer.ID, newTicket.ID)
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict,
					"registration moved while provisioning; re-fetch and check its customer id")
			}
			return dErrors.Wrap(err, dErrors.CodeProvisioningFailed, "failed to mark registration provisioned")
		}
		return stores.Audit.Append(txCtx, s.provisionEntry(txCtx, reg, &newCustomer.ID, &newTicket.ID, nil))
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordProvisionFailure(string(dErrors.CodeOf(err)), start)
		}
		s.recorder.RecordBestEffort(ctx, s.provisionEntry(ctx, reg, nil, nil, err))
		return domain.CustomerID{}, domain.TicketID{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordProvisionSuccess(start)
	}
	s.logger.InfoContext(ctx, "registration provisioned",
		"registration_id", reg.ID.String(),
		"number", reg.Number,
		"customer_id", newCustomer.ID.String(),
		"ticket_id", newTicket.ID.String(),
		"actor_id", actor.ID.String(),
	)
	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.Event{
			RegistrationID: updated.ID,
			Number:         updated.Number,
			FromStatus:     string(models.StatusApproved),
			ToStatus:       string(models.StatusCustomerCreated),
			CustomerID:     &newCustomer.ID,
			TicketID:       &newTicket.ID,
			Timestamp:      now,
		})
	}
	return newCustomer.ID, newTicket.ID, nil
}

// compensate unwinds partially written provisioning records. On PostgreSQL
// the enclosing rollback makes these deletes redundant; on the in-memory
// stores they are the rollback.
func (s *Service) compensate(ctx context.Context, stores TxStores, customerID domain.CustomerID, ticketID domain.TicketID) {
	if !ticketID.IsNil() {
		if err := stores.Tickets.Delete(ctx, ticketID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "compensating ticket delete failed",
				"ticket_id", ticketID.String(), "error", err)
		}
	}
	if !customerID.IsNil() {
		if err := stores.Customers.Delete(ctx, customerID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "compensating customer delete failed",
				"customer_id", customerID.String(), "error", err)
		}
	}
}

func (s *Service) provisionEntry(ctx context.Context, reg *models.Registration, customerID *domain.CustomerID, ticketID *domain.TicketID, cause error) audit.Entry {
	actor := requestcontext.Actor(ctx)
	entry := audit.Entry{
		ID:             domain.NewAuditEntryID(),
		RegistrationID: reg.ID,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		ActorRole:      actor.Role,
		Action:         audit.ActionProvision,
		FromStatus:     string(models.StatusApproved),
		ToStatus:       string(models.StatusCustomerCreated),
		Outcome:        audit.OutcomeSuccess,
		CustomerID:     customerID,
		TicketID:       ticketID,
		RequestID:      requestcontext.RequestID(ctx),
		Channel:        requestcontext.Channel(ctx),
		Timestamp:      requestcontext.Now(ctx),
	}
	if cause != nil {
		entry.Outcome = audit.OutcomeFailure
		entry.FailureKind = string(dErrors.CodeOf(cause))
		entry.Reason = dErrors.MessageOf(cause)
	}
	return entry
}
