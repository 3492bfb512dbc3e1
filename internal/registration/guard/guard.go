// Package guard decides whether one transition attempt may proceed. It is a
// pure function of the loaded record, the requested target, the submitted
// payload and the actor's role; it never mutates anything and is re-run in
// full on every attempt, including retries.
package guard

import (
	"time"

	"opsdesk/internal/registration/models"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
)

// Check validates a transition attempt against the lifecycle table.
//
// Failure order is fixed: structural legality first, then role, then payload
// shape, then payload-versus-record consistency. An unauthorized caller
// learns the edge exists but nothing about the payload rules.
func Check(reg *models.Registration, target models.Status, payload models.Payload, role domain.Role, now time.Time) (models.Rule, error) {
	rule, err := models.RuleFor(reg.Status, target)
	if err != nil {
		return models.Rule{}, err
	}
	if !rule.Permitted(role) {
		return models.Rule{}, dErrors.Newf(dErrors.CodeUnauthorized,
			"role %s may not move a registration from %s to %s", role, reg.Status, target)
	}
	if rule.Validate != nil {
		if err := rule.Validate(payload); err != nil {
			return models.Rule{}, err
		}
	}
	if rule.Precondition != nil {
		if err := rule.Precondition(reg, payload, now); err != nil {
			return models.Rule{}, err
		}
	}
	return rule, nil
}
