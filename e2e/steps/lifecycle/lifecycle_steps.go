package lifecycle

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body interface{}) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetResponseStatus() int
	LoginAs(role string) error
	GetRegistrationID() string
	SetRegistrationID(id string)
}

// RegisterSteps registers registration lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &lifecycleSteps{tc: tc}

	// Actor steps
	ctx.Step(`^I am logged in as an? "([^"]*)"$`, steps.loginAs)

	// Registration steps
	ctx.Step(`^I submit a registration for "([^"]*)" with package "([^"]*)"$`, steps.submitRegistration)
	ctx.Step(`^I save the registration id$`, steps.saveRegistrationID)
	ctx.Step(`^I move the registration to "([^"]*)"$`, steps.applyTransition)
	ctx.Step(`^I move the registration to "([^"]*)" with reason "([^"]*)"$`, steps.applyRejection)
	ctx.Step(`^I schedule the survey for "([^"]*)"$`, steps.scheduleSurvey)
	ctx.Step(`^I complete the survey with result "([^"]*)"$`, steps.completeSurvey)
	ctx.Step(`^I provision the registration$`, steps.provision)
	ctx.Step(`^I fetch the registration timeline$`, steps.fetchTimeline)

	// Assertion steps
	ctx.Step(`^the registration status should be "([^"]*)"$`, steps.assertStatus)
	ctx.Step(`^the response status should be (\d+)$`, steps.assertResponseStatus)
	ctx.Step(`^the timeline should have (\d+) entries$`, steps.assertTimelineLength)
}

type lifecycleSteps struct {
	tc TestContext
}

func (s *lifecycleSteps) loginAs(ctx context.Context, role string) error {
	return s.tc.LoginAs(role)
}

func (s *lifecycleSteps) submitRegistration(ctx context.Context, name, packageID string) error {
	body := map[string]interface{}{
		"name":       name,
		"phone":      "+62-812-555-0100",
		"address":    "Jl. Merpati 8",
		"package_id": packageID,
	}
	return s.tc.POST("/registrations", body)
}

func (s *lifecycleSteps) saveRegistrationID(ctx context.Context) error {
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetRegistrationID(id.(string))
	return nil
}

func (s *lifecycleSteps) applyTransition(ctx context.Context, target string) error {
	body := map[string]interface{}{
		"target": target,
	}
	return s.tc.POST("/registrations/"+s.tc.GetRegistrationID()+"/transitions", body)
}

func (s *lifecycleSteps) applyRejection(ctx context.Context, target, reason string) error {
	body := map[string]interface{}{
		"target": target,
		"payload": map[string]interface{}{
			"rejection_reason": reason,
		},
	}
	return s.tc.POST("/registrations/"+s.tc.GetRegistrationID()+"/transitions", body)
}

func (s *lifecycleSteps) scheduleSurvey(ctx context.Context, date string) error {
	body := map[string]interface{}{
		"target": "survey_scheduled",
		"payload": map[string]interface{}{
			"survey_scheduled_date": date,
		},
	}
	return s.tc.POST("/registrations/"+s.tc.GetRegistrationID()+"/transitions", body)
}

func (s *lifecycleSteps) completeSurvey(ctx context.Context, result string) error {
	body := map[string]interface{}{
		"target": "survey_completed",
		"payload": map[string]interface{}{
			"survey_result": result,
		},
	}
	return s.tc.POST("/registrations/"+s.tc.GetRegistrationID()+"/transitions", body)
}

func (s *lifecycleSteps) provision(ctx context.Context) error {
	return s.tc.POST("/registrations/"+s.tc.GetRegistrationID()+"/provision", nil)
}

func (s *lifecycleSteps) fetchTimeline(ctx context.Context) error {
	return s.tc.GET("/registrations/"+s.tc.GetRegistrationID()+"/timeline", nil)
}

func (s *lifecycleSteps) assertStatus(ctx context.Context, expected string) error {
	status, err := s.tc.GetResponseField("status")
	if err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected registration status %q, got %v", expected, status)
	}
	return nil
}

func (s *lifecycleSteps) assertResponseStatus(ctx context.Context, expected int) error {
	if got := s.tc.GetResponseStatus(); got != expected {
		return fmt.Errorf("expected response status %d, got %d", expected, got)
	}
	return nil
}

func (s *lifecycleSteps) assertTimelineLength(ctx context.Context, expected int) error {
	entries, err := s.tc.GetResponseField("entries")
	if err != nil {
		return err
	}
	list, ok := entries.([]interface{})
	if !ok {
		return fmt.Errorf("expected entries to be a list, got %T", entries)
	}
	if len(list) != expected {
		return fmt.Errorf("expected %d timeline entries, got %d", expected, len(list))
	}
	return nil
}
