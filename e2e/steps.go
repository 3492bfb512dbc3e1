package e2e

import (
	"github.com/cucumber/godog"

	"opsdesk/e2e/steps/lifecycle"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc lifecycle.TestContext) {
	lifecycle.RegisterSteps(ctx, tc)
}
