package provision

import (
	"errors"
	"fmt"
)

// Step names one stage of the tenant creation flow. Creation is linear:
//
//	Registering → ProvisioningDatabase → Bound → Migrating → Seeding → Ready
//
// A failed creation reports the step it died in so an operator can resume
// from there instead of restarting from scratch.
type Step string

const (
	StepRegistering          Step = "registering"
	StepProvisioningDatabase Step = "provisioning_database"
	StepBound                Step = "bound"
	StepMigrating            Step = "migrating"
	StepSeeding              Step = "seeding"
	StepReady                Step = "ready"
)

// StepError wraps a failure with the lifecycle step it occurred in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("tenant provisioning failed at step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep extracts the lifecycle step from a provisioning error.
// Returns empty string when err is not a StepError.
func FailedStep(err error) Step {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return ""
}
