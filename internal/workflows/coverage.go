package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/aldatxeta/tourkit/internal/core/domain"
)

// CoveragePlanInput is the input for the coverage plan workflow.
// Areas are vertex lists; polygons are rebuilt inside the activity so
// the input stays JSON-serializable.
type CoveragePlanInput struct {
	Areas         [][]domain.GeoPoint
	RadiusMeters  float64
	SpacingFactor float64
}

// CoveragePlanWorkflow computes circle centers for the input areas,
// persists them as a plan, and announces the plan to consumers. If the
// announcement fails the persisted plan is deleted (saga compensation)
// so no consumer ever observes a plan that was never broadcast.
func CoveragePlanWorkflow(ctx workflow.Context, input CoveragePlanInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting coverage plan workflow",
		"areas", len(input.Areas), "radiusMeters", input.RadiusMeters)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: compute the circle centers
	var centers []domain.CircleCenter
	if err := workflow.ExecuteActivity(ctx, "GenerateCenters", input).Get(ctx, &centers); err != nil {
		return "", err
	}
	if len(centers) == 0 {
		logger.Info("No centers generated, nothing to persist")
		return "", nil
	}

	// Step 2: persist the plan
	var planID string
	if err := workflow.ExecuteActivity(ctx, "PersistPlan", input, centers).Get(ctx, &planID); err != nil {
		return "", err
	}

	// Step 3: announce the plan
	if err := workflow.ExecuteActivity(ctx, "PublishPlan", planID).Get(ctx, nil); err != nil {
		logger.Warn("plan announcement failed, compensating", "planID", planID, "error", err)
		// Compensate: delete the orphaned plan
		_ = workflow.ExecuteActivity(ctx, "DeletePlan", planID).Get(ctx, nil)
		return "", err
	}

	logger.Info("Coverage plan stored and announced", "planID", planID, "centers", len(centers))
	return planID, nil
}
