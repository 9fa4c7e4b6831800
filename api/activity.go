package api

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/rpupo63/portfolio-cms-backend/database"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

// activityRecorder appends audit entries for mutating requests. A failed
// write is logged and never fails the request that triggered it.
type activityRecorder struct {
	repo   *database.ActivityLogRepo
	logger zerolog.Logger
}

func newActivityRecorder(repo *database.ActivityLogRepo, logger zerolog.Logger) activityRecorder {
	return activityRecorder{repo: repo, logger: logger}
}

func (a activityRecorder) record(ctx context.Context, action, entityType string, entityID *uuid.UUID, description string, metadata map[string]any) {
	entry := &models.ActivityLog{
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
	}
	if userID, ok := ctxGetUserID(ctx); ok {
		entry.UserID = &userID
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err == nil {
			entry.Metadata = datatypes.JSON(raw)
		}
	}

	// detached so a client disconnect does not drop the audit entry
	if err := a.repo.Add(context.WithoutCancel(ctx), entry); err != nil {
		a.logger.Warn().Err(err).
			Str("action", action).
			Str("entityType", entityType).
			Msg("failed to write activity log")
	}
}
