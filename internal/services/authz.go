package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"concurseiro-backend/internal/models"
	"concurseiro-backend/internal/repository"
)

// resolveOwnedMaterial is the one authorization step every
// material-scoped operation runs before touching business logic.
func resolveOwnedMaterial(ctx context.Context, materials *repository.MaterialRepo, userID, materialID uuid.UUID) (*models.Material, error) {
	material, err := materials.GetOwned(ctx, userID, materialID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &NotFoundError{Message: "Material not found"}
		case errors.Is(err, repository.ErrForbidden):
			return nil, &ForbiddenError{Message: "Material belongs to another user"}
		default:
			return nil, fmt.Errorf("failed to load material: %w", err)
		}
	}
	return material, nil
}
