package adminhttp

import (
	"net/http"

	apperrors "terraforming-mars-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error-kind class onto an HTTP status: 400 validation,
// 401/403 auth, 404 missing, 409 conflict, 500 everything else (including
// the transient/fatal buckets, since by the time an error reaches this
// edge the component has already exhausted its own retries).
func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindMissingFields, apperrors.KindInvalidSlot, apperrors.KindSlotOccupied,
		apperrors.KindAreaExceeded, apperrors.KindUniqueStructureExists, apperrors.KindMinTownHallLevel,
		apperrors.KindPrerequisitesNotMet, apperrors.KindInsufficientResources:
		return http.StatusBadRequest
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindNotAdmin, apperrors.KindNotSettlementOwner:
		return http.StatusForbidden
	case apperrors.KindSettlementNotFound, apperrors.KindStructureNotFound, apperrors.KindTileNotFound,
		apperrors.KindWorldNotFound, apperrors.KindAccountNotFound, apperrors.KindServerNotFound:
		return http.StatusNotFound
	case apperrors.KindWorldNotReady, apperrors.KindDisasterInProgress, apperrors.KindQueueFull:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error envelope `{error, code, message, ...details}` for
// err, inferring its HTTP status from the carried Kind.
func fail(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.Error)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "code": "INTERNAL", "message": err.Error()})
		return
	}
	body := gin.H{"error": true, "code": string(appErr.Kind), "message": appErr.Message}
	for k, v := range appErr.Details {
		body[k] = v
	}
	c.JSON(statusFor(appErr.Kind), body)
}
