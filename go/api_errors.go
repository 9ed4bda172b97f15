package posserver

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/Apurer/cafe-pos-server/internal/domains/catalog/application"
	catalogports "github.com/Apurer/cafe-pos-server/internal/domains/catalog/ports"
	fulfillapp "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/application"
	fulfillports "github.com/Apurer/cafe-pos-server/internal/domains/fulfillment/ports"
	invapp "github.com/Apurer/cafe-pos-server/internal/domains/inventory/application"
	invdomain "github.com/Apurer/cafe-pos-server/internal/domains/inventory/domain"
	invports "github.com/Apurer/cafe-pos-server/internal/domains/inventory/ports"
	orderapp "github.com/Apurer/cafe-pos-server/internal/domains/orders/application"
	orderdomain "github.com/Apurer/cafe-pos-server/internal/domains/orders/domain"
	orderports "github.com/Apurer/cafe-pos-server/internal/domains/orders/ports"
	apierrors "github.com/Apurer/cafe-pos-server/internal/shared/errors"
)

// Shortage is one ingredient reported in an insufficient-stock problem.
type Shortage struct {
	IngredientID int64  `json:"ingredientId"`
	Name         string `json:"name"`
	Required     string `json:"required"`
	Available    string `json:"available"`
}

// storageRetryAfter is advertised when a transaction failed before commit.
const storageRetryAfter = time.Second

var responder = apierrors.NewChainedResponder("",
	mapValidationError,
	mapStockError,
	mapTransitionError,
	mapConflictError,
	mapNotFoundError,
	mapUnavailableError,
)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondServiceError maps application errors to RFC 7807 responses.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

func mapValidationError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, orderapp.ErrInvalidInput) ||
		errors.Is(err, catalogapp.ErrInvalidInput) ||
		errors.Is(err, invapp.ErrInvalidInput) ||
		errors.Is(err, invdomain.ErrNegativeAmount) {
		problem := apierrors.ErrValidation.WithDetail(err.Error())
		var lineErr *orderdomain.InvalidLineError
		if errors.As(err, &lineErr) {
			problem = problem.WithExtension("lineIndex", lineErr.Index)
		}
		return problem, true
	}
	return apierrors.ProblemDetail{}, false
}

func mapStockError(err error) (apierrors.ProblemDetail, bool) {
	var shortErr *invdomain.InsufficientStockError
	if !errors.As(err, &shortErr) {
		return apierrors.ProblemDetail{}, false
	}
	shortages := make([]Shortage, 0, len(shortErr.Shortages))
	for _, s := range shortErr.Shortages {
		shortages = append(shortages, Shortage{
			IngredientID: s.IngredientID,
			Name:         s.Name,
			Required:     s.Required.String(),
			Available:    s.Available.String(),
		})
	}
	return apierrors.ErrInsufficientStock.WithDetail(err.Error()).WithExtension("shortages", shortages), true
}

func mapTransitionError(err error) (apierrors.ProblemDetail, bool) {
	var transErr *orderdomain.InvalidTransitionError
	if !errors.As(err, &transErr) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrInvalidTransition.WithDetail(err.Error()).
		WithExtension("orderId", transErr.OrderID).
		WithExtension("from", string(transErr.From)).
		WithExtension("to", string(transErr.To)), true
}

func mapConflictError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, fulfillports.ErrIdempotencyConflict) {
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapNotFoundError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, orderports.ErrNotFound) ||
		errors.Is(err, catalogports.ErrNotFound) ||
		errors.Is(err, catalogports.ErrRecipeNotFound) ||
		errors.Is(err, invports.ErrNotFound) ||
		errors.Is(err, fulfillports.ErrLoyaltyNotFound) {
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapUnavailableError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, fulfillapp.ErrStorageUnavailable):
		return apierrors.ErrServiceUnavailable.WithDetail(err.Error()).WithRetryAfter(storageRetryAfter), true
	case errors.Is(err, fulfillports.ErrLoyaltyUnavailable):
		return apierrors.ErrServiceUnavailable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondProblem(c, apierrors.NewFieldProblem(name, name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
