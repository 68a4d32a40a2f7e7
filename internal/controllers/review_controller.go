package controllers

import (
	"fmt"

	"github.com/reviewpilot/reviewpilot/internal/domain"
	"github.com/reviewpilot/reviewpilot/internal/middlewares"

	"github.com/gofiber/fiber/v3"
)

// ReviewController handles business selection and review sync/reply.
type ReviewController struct {
	reviewManager domain.ReviewManager
}

type ReviewControllerDependencies struct {
	ReviewManager domain.ReviewManager
}

func NewReviewController(deps ReviewControllerDependencies) *ReviewController {
	return &ReviewController{
		reviewManager: deps.ReviewManager,
	}
}

func (c *ReviewController) ListBusinesses(ctx fiber.Ctx) error {
	businesses, err := c.reviewManager.ListBusinesses(ctx.RequestCtx(), middlewares.AccountID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success":    true,
		"businesses": businesses,
	})
}

type selectBusinessRequest struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
}

func (c *ReviewController) SelectBusiness(ctx fiber.Ctx) error {
	var req selectBusinessRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.ExternalID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Business ID is required")
	}

	err := c.reviewManager.SelectBusiness(ctx.RequestCtx(), middlewares.AccountID(ctx), req.ExternalID, req.DisplayName)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{"success": true})
}

func (c *ReviewController) ListReviews(ctx fiber.Ctx) error {
	reviews, err := c.reviewManager.ListStoredReviews(ctx.RequestCtx(), middlewares.AccountID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"reviews": reviews,
	})
}

func (c *ReviewController) SyncReviews(ctx fiber.Ctx) error {
	result, err := c.reviewManager.SyncReviews(ctx.RequestCtx(), middlewares.AccountID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success":        true,
		"reviews_found":  result.ReviewsFound,
		"reviews_stored": result.ReviewsStored,
		"message":        fmt.Sprintf("Successfully processed %d reviews", result.ReviewsStored),
	})
}

type replyRequest struct {
	ReplyText string `json:"reply_text"`
}

func (c *ReviewController) ReplyToReview(ctx fiber.Ctx) error {
	reviewID := ctx.Params("reviewID")

	var req replyRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if req.ReplyText == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Reply text is required")
	}

	err := c.reviewManager.ReplyToReview(ctx.RequestCtx(), middlewares.AccountID(ctx), reviewID, req.ReplyText)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"message": "Reply sent successfully",
	})
}
