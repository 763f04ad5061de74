package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"chess3d/internal/server/core"
)

var validate = validator.New()

// validationMiddleware parses and validates JSON bodies, leaving the result
// in c.Locals("validatedBody")
func validationMiddleware(c *fiber.Ctx) error {
	method := c.Method()
	if method == fiber.MethodGet || method == fiber.MethodDelete || method == fiber.MethodOptions {
		return c.Next()
	}

	// Determine request type based on path
	path := c.Path()
	var requestType any

	switch {
	case strings.HasSuffix(path, "/game/moves") && method == fiber.MethodPost:
		requestType = &core.MoveRequest{}
	case strings.HasSuffix(path, "/game/promotion") && method == fiber.MethodPost:
		requestType = &core.PromotionRequest{}
	case strings.HasSuffix(path, "/game/settings") && method == fiber.MethodPut:
		requestType = &core.SettingsRequest{}
	default:
		return c.Next() // No body expected
	}

	if err := c.BodyParser(requestType); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	if errs := validate.Struct(requestType); errs != nil {
		var verrs validator.ValidationErrors
		ok := false
		if verrs, ok = errs.(validator.ValidationErrors); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "validation failed",
				Code:    core.ErrInvalidRequest,
				Details: errs.Error(),
			})
		}

		var details strings.Builder
		for _, err := range verrs {
			if details.Len() > 0 {
				details.WriteString("; ")
			}
			switch err.Tag() {
			case "required":
				details.WriteString(fmt.Sprintf("%s is required", err.Field()))
			case "oneof":
				details.WriteString(fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param()))
			case "len":
				details.WriteString(fmt.Sprintf("%s must be exactly %s characters", err.Field(), err.Param()))
			case "min":
				if err.Type().Kind() == reflect.String {
					details.WriteString(fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param()))
				} else {
					details.WriteString(fmt.Sprintf("%s must be at least %s", err.Field(), err.Param()))
				}
			case "max":
				if err.Type().Kind() == reflect.String {
					details.WriteString(fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param()))
				} else {
					details.WriteString(fmt.Sprintf("%s must be at most %s", err.Field(), err.Param()))
				}
			default:
				details.WriteString(fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag()))
			}
		}

		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "validation failed",
			Code:    core.ErrInvalidRequest,
			Details: details.String(),
		})
	}

	c.Locals("validatedBody", requestType)
	c.Locals("validated", true)

	return c.Next()
}

// validatedBody returns the body validationMiddleware stored for the
// request. ok is false when validation did not run.
func validatedBody[T any](c *fiber.Ctx) (body T, ok bool) {
	if validated, _ := c.Locals("validated").(bool); !validated {
		return body, false
	}
	ptr, _ := c.Locals("validatedBody").(*T)
	if ptr == nil {
		return body, false
	}
	return *ptr, true
}

// validationBypass answers a request whose body was not validated
func validationBypass(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: "validation bypass detected",
		Code:  core.ErrInternalError,
	})
}
