package handlers

import (
	"catalog/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GenericErrorMessage is the only detail a 500 response ever carries.
const GenericErrorMessage = "Generic Server Error! We are going to fix this ASAP!"

// errorClassifier turns a failure into a response when it recognises it.
type errorClassifier struct {
	name    string
	match   func(err error) bool
	respond func(c *fiber.Ctx, err error) error
}

// classifiers run in order; the first match answers. genericErrorHandler runs when none match.
var classifiers = []errorClassifier{
	{name: "bad_request", match: isBadRequest, respond: badRequestHandler},
	{name: "unauthorized", match: matchKind(apperrors.KindUnauthorized, fiber.StatusUnauthorized), respond: messageHandler(fiber.StatusUnauthorized)},
	{name: "forbidden", match: matchKind(apperrors.KindForbidden, fiber.StatusForbidden), respond: messageHandler(fiber.StatusForbidden)},
	{name: "not_found", match: matchKind(apperrors.KindNotFound, fiber.StatusNotFound), respond: messageHandler(fiber.StatusNotFound)},
	{name: "framework", match: isFrameworkError, respond: frameworkErrorHandler},
}

// ErrorHandler is installed as fiber.Config.ErrorHandler and is the single
// place where failures become HTTP status codes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	for _, cl := range classifiers {
		if cl.match(err) {
			zap.L().Debug("request failed",
				zap.String("classifier", cl.name),
				zap.String("path", c.Path()),
				zap.Error(err))
			return cl.respond(c, err)
		}
	}
	return genericErrorHandler(c, err)
}

func fiberCode(err error) (int, bool) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return 0, false
}

func matchKind(kind apperrors.Kind, status int) func(error) bool {
	return func(err error) bool {
		if apperrors.Is(err, kind) {
			return true
		}
		code, ok := fiberCode(err)
		return ok && code == status
	}
}

func isBadRequest(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.KindBadRequest, apperrors.KindValidation:
		return true
	}
	code, ok := fiberCode(err)
	return ok && code == fiber.StatusBadRequest
}

func badRequestHandler(c *fiber.Ctx, err error) error {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  ve.Fields,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": publicMessage(err, "Bad request"),
	})
}

func messageHandler(status int) func(c *fiber.Ctx, err error) error {
	return func(c *fiber.Ctx, err error) error {
		return c.Status(status).JSON(fiber.Map{
			"message": publicMessage(err, utils.StatusMessage(status)),
		})
	}
}

// Statuses raised by Fiber itself, e.g. 405 or 413, keep their code.
func isFrameworkError(err error) bool {
	code, ok := fiberCode(err)
	return ok && code < fiber.StatusInternalServerError
}

func frameworkErrorHandler(c *fiber.Ctx, err error) error {
	code, _ := fiberCode(err)
	return c.Status(code).JSON(fiber.Map{"message": utils.StatusMessage(code)})
}

// genericErrorHandler must always answer. Details go to the log, never to the client.
func genericErrorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("unhandled error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	if jsonErr := c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": GenericErrorMessage}); jsonErr != nil {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(fiber.StatusInternalServerError).SendString(GenericErrorMessage)
	}
	return nil
}

// publicMessage returns the message of an apperrors.Error or a *fiber.Error,
// without any wrapped cause, falling back to def.
func publicMessage(err error, def string) string {
	var ae *apperrors.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return def
}
