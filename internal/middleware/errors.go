package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"go.uber.org/zap"
)

// ErrorHandler turns the last error recorded with c.Error into the JSON
// body {success:false, message}. With debug set, 5xx responses also carry
// the underlying error.
func ErrorHandler(log *zap.Logger, debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, message := classify(err)

		body := gin.H{"success": false, "message": message}
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Error(err))
			if debug {
				body["originalError"] = err.Error()
			}
		}
		c.JSON(status, body)
	}
}

func classify(err error) (int, string) {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Status, appErr.Message
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return http.StatusUnprocessableEntity, validationMessage(verrs[0])
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return http.StatusUnprocessableEntity, fmt.Sprintf("%q must be of type %s", typeErr.Field, typeErr.Type.Kind())
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return http.StatusUnprocessableEntity, "malformed JSON body"
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return http.StatusUnprocessableEntity, fmt.Sprintf("%q is not a valid number", numErr.Num)
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}
	if errors.Is(err, http.ErrMissingBoundary) || errors.Is(err, http.ErrNotMultipart) {
		return http.StatusUnprocessableEntity, "expected a multipart form"
	}

	return http.StatusInternalServerError, "Internal server error"
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "min":
		return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%q must match %s", field, fe.Param())
	case "objectid":
		return fmt.Sprintf("%q must be a valid id", field)
	case "kind":
		return fmt.Sprintf("%q must be a valid complaint kind", field)
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}
