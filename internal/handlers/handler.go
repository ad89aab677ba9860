package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/middleware"
	"github.com/harentsoaR/complaint-api/internal/services"
	"github.com/harentsoaR/complaint-api/internal/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler holds the services behind every route. Each handler binds the
// request, calls one service operation and hands failures to the error
// middleware with c.Error.
type Handler struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Complaints *services.ComplaintService
	Log        *zap.Logger

	// MaxUploadBytes caps multipart request bodies. Zero means no cap.
	MaxUploadBytes int64
}

func NewHandler(auth *services.AuthService, users *services.UserService, complaints *services.ComplaintService, log *zap.Logger) *Handler {
	return &Handler{
		Auth:       auth,
		Users:      users,
		Complaints: complaints,
		Log:        log,
	}
}

func fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

// bind decodes a JSON body. Binding and validation errors are classified
// by the error middleware.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, err)
		return false
	}
	return true
}

func caller(c *gin.Context) (services.Caller, bool) {
	who, ok := middleware.CallerFrom(c)
	if !ok {
		fail(c, apperrors.Unauthorized(""))
		return services.Caller{}, false
	}
	return who, true
}

// medium bounds a request's service calls.
func (h *Handler) medium(c *gin.Context) (context.Context, context.CancelFunc) {
	return timeouts.WithTimeout(c.Request.Context(), timeouts.Medium(), h.Log, operation(c))
}

// long bounds requests that upload files.
func (h *Handler) long(c *gin.Context) (context.Context, context.CancelFunc) {
	return timeouts.WithTimeout(c.Request.Context(), timeouts.Long(), h.Log, operation(c))
}

func operation(c *gin.Context) string {
	return c.Request.Method + " " + c.FullPath()
}

// objectID parses an id already checked by the objectid binding tag.
func objectID(hex string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(hex)
	return id
}

// limitBody caps the request body before a multipart form is parsed.
func (h *Handler) limitBody(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
}

func toUpload(fh *multipart.FileHeader) services.Upload {
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formFile returns the single file sent under field. A missing file is a
// validation error.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, apperrors.Validation(strconv.Quote(field) + " is required")
	}
	return fh, err
}

// page reads the page and limit query parameters. Bad values fall back to
// the defaults.
func page(c *gin.Context) services.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("limit"))
	return services.Page{Number: number, Size: size}
}
