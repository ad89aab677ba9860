package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/harentsoaR/complaint-api/internal/models"
	"github.com/harentsoaR/complaint-api/internal/services"
)

// ProofField is the multipart field carrying proof images. Clients that
// append "[]" to array fields are accepted too.
const ProofField = "imageProof"

// ComplaintForm holds the form fields shared by every complaint kind. The
// kind specific fields are bound into the matching detail struct.
type ComplaintForm struct {
	Station       string `form:"station"`
	Description   string `form:"description"`
	IncidentDate  string `form:"incidentDate"`
	IncidentPlace string `form:"incidentPlace"`
}

type AssignRequest struct {
	ID       string `json:"id" binding:"required,objectid"`
	PoliceID string `json:"policeId" binding:"required,objectid"`
}

type StatusRequest struct {
	ID     string        `json:"id" binding:"required,objectid"`
	Status models.Status `json:"status" binding:"required"`
}

type PoliceStatusRequest struct {
	ID           string      `json:"id" binding:"required,objectid"`
	Kind         models.Kind `json:"kind" binding:"required,kind"`
	PoliceStatus string      `json:"policeStatus" binding:"required"`
}

// SubmitComplaint returns the handler that files a complaint of kind.
func (h *Handler) SubmitComplaint(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		h.limitBody(c)

		var form ComplaintForm
		if err := c.ShouldBindWith(&form, binding.Form); err != nil {
			fail(c, err)
			return
		}
		in := services.SubmitInput{
			Kind:          kind,
			Station:       form.Station,
			Description:   form.Description,
			IncidentDate:  form.IncidentDate,
			IncidentPlace: form.IncidentPlace,
		}
		if err := bindDetails(c, kind, &in); err != nil {
			fail(c, err)
			return
		}
		files, err := proofFiles(c)
		if err != nil {
			fail(c, err)
			return
		}
		for _, fh := range files {
			in.Files = append(in.Files, toUpload(fh))
		}

		ctx, cancel := h.long(c)
		defer cancel()
		complaint, err := h.Complaints.Submit(ctx, who, in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": complaint})
	}
}

func bindDetails(c *gin.Context, kind models.Kind, in *services.SubmitInput) error {
	switch kind {
	case models.KindReport:
		in.Incident = &models.IncidentDetails{}
		return c.ShouldBindWith(in.Incident, binding.Form)
	case models.KindMissing, models.KindUnidentified:
		in.Person = &models.PersonDetails{}
		return c.ShouldBindWith(in.Person, binding.Form)
	case models.KindMSLF:
		in.Property = &models.PropertyDetails{}
		return c.ShouldBindWith(in.Property, binding.Form)
	case models.KindMobileApp:
		in.Device = &models.DeviceDetails{}
		return c.ShouldBindWith(in.Device, binding.Form)
	}
	return nil
}

// proofFiles collects the proof images. A request that is not multipart
// simply carries none.
func proofFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	files := append([]*multipart.FileHeader{}, form.File[ProofField]...)
	return append(files, form.File[ProofField+"[]"]...), nil
}

// AssignComplaint returns the handler that assigns a complaint of kind to
// an officer.
func (h *Handler) AssignComplaint(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		var req AssignRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := h.medium(c)
		defer cancel()

		complaint, err := h.Complaints.Assign(ctx, who, kind, objectID(req.ID), objectID(req.PoliceID))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": complaint})
	}
}

// UpdateStatus returns the handler that sets the status of a complaint of
// kind.
func (h *Handler) UpdateStatus(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		var req StatusRequest
		if !bind(c, &req) {
			return
		}
		ctx, cancel := h.medium(c)
		defer cancel()

		complaint, err := h.Complaints.UpdateStatus(ctx, who, kind, objectID(req.ID), req.Status)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": complaint})
	}
}

func (h *Handler) UpdatePoliceStatus(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req PoliceStatusRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	complaint, err := h.Complaints.UpdatePoliceStatus(ctx, who, req.Kind, objectID(req.ID), req.PoliceStatus)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": complaint})
}

// ListComplaints returns the handler for the current or history listing
// of kind.
func (h *Handler) ListComplaints(kind models.Kind, history bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		p := page(c)
		ctx, cancel := h.medium(c)
		defer cancel()

		list, err := h.Complaints.List(ctx, who, kind, history, p)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "result": list})
	}
}
