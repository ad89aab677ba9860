package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/services"
)

type CitizenDetailsRequest struct {
	AdhaarCard  string `json:"adhaarCard"`
	PanCard     string `json:"panCard"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
}

type PoliceDetailsRequest struct {
	PostingAreaAddress string `json:"postingAreaAddress"`
	BadgeNumber        string `json:"badgeNumber"`
	Rank               string `json:"rank"`
	Phone              string `json:"phone"`
}

type ExpoTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type SendNotificationRequest struct {
	UserID string `json:"userId" binding:"required,objectid"`
	Title  string `json:"title" binding:"required"`
	Body   string `json:"body"`
}

type ActivateUserRequest struct {
	ID     string `json:"id" binding:"required,objectid"`
	Active *bool  `json:"active" binding:"required"`
}

// Me returns the caller's own record, user or administrator.
func (h *Handler) Me(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	profile, err := h.Users.Me(ctx, who)
	if err != nil {
		fail(c, err)
		return
	}
	var result any = profile.User
	if profile.Admin != nil {
		result = profile.Admin
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func (h *Handler) AllUsers(c *gin.Context) {
	ctx, cancel := h.medium(c)
	defer cancel()

	users, err := h.Users.AllUsers(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": users})
}

func (h *Handler) AllPolice(c *gin.Context) {
	ctx, cancel := h.medium(c)
	defer cancel()

	police, err := h.Users.AllPolice(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": police})
}

// StationPolice lists the officers posted at the caller's station.
func (h *Handler) StationPolice(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	police, err := h.Users.StationPolice(ctx, who)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": police})
}

func (h *Handler) CitizenDetails(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req CitizenDetailsRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	user, err := h.Users.UpdateCitizenDetails(ctx, who, services.CitizenDetails(req))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": user})
}

func (h *Handler) PoliceDetails(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req PoliceDetailsRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	user, err := h.Users.UpdatePoliceDetails(ctx, who, services.PoliceDetails(req))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": user})
}

func (h *Handler) ExpoToken(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req ExpoTokenRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	if err := h.Users.AddExpoToken(ctx, who, req.Token); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadProfile stores the image sent as the "profile" file.
func (h *Handler) UploadProfile(c *gin.Context) {
	h.uploadImage(c, "profile", h.Users.UploadProfile)
}

// UploadVerification stores the identity document sent as the
// "verification" file.
func (h *Handler) UploadVerification(c *gin.Context) {
	h.uploadImage(c, "verification", h.Users.UploadVerification)
}

func (h *Handler) uploadImage(c *gin.Context, field string,
	upload func(ctx context.Context, who services.Caller, f services.Upload) (string, error)) {
	who, ok := caller(c)
	if !ok {
		return
	}
	h.limitBody(c)
	fh, err := formFile(c, field)
	if err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := h.long(c)
	defer cancel()

	uri, err := upload(ctx, who, toUpload(fh))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "uri": uri})
}

func (h *Handler) SendNotification(c *gin.Context) {
	var req SendNotificationRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	if err := h.Users.SendNotification(ctx, objectID(req.UserID), req.Title, req.Body); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ActivateUser switches a pending police account on or off.
func (h *Handler) ActivateUser(c *gin.Context) {
	var req ActivateUserRequest
	if !bind(c, &req) {
		return
	}
	ctx, cancel := h.medium(c)
	defer cancel()

	user, err := h.Users.SetActive(ctx, objectID(req.ID), *req.Active)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": user})
}
