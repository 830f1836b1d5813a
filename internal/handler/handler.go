package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pepperumo/bodysharing-website/internal/application"
	"github.com/pepperumo/bodysharing-website/internal/auth"
	"github.com/pepperumo/bodysharing-website/internal/cloudinary"
	"github.com/pepperumo/bodysharing-website/internal/config"
	"github.com/pepperumo/bodysharing-website/internal/mailer"
	"github.com/pepperumo/bodysharing-website/internal/store"
)

// Handler holds the HTTP surface's dependencies. Routes live in
// NewRouter; each method here is one endpoint.
type Handler struct {
	Service *application.Service
	Mail    mailer.Sender
	CDN     *cloudinary.Client
	Cfg     config.App
	Log     zerolog.Logger
	DB      *store.DB
	Redis   *store.Redis
}

type submitBody struct {
	application.SubmitRequest
	// PhotoData is an optional base64 data URL. When present it is
	// stored before validation so the photo requirement is satisfied
	// by the resulting URL.
	PhotoData string `json:"photoData"`
}

// Submit accepts a new application.
func (h *Handler) Submit(c *gin.Context) {
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if body.PhotoData != "" && body.PhotoURL == "" {
		if h.CDN == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo. Please try again."})
			return
		}
		result, err := h.CDN.UploadBase64(c.Request.Context(), body.PhotoData)
		if err != nil {
			h.Log.Error().Err(err).Msg("photo upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo. Please try again."})
			return
		}
		body.PhotoURL = result.SecureURL
	}

	result, err := h.Service.Submit(c.Request.Context(), body.SubmitRequest)
	if err != nil {
		if verr, ok := err.(*application.ValidationError); ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "Missing required application fields",
				"missingFields": verr.Missing,
			})
			return
		}
		h.Log.Error().Err(err).Msg("application submit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit application"})
		return
	}

	metricSubmissions.Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Application submitted successfully",
		"applicationId": result.ApplicationID,
		"trackingUrl":   result.TrackingURL,
	})
}

// Status returns the applicant-facing view of one application.
func (h *Handler) Status(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing application ID"})
		return
	}

	view, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		if _, ok := err.(*application.NotFoundError); ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
			return
		}
		h.Log.Error().Err(err).Str("application_id", id).Msg("status lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch application status"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateStatus applies an admin status transition.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req struct {
		ApplicationID   string `json:"applicationId"`
		Status          string `json:"status"`
		RejectionReason string `json:"rejectionReason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ApplicationID == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	updated, err := h.Service.UpdateStatus(c.Request.Context(), req.ApplicationID,
		application.Status(req.Status), req.RejectionReason)
	if err != nil {
		switch e := err.(type) {
		case *application.ValidationError:
			c.JSON(http.StatusBadRequest, gin.H{"error": e.Msg})
		case *application.NotFoundError:
			c.JSON(http.StatusNotFound, gin.H{"error": "Application not found"})
		default:
			h.Log.Error().Err(err).Str("application_id", req.ApplicationID).Msg("status update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update application status"})
		}
		return
	}

	metricTransitions.WithLabelValues(string(updated.Status)).Inc()
	c.JSON(http.StatusOK, updated)
}

// List returns every application, newest first, as a bare array.
func (h *Handler) List(c *gin.Context) {
	apps, err := h.Service.List(c.Request.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("application list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applications"})
		return
	}
	c.JSON(http.StatusOK, apps)
}

// Scan performs a QR check-in. Business failures come back as data with
// HTTP 200 so scanner stations handle one response shape.
func (h *Handler) Scan(c *gin.Context) {
	var req struct {
		QRCode string `json:"qrCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.QRCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing QR code content"})
		return
	}

	result := h.Service.CheckIn(c.Request.Context(), req.QRCode)
	if result.Success {
		metricCheckIns.WithLabelValues("success").Inc()
	} else {
		metricCheckIns.WithLabelValues("rejected").Inc()
	}
	c.JSON(http.StatusOK, result)
}

type contactBody struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	InquiryType    string `json:"inquiryType"`
	Message        string `json:"message"`
	ConsentContact *bool  `json:"consentContact"`
}

// Contact relays a contact-form message to the admin and confirms
// receipt to the sender.
func (h *Handler) Contact(c *gin.Context) {
	var req contactBody
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Name == "" || req.Email == "" || req.InquiryType == "" || req.Message == "" || req.ConsentContact == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required form fields"})
		return
	}

	label := mailer.InquiryLabel(req.InquiryType)

	subject, html := mailer.ContactAdminAlert(req.Name, req.Email, label, req.Message, *req.ConsentContact)
	id, err := h.Mail.Send(c.Request.Context(), mailer.Message{
		To:      h.Cfg.AdminEmail,
		From:    h.Cfg.EmailFrom,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		h.Log.Error().Err(err).Str("email", req.Email).Msg("contact admin mail failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message. Please try again."})
		return
	}

	subject, html = mailer.ContactConfirmation(req.Name, label, req.Message)
	if _, err := h.Mail.Send(c.Request.Context(), mailer.Message{
		To:      req.Email,
		From:    h.Cfg.EmailFrom,
		Subject: subject,
		HTML:    html,
	}); err != nil {
		// The admin copy went through; the sender just misses the receipt.
		h.Log.Warn().Err(err).Str("email", req.Email).Msg("contact confirmation mail failed")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Emails sent successfully", "id": id})
}

// Upload stores an applicant photo and returns its public URL.
func (h *Handler) Upload(c *gin.Context) {
	if h.CDN == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	var result *cloudinary.UploadResult
	var err error

	switch {
	case strings.Contains(c.ContentType(), "multipart/form-data"):
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, err = h.CDN.UploadBytes(c.Request.Context(), data, header.Filename)

	default:
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, err = h.CDN.UploadBase64(c.Request.Context(), body.Data)
	}

	if err != nil {
		h.Log.Error().Err(err).Msg("photo upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo. Please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      result.SecureURL,
		"publicId": result.PublicID,
		"width":    result.Width,
		"height":   result.Height,
		"bytes":    result.Bytes,
	})
}

// RegisterScanner issues a signed token for a scanner station.
func (h *Handler) RegisterScanner(c *gin.Context) {
	var req struct {
		ScannerID string `json:"scannerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.Issue(req.ScannerID, h.Cfg.JWTIssuer, h.Cfg.JWTSigningKey, h.Cfg.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     token.Value,
		"expiresAt": token.ExpiresAt.Unix(),
	})
}

// Healthz reports process and dependency health.
func (h *Handler) Healthz(c *gin.Context) {
	redisHealthy := h.Redis != nil && h.Redis.Healthy(c.Request.Context())
	dbHealthy := h.DB.Healthy(c.Request.Context())
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}
