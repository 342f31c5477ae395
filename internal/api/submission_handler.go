package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/submission-ticker-api/internal/models"
	"github.com/submission-ticker-api/internal/service"
)

// SubmissionHandler handles the announcement and testimonial endpoints
type SubmissionHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSubmissionHandler creates a new SubmissionHandler
func NewSubmissionHandler(services *service.Services, log zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		services: services,
		log:      log.With().Str("handler", "submission").Logger(),
	}
}

// resource resolves the :resource path segment; unknown roots are answered with 405
func (h *SubmissionHandler) resource(c *gin.Context) (models.Resource, bool) {
	resource, ok := models.ParseResource(c.Param("resource"))
	if !ok {
		methodNotAllowed(c)
	}
	return resource, ok
}

// List handles GET /api/:resource?status=...
func (h *SubmissionHandler) List(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	status := c.Query("status")
	if status == "" && c.Query("active") == "true" {
		// older ticker builds ask for ?active=true
		status = string(models.StatusApproved)
	}

	subs, err := h.services.Submissions.List(c.Request.Context(), resource, status)
	if err != nil {
		respondError(c, h.log, resource, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		string(resource): models.ToResponses(subs),
	})
}

// Create handles POST /api/:resource
func (h *SubmissionHandler) Create(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	var req models.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Details: singleLine(err.Error())})
		return
	}

	sub, err := h.services.Submissions.Create(c.Request.Context(), resource, &req)
	if err != nil {
		respondError(c, h.log, resource, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":           true,
		"message":           capitalize(resource.Singular()) + " submitted for review",
		resource.Singular(): sub.ToResponse(),
	})
}

// Approve handles POST /api/:resource/:id/approve
func (h *SubmissionHandler) Approve(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	sub, err := h.services.Moderation.Approve(c.Request.Context(), resource, c.Param("id"))
	if err != nil {
		respondError(c, h.log, resource, err)
		return
	}

	h.respondEntity(c, resource, "approved", sub)
}

// Reject handles POST /api/:resource/:id/reject. The body is optional; an
// absent or unreadable body means no reason.
func (h *SubmissionHandler) Reject(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	var req models.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = nil
	}

	sub, err := h.services.Moderation.Reject(c.Request.Context(), resource, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, h.log, resource, err)
		return
	}

	h.respondEntity(c, resource, "rejected", sub)
}

// Update handles PATCH /api/:resource/:id
func (h *SubmissionHandler) Update(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	var req models.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Details: singleLine(err.Error())})
		return
	}

	sub, err := h.services.Submissions.Update(c.Request.Context(), resource, c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, resource, err)
		return
	}

	h.respondEntity(c, resource, "updated", sub)
}

// Delete handles DELETE /api/:resource/:id
func (h *SubmissionHandler) Delete(c *gin.Context) {
	resource, ok := h.resource(c)
	if !ok {
		return
	}

	id, err := h.services.Submissions.Delete(c.Request.Context(), resource, c.Param("id"))
	if err != nil {
		respondError(c, h.log, resource, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": capitalize(resource.Singular()) + " deleted",
		"id":      id.String(),
	})
}

func (h *SubmissionHandler) respondEntity(c *gin.Context, resource models.Resource, verb string, sub *models.Submission) {
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           capitalize(resource.Singular()) + " " + verb,
		resource.Singular(): sub.ToResponse(),
	})
}
