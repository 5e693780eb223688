package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mochi-server/internal/app"
	"mochi-server/internal/model"
	"mochi-server/internal/transport/http/middleware"
	"mochi-server/internal/transport/http/response"
)

type PersonaHandler struct {
	personaService *app.PersonaService
}

type CreatePersonaRequest struct {
	Name            string   `json:"name" binding:"required,max=64"`
	Description     string   `json:"description" binding:"required,max=2000"`
	Tone            string   `json:"tone" binding:"required,max=255"`
	Greeting        string   `json:"greeting" binding:"max=2000"`
	Relationship    string   `json:"relationship" binding:"max=128"`
	ForbiddenTopics []string `json:"forbidden_topics" binding:"max=32,dive,max=128"`
	IsPublic        bool     `json:"is_public"`
}

func NewPersonaHandler(personaService *app.PersonaService) *PersonaHandler {
	return &PersonaHandler{personaService: personaService}
}

// Catalog answers GET /personas with the built-in personas.
func (h *PersonaHandler) Catalog(c *gin.Context) {
	response.OK(c, h.personaService.Catalog())
}

// Mine answers GET /personas/mine.
func (h *PersonaHandler) Mine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	personas, err := h.personaService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "list personas failed")
		return
	}
	if personas == nil {
		personas = []model.Persona{}
	}
	response.OK(c, personas)
}

func (h *PersonaHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreatePersonaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	persona, err := h.personaService.Create(c.Request.Context(), userID, app.CreatePersonaInput{
		Name:            req.Name,
		Description:     req.Description,
		Tone:            req.Tone,
		Greeting:        req.Greeting,
		Relationship:    req.Relationship,
		ForbiddenTopics: req.ForbiddenTopics,
		IsPublic:        req.IsPublic,
	})
	if err != nil {
		writeError(c, err, "create persona failed")
		return
	}
	response.Created(c, persona)
}
