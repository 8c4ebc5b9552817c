package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/repository"
	"timetrack-invoicing-backend/internal/wire"
)

type ClientHandler struct {
	clients *repository.ClientRepository
}

func NewClientHandler(clients *repository.ClientRepository) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.ListForUser(currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewClients(clients))
}

// Create accepts client[...] form fields or a JSON body.
func (h *ClientHandler) Create(c *gin.Context) {
	var payload wire.ClientJSON
	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
	} else {
		payload.FirstName = c.PostForm("client[first_name]")
		payload.LastName = c.PostForm("client[last_name]")
		payload.Email = c.PostForm("client[email]")
		payload.Address = c.PostForm("client[address]")
	}

	client := models.Client{
		UserID:    currentUser(c),
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Email:     strings.TrimSpace(payload.Email),
		Address:   strings.TrimSpace(payload.Address),
	}
	if client.FirstName == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "first_name is required"})
		return
	}
	if err := h.clients.Create(&client); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.NewClient(client))
}
