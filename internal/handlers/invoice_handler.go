package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/services/billing"
	"timetrack-invoicing-backend/internal/services/invoicing"
	"timetrack-invoicing-backend/internal/wire"
)

const maxFormMemory = 8 << 20

type InvoiceHandler struct {
	service *invoicing.Service
}

func NewInvoiceHandler(service *invoicing.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Create stores a draft sent as invoice[...] nested attributes.
func (h *InvoiceHandler) Create(c *gin.Context) {
	draft, ok := bindInvoiceForm(c)
	if !ok {
		return
	}
	invoice, err := h.service.CreateInvoice(currentUser(c), draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, wire.NewInvoiceShowResponse(*invoice))
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	invoiceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	draft, ok := bindInvoiceForm(c)
	if !ok {
		return
	}
	invoice, err := h.service.UpdateInvoice(currentUser(c), invoiceID, draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewInvoiceShowResponse(*invoice))
}

func (h *InvoiceHandler) Show(c *gin.Context) {
	invoiceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.service.GetInvoice(currentUser(c), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewInvoiceShowResponse(*invoice))
}

func (h *InvoiceHandler) ListForProject(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	invoices, err := h.service.InvoicesFrom(currentUser(c), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]wire.InvoiceShowResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, wire.NewInvoiceShowResponse(inv))
	}
	c.JSON(http.StatusOK, out)
}

func (h *InvoiceHandler) MakeVisible(c *gin.Context) {
	invoiceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.service.MakeVisible(currentUser(c), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.NewInvoiceShowResponse(*invoice))
}

// EmailNotify queues the client notification and answers right away.
func (h *InvoiceHandler) EmailNotify(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	invoiceID, ok := idParam(c, "invoice")
	if !ok {
		return
	}
	if err := h.service.NotifyClient(c.Request.Context(), currentUser(c), projectID, invoiceID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "notification queued"})
}

func (h *InvoiceHandler) AuditLog(c *gin.Context) {
	invoiceID, ok := idParam(c, "id")
	if !ok {
		return
	}
	logs, err := h.service.AuditTrail(currentUser(c), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	if logs == nil {
		logs = []models.InvoiceAuditLog{}
	}
	c.JSON(http.StatusOK, logs)
}

func bindInvoiceForm(c *gin.Context) (draft billing.Invoice, ok bool) {
	err := c.Request.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return draft, false
	}
	draft, err = wire.ParseInvoiceForm(c.Request.PostForm)
	if err != nil {
		respondError(c, err)
		return draft, false
	}
	return draft, true
}
