package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/giftcampaign/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DeliveryIDHeader optionally carries the provider's delivery id, used to
// recognise redelivered webhooks
const DeliveryIDHeader = "X-Delivery-ID"

// WebhookHandler receives provider push notifications
type WebhookHandler struct {
	BaseHandler
	ingestion *applogistics.IngestionService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(ingestion *applogistics.IngestionService) *WebhookHandler {
	return &WebhookHandler{ingestion: ingestion}
}

// WebhookAcceptedResponse is returned once the event is stored
type WebhookAcceptedResponse struct {
	EventID     int64  `json:"event_id"`
	MessageType string `json:"message_type"`
	Duplicate   bool   `json:"duplicate"`
}

// webhookEnvelope is the part of the body read before storing it
type webhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Receive godoc
// @Summary      Receive a logistics provider webhook
// @Description  Stores the event and queues its processing. Requires the provider's bearer key.
// @Tags         logistics
// @Accept       json
// @Produce      json
// @Param        provider path string true "Provider (orian, pick-and-pack)"
// @Success      202 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Router       /logistics/{provider}/webhook [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	provider, ok := middleware.GetProvider(c)
	if !ok {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "API key required")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Body must be a JSON object")
		return
	}
	wireType := strings.TrimSpace(env.Type)
	if wireType == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Message type is required")
		return
	}
	if _, err := h.ingestion.Classify(provider, wireType); err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.ingestion.Ingest(c.Request.Context(), applogistics.IngestRequest{
		Provider:   provider,
		WireType:   wireType,
		Body:       body,
		DeliveryID: c.GetHeader(DeliveryIDHeader),
		SourceRef:  "webhook",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, WebhookAcceptedResponse{
		EventID:     result.EventID,
		MessageType: string(result.MessageType),
		Duplicate:   result.Duplicate,
	})
}
