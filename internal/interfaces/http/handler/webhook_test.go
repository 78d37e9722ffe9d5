package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence"
	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderStatusBody = `{"type":"orderStatusChange","data":{"ORDERID":"A-100","STATUS":"PICKED"}}`

func TestWebhookHandler_StoresEventAndQueuesProcessing(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/logistics/pick-and-pack/webhook", orderStatusBody,
		"Authorization", "Bearer "+pickAndPackKey, DeliveryIDHeader, "delivery-1")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp WebhookAcceptedResponse
	decode(t, w, &resp)
	assert.NotZero(t, resp.EventID)
	assert.Equal(t, string(logistics.MessageTypeOrderStatusChange), resp.MessageType)
	assert.False(t, resp.Duplicate)

	event, err := persistence.NewGormLogisticsEventRepository(env.db).FindByID(context.Background(), resp.EventID)
	require.NoError(t, err)
	assert.Equal(t, logistics.ProviderPickAndPack, event.Provider)
	assert.Equal(t, "delivery-1", event.DedupeKey)
	assert.JSONEq(t, orderStatusBody, string(event.Body))

	tasks := env.pendingTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, applogistics.TaskProcessEvent, tasks[0].Name)
}

func TestWebhookHandler_RedeliveryIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, http.MethodPost, "/api/v1/logistics/pick-and-pack/webhook", orderStatusBody,
		"Authorization", "Bearer "+pickAndPackKey, DeliveryIDHeader, "delivery-7")
	require.Equal(t, http.StatusAccepted, first.Code)

	second := env.do(t, http.MethodPost, "/api/v1/logistics/pick-and-pack/webhook", orderStatusBody,
		"Authorization", "Bearer "+pickAndPackKey, DeliveryIDHeader, "delivery-7")
	require.Equal(t, http.StatusAccepted, second.Code)

	var resp WebhookAcceptedResponse
	decode(t, second, &resp)
	assert.True(t, resp.Duplicate)
	assert.Zero(t, resp.EventID)
	assert.Len(t, env.pendingTasks(t), 1)
}

func TestWebhookHandler_RepeatedPayloadWithoutDeliveryID(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/logistics/pick-and-pack/webhook", orderStatusBody,
			"Authorization", "Bearer "+pickAndPackKey)
		require.Equal(t, http.StatusAccepted, w.Code)

		var resp WebhookAcceptedResponse
		decode(t, w, &resp)
		assert.False(t, resp.Duplicate)
		assert.NotZero(t, resp.EventID)
	}
	assert.Len(t, env.pendingTasks(t), 2)
}

func TestWebhookHandler_OrianTypeInEnvelope(t *testing.T) {
	env := newTestEnv(t)

	body := `{"type":"OrderStatusChange_NKS","data":{"DATACOLLECTION":{"DATA":{"ORDERID":"A-7","TOSTATUS":"SHIPPED","STATUSDATE":"05/01/2024 10:00:00 AM"}}}}`
	w := env.do(t, http.MethodPost, "/api/v1/logistics/orian/webhook", body, "Authorization", "Bearer "+orianKey)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp WebhookAcceptedResponse
	decode(t, w, &resp)
	assert.Equal(t, string(logistics.MessageTypeOrderStatusChange), resp.MessageType)
}

func TestWebhookHandler_Rejections(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		path   string
		key    string
		body   string
		status int
		code   string
	}{
		{"unknown type", "/api/v1/logistics/pick-and-pack/webhook", pickAndPackKey, `{"type":"parcelLost","data":{}}`, http.StatusBadRequest, dto.ErrCodeUnknownMessageType},
		{"orian queue name is not a pick and pack type", "/api/v1/logistics/pick-and-pack/webhook", pickAndPackKey, `{"type":"ShipOrder_NKS","data":{}}`, http.StatusBadRequest, dto.ErrCodeUnknownMessageType},
		{"missing type", "/api/v1/logistics/pick-and-pack/webhook", pickAndPackKey, `{"data":{}}`, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"not json", "/api/v1/logistics/pick-and-pack/webhook", pickAndPackKey, `type=orderStatusChange`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"key of another provider", "/api/v1/logistics/orian/webhook", pickAndPackKey, orderStatusBody, http.StatusForbidden, dto.ErrCodeForbidden},
		{"unknown key", "/api/v1/logistics/pick-and-pack/webhook", "stolen", orderStatusBody, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.body, "Authorization", "Bearer "+tt.key)
			requireError(t, w, tt.status, tt.code)
		})
	}

	assert.Empty(t, env.pendingTasks(t))
}

func TestWebhookHandler_MalformedDataIsStillStored(t *testing.T) {
	env := newTestEnv(t)

	// Only the type is checked at the door. Decoding failures surface when
	// the event is processed and end in the dead-letter list.
	body := `{"type":"orderStatusChange","data":{"STATUS":"PICKED"}}`
	w := env.do(t, http.MethodPost, "/api/v1/logistics/pick-and-pack/webhook", body,
		"Authorization", "Bearer "+pickAndPackKey)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "event_id"))
}
