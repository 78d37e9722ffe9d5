package orian

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type recordedRequest struct {
	Path          string
	Authorization string
	Data          map[string]any
}

type fakeOrian struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeOrian(t *testing.T, status int, body string) (*fakeOrian, *httptest.Server) {
	t.Helper()
	f := &fakeOrian{status: status, body: body}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var envelope struct {
			DataCollection struct {
				Data map[string]any `json:"DATA"`
			} `json:"DATACOLLECTION"`
		}
		_ = json.Unmarshal(raw, &envelope)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Data:          envelope.DataCollection.Data,
		})
		f.mu.Unlock()
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeOrian) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

type observedCall struct {
	operation string
	err       error
}

type recordingObserver struct {
	calls []observedCall
}

func (o *recordingObserver) ProviderCall(_ context.Context, provider, operation string, _ time.Duration, err error) {
	o.calls = append(o.calls, observedCall{operation: operation, err: err})
}

func newTestAdapter(t *testing.T, baseURL string, opts ...Option) *Adapter {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	a, err := NewAdapter(&Config{
		BaseURL:   baseURL,
		Token:     "secret",
		Consignee: "NKS",
		IDPrefix:  "T",
		Location:  loc,
		Timeout:   5 * time.Second,
		DummyCustomer: DummyCustomer{
			ID: 1, Name: "Nicklas", Street: "Hamasger", StreetNumber: "3", City: "Tel Aviv", Phone: "03-0000000",
		},
	}, opts...)
	require.NoError(t, err)
	return a
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Config{Token: "x"}).Validate(), ErrConfigMissingBaseURL)
	assert.ErrorIs(t, (&Config{BaseURL: "http://x"}).Validate(), ErrConfigMissingToken)
	assert.NoError(t, (&Config{BaseURL: "http://x", Token: "x"}).Validate())

	_, err := NewAdapter(&Config{})
	assert.ErrorIs(t, err, ErrConfigMissingBaseURL)
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

func TestAdapter_SyncSupplier(t *testing.T) {
	fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
	a := newTestAdapter(t, server.URL)

	supplier := &catalog.Supplier{Name: "Gifts Ltd", Street: "Herzl", StreetNumber: "10", City: "Haifa", Phone: "04-1234567"}
	supplier.ID = 42
	require.NoError(t, a.SyncSupplier(context.Background(), supplier))

	req := fake.last(t)
	assert.Equal(t, "/Company", req.Path)
	assert.Equal(t, "bearer secret", req.Authorization)
	assert.Equal(t, "VENDOR", req.Data["COMPANYTYPE"])
	assert.Equal(t, "NKST42", req.Data["COMPANY"])
	assert.Equal(t, "Gifts Ltd", req.Data["COMPANYNAME"])
	contacts := req.Data["CONTACTS"].(map[string]any)["CONTACT"].([]any)
	require.Len(t, contacts, 1)
	contact := contacts[0].(map[string]any)
	assert.Equal(t, "Herzl 10", contact["STREET1"])
	assert.Equal(t, "Gifts Ltd", contact["CONTACT1NAME"])
}

func TestAdapter_SyncCustomer(t *testing.T) {
	fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCSESS"}`)
	a := newTestAdapter(t, server.URL)

	require.NoError(t, a.SyncCustomer(context.Background()))
	req := fake.last(t)
	assert.Equal(t, "CUSTOMER", req.Data["COMPANYTYPE"])
	assert.Equal(t, "NKST1", req.Data["COMPANY"])
	assert.Equal(t, "Nicklas", req.Data["COMPANYNAME"])
}

func TestAdapter_SyncProduct(t *testing.T) {
	fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
	a := newTestAdapter(t, server.URL)

	product := &catalog.Product{SKU: "MUG-1", Reference: "M-100", Name: "Mug", LocalName: `ספל "גדול" 'חדש'`}
	require.NoError(t, a.SyncProduct(context.Background(), product))

	req := fake.last(t)
	assert.Equal(t, "/Sku", req.Path)
	assert.Equal(t, "MUG-1", req.Data["SKU"])
	assert.Equal(t, "ספל גדול חדש", req.Data["SKUDESCRIPTION"])
	assert.Equal(t, "ספל גדול חדש", req.Data["SKUSHORTDESC"])
	assert.Equal(t, "M-100", req.Data["MANUFACTURERSKU"])
	assert.Equal(t, "AVAILABLE", req.Data["INITIALSTATUS"])
	assert.Equal(t, "EACH", req.Data["DEFAULTUOM"])
	assert.Equal(t, "", req.Data["VENDORSKU"])
}

func TestAdapter_SyncProduct_TruncatesLongNames(t *testing.T) {
	fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
	a := newTestAdapter(t, server.URL)

	long := make([]rune, 300)
	for i := range long {
		long[i] = 'א'
	}
	require.NoError(t, a.SyncProduct(context.Background(), &catalog.Product{SKU: "X", Name: string(long)}))

	req := fake.last(t)
	assert.Len(t, []rune(req.Data["SKUDESCRIPTION"].(string)), 255)
	assert.Len(t, []rune(req.Data["SKUSHORTDESC"].(string)), 150)
}

func TestAdapter_SubmitInbound(t *testing.T) {
	fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
	a := newTestAdapter(t, server.URL)

	supplier := catalog.Supplier{Name: "Gifts Ltd"}
	supplier.ID = 7
	// 23:30 UTC is already the next day in Israel
	at := time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC)
	ack, err := a.SubmitInbound(context.Background(), logistics.InboundShipment{
		PurchaseOrderID: 15,
		Supplier:        supplier,
		Lines: []logistics.ShipmentLine{
			{SKU: "MUG-1", Quantity: 3},
			{SKU: "PEN-1", Quantity: 5},
		},
	}, at)
	require.NoError(t, err)
	assert.Equal(t, "NKST15", ack.LogisticsCenterID)

	req := fake.last(t)
	assert.Equal(t, "/Inbound", req.Path)
	assert.Equal(t, "NKST15", req.Data["ORDERID"])
	assert.Equal(t, "PO", req.Data["ORDERTYPE"])
	assert.Equal(t, "NKST7", req.Data["SOURCECOMPANY"])
	assert.Equal(t, "05-03-2024", req.Data["CREATEDATE"])
	lines := req.Data["LINES"].(map[string]any)["LINE"].([]any)
	require.Len(t, lines, 2)
	second := lines[1].(map[string]any)
	assert.Equal(t, float64(1), second["ORDERLINE"])
	assert.Equal(t, "PEN-1", second["SKU"])
	assert.Equal(t, float64(5), second["QTYORDERED"])
}

func TestAdapter_SubmitOutbound(t *testing.T) {
	t.Run("office delivery is grouped", func(t *testing.T) {
		fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
		a := newTestAdapter(t, server.URL)

		ack, err := a.SubmitOutbound(context.Background(), logistics.OutboundShipment{
			OrderNumber: "ORD-1",
			ToOffice:    true,
			GroupingID:  77,
			Address:     logistics.Address{Street: "Rothschild", StreetNumber: "1", Apartment: "4", City: "Tel Aviv"},
			Contact1:    logistics.Contact{Name: "Noa", Phone: "054", Email: "noa@acme.test"},
			Contact2:    logistics.Contact{Name: "Dana", Phone: "052", Email: "dana@acme.test"},
			Lines:       []logistics.ShipmentLine{{SKU: "MUG-1", Quantity: 2}},
		}, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, ack.LogisticsCenterID)

		req := fake.last(t)
		assert.Equal(t, "/Outbound", req.Path)
		assert.Equal(t, "ORD-1", req.Data["ORDERID"])
		assert.Equal(t, "NKST77", req.Data["REFERENCEORD"])
		assert.Equal(t, "NKST1", req.Data["TARGETCOMPANY"])
		assert.Equal(t, "CUSTOMER", req.Data["ROUTE"])
		assert.Equal(t, "04-03-2024", req.Data["REQUESTEDDATE"])
		contact := req.Data["CONTACT"].(map[string]any)
		assert.Equal(t, "Rothschild 1", contact["STREET1"])
		assert.Equal(t, "דירה 4", contact["STREET2"])
		assert.Equal(t, "Dana", contact["CONTACT2NAME"])
		assert.Equal(t, "dana@acme.test", contact["CONTACT2EMAIL"])
		line := req.Data["LINES"].(map[string]any)["LINE"].([]any)[0].(map[string]any)
		assert.Equal(t, float64(2), line["QTYORIGINAL"])
	})

	t.Run("home delivery is routed by orian", func(t *testing.T) {
		fake, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
		a := newTestAdapter(t, server.URL)

		_, err := a.SubmitOutbound(context.Background(), logistics.OutboundShipment{
			OrderNumber:      "ORD-2",
			Address:          logistics.Address{Street: "Hanamal", StreetNumber: "5", City: "Haifa"},
			DeliveryComments: "Leave at the door",
			Lines:            []logistics.ShipmentLine{{SKU: "MUG-1", Quantity: 1}},
		}, time.Now())
		require.NoError(t, err)

		req := fake.last(t)
		assert.Equal(t, "ORIAN", req.Data["ROUTE"])
		assert.Equal(t, "", req.Data["REFERENCEORD"])
		assert.Equal(t, "", req.Data["CONTACT"].(map[string]any)["STREET2"])
		assert.Equal(t, "Leave at the door", req.Data["SHIPPINGDETAIL"].(map[string]any)["DELIVERYCOMMENTS"])
	})
}

func TestAdapter_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status not in allow-list", http.StatusOK, `{"status":"FAILURE"}`},
		{"http error", http.StatusInternalServerError, `{"status":"SUCCESS"}`},
		{"non json body", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, server := newFakeOrian(t, tt.status, tt.body)
			observer := &recordingObserver{}
			a := newTestAdapter(t, server.URL, WithObserver(observer))

			err := a.SyncCustomer(context.Background())
			assert.ErrorIs(t, err, logistics.ErrProviderRejected)
			require.Len(t, observer.calls, 1)
			assert.Equal(t, "sync_customer", observer.calls[0].operation)
			assert.Error(t, observer.calls[0].err)
		})
	}
}

func TestAdapter_TransportError(t *testing.T) {
	_, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
	server.Close()
	a := newTestAdapter(t, server.URL)

	err := a.SyncProduct(context.Background(), &catalog.Product{SKU: "X"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, logistics.ErrProviderRejected)
}

func TestAdapter_ReportsSuccessToObserver(t *testing.T) {
	_, server := newFakeOrian(t, http.StatusOK, `{"status":"SUCCESS"}`)
	observer := &recordingObserver{}
	a := newTestAdapter(t, server.URL, WithObserver(observer))

	_, err := a.SubmitInbound(context.Background(), logistics.InboundShipment{PurchaseOrderID: 1}, time.Now())
	require.NoError(t, err)
	require.Len(t, observer.calls, 1)
	assert.Equal(t, "submit_inbound", observer.calls[0].operation)
	assert.NoError(t, observer.calls[0].err)
}
