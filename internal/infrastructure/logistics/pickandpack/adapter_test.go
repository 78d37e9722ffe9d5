package pickandpack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
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

type fakePickAndPack struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakePickAndPack(t *testing.T, status int, body string) (*fakePickAndPack, *httptest.Server) {
	t.Helper()
	f := &fakePickAndPack{status: status, body: body}
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

func (f *fakePickAndPack) last(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func (f *fakePickAndPack) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordingObserver struct {
	operations []string
	errs       []error
}

func (o *recordingObserver) ProviderCall(_ context.Context, provider, operation string, _ time.Duration, err error) {
	o.operations = append(o.operations, provider+"/"+operation)
	o.errs = append(o.errs, err)
}

func newTestAdapter(t *testing.T, serverURL, token string, opts ...Option) *Adapter {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	a, err := NewAdapter(&Config{
		InboundURL:  serverURL + "/inbound",
		OutboundURL: serverURL + "/outbound",
		Token:       token,
		Consignee:   "NKS",
		IDPrefix:    "P",
		Location:    loc,
		Timeout:     5 * time.Second,
	}, opts...)
	require.NoError(t, err)
	return a
}

func lines(t *testing.T, data map[string]any) []map[string]any {
	t.Helper()
	group, ok := data["LINES"].(map[string]any)
	require.True(t, ok)
	raw, ok := group["LINE"].([]any)
	require.True(t, ok)
	out := make([]map[string]any, 0, len(raw))
	for _, l := range raw {
		out = append(out, l.(map[string]any))
	}
	return out
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Config{OutboundURL: "x"}).Validate(), ErrConfigMissingInboundURL)
	assert.ErrorIs(t, (&Config{InboundURL: "x"}).Validate(), ErrConfigMissingOutboundURL)
	assert.NoError(t, (&Config{InboundURL: "x", OutboundURL: "y"}).Validate())
}

// ---------------------------------------------------------------------------
// Master data
// ---------------------------------------------------------------------------

func TestAdapter_MasterDataSyncIsNoop(t *testing.T) {
	fake, server := newFakePickAndPack(t, http.StatusOK, `{}`)
	a := newTestAdapter(t, server.URL, "")

	require.NoError(t, a.SyncSupplier(context.Background(), &catalog.Supplier{BaseEntity: shared.BaseEntity{ID: 1}, Name: "Acme"}))
	require.NoError(t, a.SyncProduct(context.Background(), &catalog.Product{BaseEntity: shared.BaseEntity{ID: 1}, SKU: "A"}))
	assert.Equal(t, 0, fake.count())
	assert.Equal(t, logistics.ProviderPickAndPack, a.Provider())
}

// ---------------------------------------------------------------------------
// Inbound
// ---------------------------------------------------------------------------

func TestAdapter_SubmitInbound(t *testing.T) {
	fake, server := newFakePickAndPack(t, http.StatusOK, `{"PRIORITYPOID":"PO2400017","STATUS":"Draft"}`)
	a := newTestAdapter(t, server.URL, "secret")

	ack, err := a.SubmitInbound(context.Background(), logistics.InboundShipment{
		PurchaseOrderID: 42,
		Supplier:        catalog.Supplier{BaseEntity: shared.BaseEntity{ID: 9}, Name: `"Best" Gifts`},
		Lines: []logistics.ShipmentLine{
			{SKU: "MUG-1", Description: `Mug "XL"`, ManufacturerSKU: "M-100", Quantity: 12},
		},
	}, time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "PO2400017", ack.LogisticsCenterID)
	assert.Equal(t, "Draft", ack.Status)

	req := fake.last(t)
	assert.Equal(t, "/inbound", req.Path)
	assert.Equal(t, "Bearer secret", req.Authorization)
	assert.Equal(t, "NKSP42", req.Data["ORDERID"])
	assert.Equal(t, "Best Gifts", req.Data["SOURCECOMPANY"])
	assert.Equal(t, "VENDOR", req.Data["COMPANYTYPE"])
	assert.Equal(t, "05-03-2024", req.Data["CREATEDATE"])

	ls := lines(t, req.Data)
	require.Len(t, ls, 1)
	assert.Equal(t, "MUG-1", ls[0]["SKU"])
	assert.Equal(t, "Mug XL", ls[0]["SKUDESCRIPTION"])
	assert.Equal(t, "M-100", ls[0]["MANUFACTURERSKU"])
	assert.EqualValues(t, 12, ls[0]["QTYORDERED"])
}

func TestAdapter_SubmitInbound_NumericPOID(t *testing.T) {
	_, server := newFakePickAndPack(t, http.StatusOK, `{"PRIORITYPOID":2400017,"STATUS":"Draft"}`)
	a := newTestAdapter(t, server.URL, "")

	ack, err := a.SubmitInbound(context.Background(), logistics.InboundShipment{PurchaseOrderID: 1}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "2400017", ack.LogisticsCenterID)
}

func TestAdapter_NoTokenSendsNoAuthorization(t *testing.T) {
	fake, server := newFakePickAndPack(t, http.StatusOK, `{}`)
	a := newTestAdapter(t, server.URL, "")

	_, err := a.SubmitInbound(context.Background(), logistics.InboundShipment{PurchaseOrderID: 1}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, fake.last(t).Authorization)
}

// ---------------------------------------------------------------------------
// Outbound
// ---------------------------------------------------------------------------

func officeShipment() logistics.OutboundShipment {
	return logistics.OutboundShipment{
		OrderID:     7,
		OrderNumber: "ORD-7",
		ToOffice:    true,
		GroupingID:  31,
		CompanyName: `Big "Corp"`,
		Address:     logistics.Address{Street: "Herzl", StreetNumber: "5", Apartment: "3", City: "Haifa"},
		Contact1:    logistics.Contact{Name: "Dana", Phone: "050", Email: "dana@corp.test"},
		Contact2:    logistics.Contact{Name: "Manager", Phone: "052"},
		BundleSKUs:  []string{"BOX-1", "BOX-1"},
		Lines: []logistics.ShipmentLine{
			{SKU: "PEN-1", Description: "Pen", Quantity: 4},
		},
	}
}

func TestAdapter_SubmitOutbound_Office(t *testing.T) {
	fake, server := newFakePickAndPack(t, http.StatusOK, `{"PRIORITY_ORDER_ID":"SO-99"}`)
	a := newTestAdapter(t, server.URL, "")

	ack, err := a.SubmitOutbound(context.Background(), officeShipment(), time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "SO-99", ack.LogisticsCenterID)

	req := fake.last(t)
	assert.Equal(t, "/outbound", req.Path)
	assert.Equal(t, "ORD-7", req.Data["ORDERID"])
	assert.Equal(t, "CUSTOMER", req.Data["ROUTE"])
	assert.Equal(t, "Big Corp", req.Data["COMPANYNAME"])
	assert.Equal(t, "NKSP31", req.Data["REFERENCEORD"])
	assert.Equal(t, "BOX-1|||BOX-1", req.Data["BUNDLE"])
	assert.NotContains(t, req.Data, "TARGETCOMPANY")

	contact, ok := req.Data["CONTACT"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Herzl 5", contact["STREET1"])
	assert.Equal(t, "דירה 3", contact["STREET2"])
	assert.Equal(t, "Manager", contact["CONTACT2NAME"])

	ls := lines(t, req.Data)
	require.Len(t, ls, 1)
	assert.EqualValues(t, 4, ls[0]["QTYORIGINAL"])
	assert.Equal(t, "Pen", ls[0]["SKUDESCRIPTION"])
}

func TestAdapter_SubmitOutbound_Home(t *testing.T) {
	fake, server := newFakePickAndPack(t, http.StatusOK, `{"PRIORITY_ORDER_ID":"SO-100"}`)
	a := newTestAdapter(t, server.URL, "")

	s := officeShipment()
	s.ToOffice = false
	s.GroupingID = 0
	s.CompanyName = ""
	s.Address.Apartment = ""
	s.BundleSKUs = nil
	s.DeliveryComments = `ring "twice"`

	_, err := a.SubmitOutbound(context.Background(), s, time.Now())
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "ORIAN", req.Data["ROUTE"])
	assert.Equal(t, "", req.Data["COMPANYNAME"])
	assert.Equal(t, "", req.Data["REFERENCEORD"])
	assert.Equal(t, "", req.Data["BUNDLE"])
	detail := req.Data["SHIPPINGDETAIL"].(map[string]any)
	assert.Equal(t, "ring twice", detail["DELIVERYCOMMENTS"])
	contact := req.Data["CONTACT"].(map[string]any)
	assert.Equal(t, "", contact["STREET2"])
}

func TestAdapter_SubmitOutbound_TruncatesBundle(t *testing.T) {
	fake, server := newFakePickAndPack(t, http.StatusOK, `{"PRIORITY_ORDER_ID":"SO-1"}`)
	a := newTestAdapter(t, server.URL, "")

	s := officeShipment()
	s.BundleSKUs = nil
	for i := 0; i < 30; i++ {
		s.BundleSKUs = append(s.BundleSKUs, "BUNDLE-SKU")
	}
	_, err := a.SubmitOutbound(context.Background(), s, time.Now())
	require.NoError(t, err)

	bundle := fake.last(t).Data["BUNDLE"].(string)
	assert.Len(t, []rune(bundle), 120)
	assert.True(t, strings.HasPrefix(bundle, "BUNDLE-SKU|||BUNDLE-SKU"))
}

// ---------------------------------------------------------------------------
// Failures
// ---------------------------------------------------------------------------

func TestAdapter_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"bad request", http.StatusBadRequest, `{}`},
		{"not json", http.StatusOK, `<html>ok</html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, server := newFakePickAndPack(t, tt.status, tt.body)
			observer := &recordingObserver{}
			a := newTestAdapter(t, server.URL, "", WithObserver(observer))

			_, err := a.SubmitOutbound(context.Background(), officeShipment(), time.Now())
			assert.ErrorIs(t, err, logistics.ErrProviderRejected)
			require.Len(t, observer.errs, 1)
			assert.Equal(t, "PICK_AND_PACK/submit_outbound", observer.operations[0])
			assert.Error(t, observer.errs[0])
		})
	}
}

func TestAdapter_TransportError(t *testing.T) {
	_, server := newFakePickAndPack(t, http.StatusOK, `{}`)
	a := newTestAdapter(t, server.URL, "")
	server.Close()

	_, err := a.SubmitInbound(context.Background(), logistics.InboundShipment{PurchaseOrderID: 1}, time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, logistics.ErrProviderRejected)
}
