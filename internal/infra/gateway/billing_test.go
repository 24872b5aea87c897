package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robtrove/TroveCRM/internal/domain"
)

func TestSubscriptionsAreCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test_key", user)
		assert.Equal(t, "/api/v2/subscriptions", r.URL.Path)
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer_id[is]"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"list":[{"subscription":{"id":"sub_1","plan_id":"pro","status":"active","current_term_start":1704067200,"current_term_end":1706745600,"plan_amount":4900}}]}`))
	}))
	defer srv.Close()

	gw := NewBillingGateway(srv.URL+"/", "test_key", time.Minute)

	subs, err := gw.Subscriptions(context.Background(), "cus_1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_1", subs[0].ID)
	assert.Equal(t, int64(4900), subs[0].PlanAmount)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), subs[0].CurrentTermStart)

	_, err = gw.Subscriptions(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPortalSessionPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/portal_sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_1", r.PostForm.Get("customer[id]"))
		w.Write([]byte(`{"portal_session":{"access_url":"https://billing.example.com/portal/abc","expires_at":1704067200}}`))
	}))
	defer srv.Close()

	gw := NewBillingGateway(srv.URL, "test_key", time.Minute)
	session, err := gw.PortalSession(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example.com/portal/abc", session.URL)
	assert.Equal(t, int64(1704067200), session.ExpiresAt.Unix())
}

func TestCheckoutSessionWithoutCustomer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pro-monthly", r.PostForm.Get("subscription_items[item_price_id][0]"))
		assert.Empty(t, r.PostForm.Get("customer[id]"))
		w.Write([]byte(`{"hosted_page":{"url":"https://billing.example.com/checkout/xyz","expires_at":1704067200}}`))
	}))
	defer srv.Close()

	gw := NewBillingGateway(srv.URL, "test_key", time.Minute)
	session, err := gw.CheckoutSession(context.Background(), "pro-monthly", "")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example.com/checkout/xyz", session.URL)
}

func TestGatewayErrorMapping(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := int(status.Load())
		w.WriteHeader(code)
		if code == http.StatusBadRequest {
			w.Write([]byte(`{"message":"plan is archived","param":"item_price_id"}`))
		}
	}))
	defer srv.Close()

	gw := NewBillingGateway(srv.URL, "test_key", time.Minute)

	_, err := gw.Invoices(context.Background(), "cus_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	status.Store(http.StatusBadRequest)
	_, err = gw.CheckoutSession(context.Background(), "old", "")
	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "item_price_id", verr.Field)
	assert.Equal(t, "plan is archived", verr.Message)

	status.Store(http.StatusBadGateway)
	_, err = gw.Invoices(context.Background(), "cus_2")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
