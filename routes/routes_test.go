package routes

import (
	"net/http"
	"testing"

	"boutique/orders"
	"boutique/payments"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *httprouter.Router {
	router := httprouter.New()
	lifecycle := orders.NewLifecycle(nil, nil)
	hub := orders.NewHub()
	RoutesWrapper(router, orders.NewHandler(lifecycle), payments.NewHandler(lifecycle, &payments.HMACVerifier{Secret: []byte("test")}), hub)
	return router
}

func TestRegisteredRoutes(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/register"},
		{http.MethodPost, "/api/auth/login"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodPost, "/api/users/me/avatar"},
		{http.MethodDelete, "/api/users/me/avatar"},
		{http.MethodGet, "/api/users/avatar/u123"},
		{http.MethodPost, "/api/orders/create"},
		{http.MethodGet, "/api/orders/invoice/o123"},
		{http.MethodPost, "/api/payments/webhook"},
		{http.MethodGet, "/api/carousel"},
		{http.MethodGet, "/ws/orders"},
	}
	for _, c := range cases {
		handle, _, _ := router.Lookup(c.method, c.path)
		require.NotNil(t, handle, "%s %s not registered", c.method, c.path)
	}
}
