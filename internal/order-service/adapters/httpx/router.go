package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelar-dev/bookstore-orders/internal/pkg/httpmeta"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpmeta.Attach)
	r.Use(middleware.Recoverer)

	r.Post("/order/place", handler.PlaceOrder)
	r.Get("/order/getAll", handler.GetAll)
	r.Get("/order/getById/{orderId}", handler.GetByID)
	r.Get("/order/status/{status}", handler.GetByStatus)
	r.Patch("/order/update/{orderId}", handler.UpdateStatus)
	r.Delete("/order/cancel/{orderId}", handler.Cancel)
	r.Delete("/order/delete/{orderId}", handler.Delete)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return otelhttp.NewHandler(r, "order-service")
}
