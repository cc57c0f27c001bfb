package api

import (
	"net/http"

	"github.com/Abdi-Suufi/sweetshop/internal/api/middleware"
	"github.com/Abdi-Suufi/sweetshop/internal/auth"
)

func NewRouter(handlers *Handlers, sessions *SessionHandlers, tokens *auth.TokenService, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	withIdentity := middleware.EnsureIdentity(tokens)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return withIdentity(middleware.RequireAdmin()(h))
	}

	// Catalog (public)
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetItems(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/items/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetItem(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Session
	mux.HandleFunc("/session/anonymous", methodHandler(http.MethodPost, sessions.Anonymous))
	mux.HandleFunc("/session/token", methodHandler(http.MethodPost, sessions.Token))
	mux.HandleFunc("/session/admin", methodHandler(http.MethodPost, sessions.Admin))
	mux.HandleFunc("/session/signout", methodHandler(http.MethodPost, sessions.SignOut))

	// Basket
	mux.Handle("/basket", withIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetBasket(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/basket/items", withIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.AddToBasket(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/basket/items/", withIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handlers.SetBasketQuantity(w, r)
		case http.MethodDelete:
			handlers.RemoveFromBasket(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Orders
	mux.Handle("/orders", withIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetMyOrders(w, r)
		case http.MethodPost:
			handlers.PlaceOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Admin
	mux.Handle("/admin/items", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.CreateItem(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/admin/items/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			handlers.UpdateItem(w, r)
		case http.MethodDelete:
			handlers.DeleteItem(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/admin/orders", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetAllOrders(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle("/admin/orders/", adminOnly(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut:
			handlers.UpdateOrderStatus(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// Notifications
	mux.HandleFunc("/notifications", methodHandler(http.MethodGet, handlers.GetNotifications))
	mux.HandleFunc("/notifications/", methodHandler(http.MethodDelete, handlers.DismissNotification))

	// Ops
	mux.HandleFunc("/healthz", methodHandler(http.MethodGet, handlers.Health))
	mux.Handle("/metrics", metricsHandler)

	return withLogging(mux)
}

func methodHandler(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		println("[API]", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
