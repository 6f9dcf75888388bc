// routes/routes.go
package routes

import (
	"event-registration/controllers"
	"event-registration/middleware"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, paymentController *controllers.PaymentController, sportController *controllers.SportController, adminController *controllers.AdminController, limiter *middleware.RateLimiter) {
	// Liveness lives on the server root so probes skip the API prefix
	router.HandleFunc("/health", controllers.Health).Methods("GET", "HEAD")

	api := router.PathPrefix("/api").Subrouter()

	// Payment routes
	payment := api.PathPrefix("/payment").Subrouter()
	if limiter != nil {
		payment.Use(limiter.Middleware)
	}
	payment.HandleFunc("/create-order", paymentController.CreateOrder).Methods("POST")
	payment.HandleFunc("/verify", paymentController.VerifyPayment).Methods("POST")
	payment.HandleFunc("/{orderId}", paymentController.GetPaymentStatus).Methods("GET")
	payment.HandleFunc("/{orderId}/document", paymentController.UploadDocument).Methods("POST")

	// Sport routes
	api.HandleFunc("/sports", sportController.GetSports).Methods("GET")
	api.HandleFunc("/sports/{id}", sportController.GetSportByID).Methods("GET")

	// Admin routes
	api.HandleFunc("/admin/login", adminController.Login).Methods("POST")

	admin := api.PathPrefix("").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/registrations", adminController.ListRegistrations).Methods("GET")
	admin.HandleFunc("/admin/payments", adminController.ListPayments).Methods("GET")
	admin.HandleFunc("/admin/sports/{id}", sportController.PutSport).Methods("PUT")
	admin.HandleFunc("/admin/sports/{id}", sportController.DeleteSport).Methods("DELETE")
}
