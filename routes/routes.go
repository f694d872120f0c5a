package routes

import (
	"net/http"

	"boutique/addresses"
	"boutique/auth"
	"boutique/carousel"
	"boutique/categories"
	"boutique/middleware"
	"boutique/models"
	"boutique/orderitems"
	"boutique/orders"
	"boutique/payments"
	"boutique/products"
	"boutique/ratelim"
	"boutique/users"

	"github.com/julienschmidt/httprouter"
)

func admin(next httprouter.Handle) httprouter.Handle {
	return middleware.Authenticate(middleware.RequireRoles(next, models.RoleAdmin, models.RoleSuperAdmin))
}

func superAdmin(next httprouter.Handle) httprouter.Handle {
	return middleware.Authenticate(middleware.RequireRoles(next, models.RoleSuperAdmin))
}

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/uploads/users/*filepath", http.Dir("uploads/users"))
	router.ServeFiles("/uploads/products/*filepath", http.Dir("uploads/products"))
	router.ServeFiles("/uploads/carousel/*filepath", http.Dir("uploads/carousel"))
}

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
	router.POST("/api/auth/token/refresh", ratelim.RateLimit(auth.RefreshToken))
	router.POST("/api/auth/password/forgot", ratelim.RateLimit(auth.ForgotPassword))
	router.POST("/api/auth/password/reset", ratelim.RateLimit(auth.ResetPassword))
}

func AddUserRoutes(router *httprouter.Router) {
	router.GET("/api/users/me", middleware.Authenticate(users.GetProfile))
	router.PUT("/api/users/me", middleware.Authenticate(users.UpdateProfile))
	router.DELETE("/api/users/me", middleware.Authenticate(users.DeleteProfile))
	router.POST("/api/users/me/avatar", middleware.Authenticate(users.UploadAvatar))
	router.DELETE("/api/users/me/avatar", middleware.Authenticate(users.DeleteAvatar))
	router.GET("/api/users/avatar/:id", middleware.OptionalAuth(users.GetAvatar))

	router.GET("/api/users/all", admin(users.GetAllUsers))
	router.GET("/api/users/user/:id", admin(users.GetUserByID))
	router.PUT("/api/users/role/:id", superAdmin(users.ChangeUserRole))
	router.PUT("/api/users/status/:id", admin(users.ChangeUserStatus))
}

func AddAddressRoutes(router *httprouter.Router) {
	router.POST("/api/addresses/create", middleware.Authenticate(addresses.CreateAddress))
	router.GET("/api/addresses/all", middleware.Authenticate(addresses.GetAddresses))
	router.GET("/api/addresses/address/:id", middleware.Authenticate(addresses.GetAddressByID))
	router.PUT("/api/addresses/address/:id", middleware.Authenticate(addresses.UpdateAddress))
	router.DELETE("/api/addresses/address/:id", middleware.Authenticate(addresses.DeleteAddress))
}

func AddCategoryRoutes(router *httprouter.Router) {
	router.POST("/api/categories/create", admin(categories.CreateCategory))
	router.GET("/api/categories/all", middleware.OptionalAuth(categories.GetCategories))
	router.GET("/api/categories/category/:id", middleware.OptionalAuth(categories.GetCategoryByID))
	router.PUT("/api/categories/category/:id", admin(categories.UpdateCategory))
	router.DELETE("/api/categories/category/:id", admin(categories.DeleteCategory))
}

func AddProductRoutes(router *httprouter.Router) {
	router.POST("/api/products/create", admin(products.CreateProduct))
	router.GET("/api/products/all", middleware.OptionalAuth(products.GetProducts))
	router.GET("/api/products/product/:id", middleware.OptionalAuth(products.GetProductByID))
	router.PUT("/api/products/product/:id", admin(products.UpdateProduct))
	router.DELETE("/api/products/product/:id", admin(products.DeleteProduct))

	router.POST("/api/products/stock/decrease/:id", middleware.Authenticate(products.DecreaseStock))
	router.POST("/api/products/stock/increase/:id", admin(products.IncreaseStock))

	router.POST("/api/products/upload/:id", admin(products.UploadProductImage))
	router.DELETE("/api/products/upload/:id", admin(products.DeleteProductImage))
}

func AddOrderRoutes(router *httprouter.Router, h *orders.Handler, hub *orders.Hub) {
	router.POST("/api/orders/create", ratelim.RateLimit(middleware.Authenticate(h.CreateOrder)))
	router.GET("/api/orders/all", middleware.Authenticate(h.GetAllOrders))
	router.GET("/api/orders/order/:id", middleware.Authenticate(h.GetOrder))
	router.PUT("/api/orders/order/:id", middleware.Authenticate(h.UpdateOrder))
	router.DELETE("/api/orders/order/:id", middleware.Authenticate(h.DeleteOrder))
	router.POST("/api/orders/confirm/:id", middleware.Authenticate(h.ConfirmOrder))
	router.POST("/api/orders/refund/:id", admin(h.RefundOrder))
	router.GET("/api/orders/invoice/:id", middleware.Authenticate(h.PrintInvoice))
	router.GET("/ws/orders", middleware.Authenticate(orders.StatusFeed(hub)))
}

func AddOrderItemRoutes(router *httprouter.Router) {
	router.POST("/api/orderitems/create", middleware.Authenticate(orderitems.CreateOrderItem))
	router.GET("/api/orderitems/all", admin(orderitems.GetAllOrderItems))
	router.GET("/api/orderitems/item/:id", middleware.Authenticate(orderitems.GetOrderItemByID))
	router.GET("/api/orderitems/order/:id", middleware.Authenticate(orderitems.GetOrderItemsByOrder))
	router.PUT("/api/orderitems/item/:id", middleware.Authenticate(orderitems.UpdateOrderItem))
	router.DELETE("/api/orderitems/item/:id", middleware.Authenticate(orderitems.DeleteOrderItem))
}

func AddPaymentRoutes(router *httprouter.Router, h *payments.Handler) {
	router.POST("/api/payments/create", ratelim.RateLimit(middleware.Authenticate(h.CreatePayment)))
	router.POST("/api/payments/verify/:id", middleware.Authenticate(h.VerifyPayment))
	router.POST("/api/payments/refund/:id", admin(h.RefundPayment))
	router.POST("/api/payments/webhook", ratelim.RateLimit(h.Webhook))
	router.GET("/api/payments/payment/:id", middleware.Authenticate(h.GetPaymentByID))
	router.GET("/api/payments/all", admin(h.GetAllPayments))
}

func AddCarouselRoutes(router *httprouter.Router) {
	router.GET("/api/carousel", carousel.GetCarousel)
	router.POST("/api/carousel/upload", admin(carousel.UploadCarouselImage))
	router.DELETE("/api/carousel/image", admin(carousel.DeleteCarouselImage))
}

// RoutesWrapper registers every route group.
func RoutesWrapper(router *httprouter.Router, orderHandler *orders.Handler, paymentHandler *payments.Handler, hub *orders.Hub) {
	AddAuthRoutes(router)
	AddUserRoutes(router)
	AddAddressRoutes(router)
	AddCategoryRoutes(router)
	AddProductRoutes(router)
	AddOrderRoutes(router, orderHandler, hub)
	AddOrderItemRoutes(router)
	AddPaymentRoutes(router, paymentHandler)
	AddCarouselRoutes(router)
	AddStaticRoutes(router)
}
