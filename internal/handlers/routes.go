package handlers

import (
	"github.com/arzan03/medistore/internal/middleware"
	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
)

type Services struct {
	Users     *services.UserService
	Medicines *services.MedicineService
	Orders    *services.OrderService
	Tokens    *services.TokenService

	// RestrictOrderListing puts get-all-orders behind the admin check.
	RestrictOrderListing bool
}

// SetupRoutes registers the API. Static paths are registered before the
// matching /:id routes so they are not captured as ids.
func SetupRoutes(app *fiber.App, s Services) {
	auth := middleware.AuthMiddleware(s.Tokens)
	admin := middleware.AdminMiddleware

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	uh := NewUserHandler(s.Users, s.Tokens)
	user := api.Group("/user")
	user.Post("/register", uh.Register)
	user.Post("/sign-in", uh.SignIn)
	user.Get("/get-user-info", auth, uh.GetUserInfo)
	user.Put("/avatar", auth, uh.UploadAvatar)
	user.Get("/:id", auth, uh.GetUserByID)

	mh := NewMedicineHandler(s.Medicines)
	medicine := api.Group("/medicine", auth)
	medicine.Put("/update-all-stock", admin, mh.UpdateAllStock)
	medicine.Put("/update-stock/:id", admin, mh.UpdateStock)
	medicine.Get("/", mh.List)
	medicine.Post("/", admin, mh.Create)
	medicine.Put("/:id/image", admin, mh.UploadImage)
	medicine.Get("/:id", mh.Get)
	medicine.Put("/:id", admin, mh.Update)
	medicine.Delete("/:id", admin, mh.Delete)

	oh := NewOrderHandler(s.Orders)
	order := api.Group("/order", auth)
	order.Post("/place-order", oh.PlaceOrder)
	order.Get("/get-user-orders", oh.GetUserOrders)
	if s.RestrictOrderListing {
		order.Get("/get-all-orders", admin, oh.GetAllOrders)
	} else {
		order.Get("/get-all-orders", oh.GetAllOrders)
	}
	order.Put("/update-status/:id", admin, oh.UpdateStatus)
	order.Get("/verify-token", oh.VerifyToken)
}
