package handlers

import (
	"time"

	"github.com/arzan03/medistore/internal/middleware"
	"github.com/arzan03/medistore/internal/models"
	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	users  *services.UserService
	tokens *services.TokenService
}

func NewUserHandler(users *services.UserService, tokens *services.TokenService) *UserHandler {
	return &UserHandler{users: users, tokens: tokens}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	role, err := h.users.RegisterUser(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"role":    role,
	})
}

func (h *UserHandler) SignIn(c *fiber.Ctx) error {
	var req models.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	token, user, err := h.users.LoginUser(c.UserContext(), req)
	if err != nil {
		return err
	}

	ttl := h.tokens.TTL()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		HTTPOnly: true,
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"id":      user.ID.Hex(),
		"role":    user.Role,
		"token":   token,
	})
}

// GetUserInfo returns the caller's own profile as a bare document.
func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (h *UserHandler) GetUserByID(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "data": user})
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	upload, f, err := formUpload(c, "avatar")
	if err != nil {
		return err
	}
	defer f.Close()

	user, err := h.users.UpdateAvatar(c.UserContext(), middleware.CurrentUser(c).UserID, upload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":  statusSuccess,
		"message": "Avatar updated successfully",
		"data":    user,
	})
}
