package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/arzan03/medistore/internal/db"
	"github.com/arzan03/medistore/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{9,14}$`)

const msgInvalidCredentials = "Invalid credentials"

type UserService struct {
	users       UserStore
	images      ImageStore
	tokens      *TokenService
	adminEmails map[string]struct{}
	logger      zerolog.Logger
}

func NewUserService(users UserStore, images ImageStore, tokens *TokenService, adminEmails []string, logger zerolog.Logger) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = struct{}{}
	}
	return &UserService{
		users:       users,
		images:      images,
		tokens:      tokens,
		adminEmails: admins,
		logger:      logger,
	}
}

// RegisterUser validates the request, hashes the password and stores the
// user. It returns the role that was assigned.
func (s *UserService) RegisterUser(ctx context.Context, req models.RegisterRequest) (string, error) {
	if len(req.Username) < 4 {
		return "", fiber.NewError(fiber.StatusBadRequest, "Username should be at least 4 characters long")
	}
	if taken, err := s.users.ExistsByField(ctx, "username", req.Username); err != nil {
		return "", fmt.Errorf("check username: %w", err)
	} else if taken {
		return "", fiber.NewError(fiber.StatusBadRequest, "Username already exists")
	}
	if taken, err := s.users.ExistsByField(ctx, "email", req.Email); err != nil {
		return "", fmt.Errorf("check email: %w", err)
	} else if taken {
		return "", fiber.NewError(fiber.StatusConflict, "Email already exists")
	}
	if len(req.Password) < 6 {
		return "", fiber.NewError(fiber.StatusBadRequest, "Password should be at least 6 characters long")
	}
	if len(req.Address) < 6 {
		return "", fiber.NewError(fiber.StatusBadRequest, "Address should be at least 6 characters long")
	}
	if !phonePattern.MatchString(req.Phone) {
		return "", fiber.NewError(fiber.StatusBadRequest, "Please enter a valid phone number")
	}
	if taken, err := s.users.ExistsByField(ctx, "phone", req.Phone); err != nil {
		return "", fmt.Errorf("check phone: %w", err)
	} else if taken {
		return "", fiber.NewError(fiber.StatusConflict, "Phone number already registered")
	}

	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	role := models.RoleUser
	if _, ok := s.adminEmails[strings.ToLower(req.Email)]; ok {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Phone:    req.Phone,
		Address:  req.Address,
		Avatar:   models.DefaultAvatar,
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the existence checks.
		if errors.Is(err, db.ErrDuplicate) {
			return "", fiber.NewError(fiber.StatusConflict, "Username, email or phone already registered")
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.Hex()).Str("role", role).Msg("User registered")
	return role, nil
}

// LoginUser checks the credentials and returns a signed token with the user.
func (s *UserService) LoginUser(ctx context.Context, req models.SignInRequest) (string, *models.User, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if errors.Is(err, db.ErrNotFound) {
		return "", nil, fiber.NewError(fiber.StatusNotFound, msgInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if !VerifyPassword(req.Password, user.Password) {
		s.logger.Warn().Str("username", req.Username).Msg("Failed sign-in attempt")
		return "", nil, fiber.NewError(fiber.StatusBadRequest, msgInvalidCredentials)
	}

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", nil, err
	}
	user.Password = ""
	return token, user, nil
}

// GetUser returns the user without the password hash.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}

	user, err := s.users.FindByID(ctx, objID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, id string, file Upload) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid user ID format")
	}
	if !isImage(file.ContentType) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Avatar must be an image")
	}

	url, err := s.images.Upload(ctx, "avatars", file.Filename, file.Body, file.Size, file.ContentType)
	if err != nil {
		return nil, err
	}

	user, err := s.users.SetAvatar(ctx, objID, url)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return user, nil
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
