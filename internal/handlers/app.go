package handlers

import (
	"errors"
	"mime/multipart"

	"github.com/arzan03/medistore/internal/middleware"
	"github.com/arzan03/medistore/internal/services"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

const (
	statusSuccess = "Success"
	statusError   = "Error"
)

// NewApp builds the Fiber app with the JSON codec, error handler and the
// middleware shared by every route.
func NewApp(logger zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "medistore",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: ErrorHandler(logger),
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return xid.New().String() },
	}))
	app.Use(middleware.RequestLogger(logger))
	app.Use(recover.New())
	app.Use(cors.New())

	return app
}

// ErrorHandler renders *fiber.Error values with their code and message and
// everything else as a generic 500.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"status": statusError, "message": fe.Message})
		}

		logger.Error().Err(err).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  statusError,
			"message": "Internal server error",
		})
	}
}

func badBody() error {
	return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
}

// formUpload opens the multipart file in field. The caller closes the file.
func formUpload(c *fiber.Ctx, field string) (services.Upload, multipart.File, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return services.Upload{}, nil, fiber.NewError(fiber.StatusBadRequest, "failed to retrieve file")
	}
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, nil, fiber.NewError(fiber.StatusBadRequest, "failed to open file")
	}
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	}, f, nil
}
