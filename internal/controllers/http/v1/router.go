package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/swaggo/swag"

	"github.com/emeersman/design-for-iot/docs"
	"github.com/emeersman/design-for-iot/internal/repositories"
	"github.com/emeersman/design-for-iot/internal/services/climate"
	"github.com/emeersman/design-for-iot/pkg/logger"
)

type routes struct {
	store           repositories.HistoryRepository
	renderer        *climate.Renderer
	defaultLocation string
	now             func() time.Time
	l               *logger.Logger
}

func NewRouter(
	app *fiber.App,
	store repositories.HistoryRepository,
	renderer *climate.Renderer,
	defaultLocation string,
	l *logger.Logger,
) {
	r := &routes{
		store:           store,
		renderer:        renderer,
		defaultLocation: defaultLocation,
		now:             time.Now,
		l:               l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			r.l.Error(err)
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "Failed to read Swagger documentation"})
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	api := app.Group("/api/v1")
	api.Get("/history", r.handleHistory)
	api.Get("/history/plot", r.handlePlot)
}
