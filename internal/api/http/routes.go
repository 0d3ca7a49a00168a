package httpapi

import (
	_ "embed"
	"math"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/air-quality-predict/internal/airquality"
	"github.com/i474232898/air-quality-predict/internal/model"
)

//go:embed openapi.json
var openAPISpec []byte

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>AirQualityPredict API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>window.ui = SwaggerUIBundle({url: "/openapi.json", dom_id: "#swagger-ui"});</script>
</body>
</html>`

// Prediction is the body of a successful POST /predict.
type Prediction struct {
	City          string              `json:"city"`
	PredictedPM25 float64             `json:"predicted_pm25"`
	AQICategory   airquality.Category `json:"aqi_category"`
	Unit          string              `json:"unit"`
}

// RegisterRoutes wires the prediction API into the Fiber app. m is shared
// read-only across requests.
func RegisterRoutes(app *fiber.App, m *model.Artifact, city string) {
	app.Post("/predict", func(c *fiber.Ctx) error {
		req, err := bindPredictRequest(c.Body())
		if err != nil {
			return err
		}

		raw, err := m.PredictNamed(req.features())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "prediction failed")
		}

		pm := airquality.Round1(math.Max(raw, 0))
		return c.JSON(Prediction{
			City:          city,
			PredictedPM25: pm,
			AQICategory:   airquality.CategoryFor(pm),
			Unit:          airquality.DefaultUnit,
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "ok",
			"city":         city,
			"model_loaded": true,
			"model_id":     m.ID,
			"trained_at":   m.CreatedAt,
		})
	})

	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(openAPISpec)
	})

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(docsPage)
	})
}
