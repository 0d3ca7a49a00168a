package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("integer", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})
	return v
}

// predictRequest carries today's readings and the calendar of the predicted day.
// Pointers distinguish a missing field from an explicit zero.
type predictRequest struct {
	PM25      *float64 `json:"pm25" validate:"required,gte=0"`
	Lag1      *float64 `json:"pm25_lag_1" validate:"required,gte=0"`
	Lag2      *float64 `json:"pm25_lag_2" validate:"required,gte=0"`
	Lag7      *float64 `json:"pm25_lag_7" validate:"required,gte=0"`
	Rolling3  *float64 `json:"pm25_rolling_3" validate:"required,gte=0"`
	Rolling7  *float64 `json:"pm25_rolling_7" validate:"required,gte=0"`
	DayOfWeek *float64 `json:"day_of_week" validate:"required,integer,gte=0,lte=6"`
	Month     *float64 `json:"month" validate:"required,integer,gte=1,lte=12"`
}

// features returns the values keyed by feature column name.
func (r predictRequest) features() map[string]float64 {
	return map[string]float64{
		"pm25":           *r.PM25,
		"pm25_lag_1":     *r.Lag1,
		"pm25_lag_2":     *r.Lag2,
		"pm25_lag_7":     *r.Lag7,
		"pm25_rolling_3": *r.Rolling3,
		"pm25_rolling_7": *r.Rolling7,
		"day_of_week":    *r.DayOfWeek,
		"month":          *r.Month,
	}
}

// bindPredictRequest decodes and validates the body. Malformed JSON is a 400;
// field-level problems come back as a *ValidationError naming each field.
func bindPredictRequest(body []byte) (predictRequest, error) {
	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return req, fiber.NewError(fiber.StatusBadRequest, "request body must be a JSON object")
			}
			return req, &ValidationError{Fields: map[string]string{
				typeErr.Field: fmt.Sprintf("must be a number, got %s", typeErr.Value),
			}}
		}
		return req, fiber.NewError(fiber.StatusBadRequest, "malformed JSON: "+err.Error())
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return req, err
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
		return req, &ValidationError{Fields: fields}
	}
	return req, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "integer":
		return "must be an integer"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
