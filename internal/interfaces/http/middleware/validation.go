package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/interfaces/http/dto"
)

// SetupValidator registers the billing tags on gin's validator and makes
// field errors report JSON names
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterValidations(v)
}

// RegisterValidations installs the tag name function and custom tags on v
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	if err := v.RegisterValidation("fee_cycle", validateFeeCycle); err != nil {
		return err
	}
	return v.RegisterValidation("payment_mode", validatePaymentMode)
}

func validateFeeCycle(fl validator.FieldLevel) bool {
	_, err := fee.ParseFeeCycle(fl.Field().String())
	return err == nil
}

func validatePaymentMode(fl validator.FieldLevel) bool {
	_, err := fee.ParsePaymentMode(fl.Field().String())
	return err == nil
}

// FormatValidationErrors converts a binding error into the VALIDATION_ERROR
// envelope. Errors that are not field errors (malformed JSON, wrong types)
// produce a single detail-less message.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Malformed request body", requestID, nil)
	}
	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError answers 400 with the formatted binding error
func HandleValidationError(c *gin.Context, err error) {
	c.Set(ErrorCodeKey, "VALIDATION_ERROR")
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString("request_id")))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "datetime":
		return "Must be a date formatted " + e.Param()
	case "fee_cycle":
		return "Must be one of: monthly quarterly yearly one_time per_bill"
	case "payment_mode":
		return "Must be one of: cash online upi card cheque bank_transfer"
	case "uuid":
		return "Invalid UUID format"
	default:
		return "Invalid value"
	}
}
