package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"subcal/internal/core"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// createSubscriptionRequest is the POST /api/subscriptions body. Amount
// accepts a JSON number or a numeric string.
type createSubscriptionRequest struct {
	Name          string      `json:"name" validate:"required,max=100"`
	Amount        json.Number `json:"amount" validate:"required"`
	Currency      string      `json:"currency" validate:"omitempty,len=3,alpha"`
	Cycle         string      `json:"cycle" validate:"required,oneof=monthly yearly"`
	DueDay        int         `json:"dueDay" validate:"required,min=1,max=31"`
	Color         string      `json:"color" validate:"omitempty,hexcolor"`
	Initial       string      `json:"initial" validate:"omitempty,max=4"`
	Autopay       bool        `json:"autopay"`
	PaymentSource string      `json:"paymentSource" validate:"omitempty,max=50"`
	StartDate     string      `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string      `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

// requestError is a client error with optional per-field details.
type requestError struct {
	message string
	details map[string]string
}

func (e *requestError) Error() string { return e.message }

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer io.Copy(io.Discard, r.Body)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &requestError{message: "invalid request body", details: map[string]string{"body": err.Error()}}
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return &requestError{message: "validation failed"}
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = validationMessage(fe)
	}
	return &requestError{message: "validation failed", details: details}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "hexcolor":
		return "must be a hex color"
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	}
	return "is invalid"
}

// toSubscription converts the request to a record. Defaults are applied by
// the service.
func (req createSubscriptionRequest) toSubscription() (core.Subscription, error) {
	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.Subscription{}, err
	}
	cycle, err := core.ParseCycle(req.Cycle)
	if err != nil {
		return core.Subscription{}, err
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Subscription{}, err
	}
	end, err := core.ParseDate(req.EndDate)
	if err != nil {
		return core.Subscription{}, err
	}
	return core.Subscription{
		Name:          req.Name,
		Amount:        amount,
		Currency:      strings.ToUpper(req.Currency),
		Cycle:         cycle,
		DueDay:        req.DueDay,
		Color:         req.Color,
		Initial:       req.Initial,
		Autopay:       req.Autopay,
		PaymentSource: strings.TrimSpace(req.PaymentSource),
		StartDate:     start,
		EndDate:       end,
	}, nil
}
