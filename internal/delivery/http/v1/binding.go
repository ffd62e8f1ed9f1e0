package v1

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/adanyl0v/go-scrum/internal/scrum"
)

// Layouts accepted for dates submitted by forms and JSON clients.
var dateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

var registerTagNameOnce sync.Once

// useFormFieldNames makes validation errors report the form field name
// instead of the Go struct field name.
func useFormFieldNames() {
	registerTagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
}

// bind decodes the request and turns validator failures into field errors.
// Malformed bodies come back as a plain error.
func bind(c *gin.Context, req any) error {
	err := c.ShouldBind(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, ok := fields[fe.Field()]; ok {
			continue
		}
		fields[fe.Field()] = validationMessage(fe)
	}
	return &scrum.ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Email is not a valid address."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long.", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", fe.Field(), fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s.", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid.", fe.Field())
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date %q", value)
}

// parseWindow parses both dates of a form. Every unusable date, as well
// as a blank title, is reported as a field error in one go.
func parseWindow(title, start, end string, loc *time.Location) (time.Time, time.Time, error) {
	fields := map[string]string{}

	startDate, _ := parseFormDate(fields, "startDate", "Start date", start, loc)
	endDate, _ := parseFormDate(fields, "endDate", "End date", end, loc)

	if len(fields) > 0 {
		if strings.TrimSpace(title) == "" {
			fields["title"] = "Title is required."
		}
		return time.Time{}, time.Time{}, &scrum.ValidationError{Fields: fields}
	}
	return startDate, endDate, nil
}

func parseFormDate(fields map[string]string, field, label, value string, loc *time.Location) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		fields[field] = label + " is required."
		return time.Time{}, errors.New("empty date")
	}
	t, err := parseDate(value, loc)
	if err != nil {
		fields[field] = label + " is not a valid date."
		return time.Time{}, err
	}
	return t, nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

// bindRequest binds req and aborts the request when it can't.
func (h *handlerImpl) bindRequest(c *gin.Context, req any) bool {
	err := bind(c, req)
	if err == nil {
		return true
	}

	var verr *scrum.ValidationError
	if errors.As(err, &verr) {
		h.respondError(c, err, "invalid form")
		return false
	}

	h.logger.Error().
		Err(err).
		Msg("failed to bind request body")
	abort(c, newBadRequestError(errInvalidRequestBody.Error()))
	return false
}
