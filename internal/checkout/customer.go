package checkout

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

const defaultCountry = "US"

// CustomerInfo is the contact and shipping data collected at submission.
type CustomerInfo struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country" validate:"omitempty,len=2"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func (c CustomerInfo) normalized() CustomerInfo {
	c.Email = strings.TrimSpace(c.Email)
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.City = strings.TrimSpace(c.City)
	c.PostalCode = strings.TrimSpace(c.PostalCode)
	c.Country = strings.ToUpper(strings.TrimSpace(c.Country))
	if c.Country == "" {
		c.Country = defaultCountry
	}
	return c
}

// Validate checks the customer fields and returns the offending field names
// alongside a validation error.
func (c CustomerInfo) Validate() ([]string, error) {
	err := validate.Struct(c)
	if err == nil {
		return nil, nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "customer details invalid")
	}

	fields := make([]string, 0, len(errs))
	details := map[string]string{}
	for _, fe := range errs {
		fields = append(fields, fe.Field())
		details[fe.Field()] = fieldMessage(fe)
	}
	sort.Strings(fields)
	return fields, pkgerrors.New(pkgerrors.CodeValidation, "please fill in all required fields").
		WithDetails(map[string]any{"fields": details, "missing": fields})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	}
	return "is invalid"
}
