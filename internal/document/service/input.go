package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/mdshare/mdshare/backend/go-services/internal/document"
	"github.com/mdshare/mdshare/backend/go-services/internal/document/policy"
	"github.com/mdshare/mdshare/backend/go-services/internal/models"
)

// DocumentInput is the body of create and update. Nil pointers were omitted
// by the client; Content must be present but may be empty.
type DocumentInput struct {
	Title        string              `json:"title" validate:"notblank"`
	Content      *string             `json:"content" validate:"required"`
	AllowSharing *bool               `json:"allowSharing"`
	WhoCanAccess *[]models.Principal `json:"whoCanAccess"`
}

func (in *DocumentInput) sharingRequest() policy.Request {
	req := policy.Request{AllowSharing: in.AllowSharing}
	if in.WhoCanAccess != nil {
		req.WhoCanAccess = *in.WhoCanAccess
		req.HasWhoCanAccess = true
	}
	return req
}

// CommentInput is the body of comment create and update. User is accepted
// for client compatibility and ignored: the author is always the caller.
type CommentInput struct {
	Content string            `json:"content" validate:"notblank"`
	User    *models.Principal `json:"user,omitempty" validate:"-"`
}

type shareInput struct {
	Email string `json:"email" validate:"required,email"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

func (s *Service) checkDocument(in *DocumentInput) error {
	fields, err := s.fieldErrors("", s.validate.Struct(in))
	if err != nil {
		return err
	}
	if in.WhoCanAccess != nil {
		for i, p := range *in.WhoCanAccess {
			fe, err := s.fieldErrors(fmt.Sprintf("whoCanAccess[%d].", i), s.validate.Struct(p))
			if err != nil {
				return err
			}
			fields = append(fields, fe...)
		}
	}
	if len(fields) > 0 {
		return &document.ValidationError{Errors: fields}
	}
	return nil
}

func (s *Service) check(in interface{}) error {
	fields, err := s.fieldErrors("", s.validate.Struct(in))
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &document.ValidationError{Errors: fields}
	}
	return nil
}

func (s *Service) fieldErrors(prefix string, err error) ([]document.FieldError, error) {
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate input: %w", err)
	}
	out := make([]document.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, document.FieldError{Field: prefix + fe.Field(), Message: message(fe)})
	}
	return out, nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	}
	return "failed " + fe.Tag()
}
