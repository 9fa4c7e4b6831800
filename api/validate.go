package api

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/rpupo63/portfolio-cms-backend/errs"
	"github.com/rpupo63/portfolio-cms-backend/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if n, ok := field.Interface().(models.Nullable[string]); ok && n.Valid {
			return n.Value
		}
		return ""
	}, models.Nullable[string]{})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "urlish", func(fl validator.FieldLevel) bool {
		return isURLish(fl.Field().String())
	})
	mustRegister(v, "skill_category", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.SkillCategories, fl.Field().String())
	})
	mustRegister(v, "project_category", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.ProjectCategories, fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// isURLish accepts absolute http(s) URLs and site-relative paths such as
// /uploads/x.png.
func isURLish(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateStruct runs the struct's validate tags and collects every failure
// as a {field, message} pair keyed by the JSON field path.
func validateStruct(s any) errs.FieldErrors {
	var fields errs.FieldErrors

	err := validate.Struct(s)
	if err == nil {
		return fields
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fields.Add("payload", err.Error())
		return fields
	}
	for _, fe := range validationErrs {
		fields.Add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return fields
}

// fieldPath turns "ProjectInput.Project.images[0].url" into "images[0].url".
// Segments starting with an upper case letter are Go struct names (the root
// and embedded structs) and are dropped.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" {
			continue
		}
		if r := []rune(p)[0]; unicode.IsUpper(r) {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "slug":
		return "must contain only lowercase letters, numbers and single hyphens"
	case "urlish":
		return "must be an http(s) URL or a path starting with /"
	case "skill_category":
		return "must be one of: " + strings.Join(models.SkillCategories, ", ")
	case "project_category":
		return "must be one of: " + strings.Join(models.ProjectCategories, ", ")
	default:
		return "is invalid"
	}
}
