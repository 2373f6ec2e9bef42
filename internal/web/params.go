package web

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/estatekit/internal/dataset"
	"github.com/JonMunkholm/estatekit/internal/describe"
	"github.com/JonMunkholm/estatekit/internal/report"
)

// fileParams identifies a dataset under the data directory.
type fileParams struct {
	Name string `param:"name" validate:"required,max=255,datasetfile"`
}

// validateParams are the query parameters of the validate endpoint.
type validateParams struct {
	fileParams
	Columns string `param:"columns" validate:"max=4096"`
	Rows    string `param:"rows" validate:"omitempty,boolean"`
}

func (p validateParams) checkRows() bool {
	b, _ := strconv.ParseBool(p.Rows)
	return b
}

// describeParams are the parameters of both describe endpoints. The file
// name is not used for uploads.
type describeParams struct {
	Columns    string `param:"columns" validate:"max=4096"`
	Percentile int    `param:"percentile" validate:"min=1,max=100"`
	Format     string `param:"format" validate:"omitempty,oneof=table markdown md csv json yaml yml xlsx"`
}

func (p describeParams) selector() dataset.ColumnSelector {
	return dataset.ParseColumns(p.Columns)
}

func (p describeParams) format() report.Format {
	if p.Format == "" {
		return report.FormatJSON
	}
	f, _ := report.ParseFormat(p.Format)
	return f
}

// paramValidator checks request parameters with struct tags and reports
// failures as describe.ErrInvalidArgument so they map to ARG001.
type paramValidator struct {
	v *validator.Validate
}

func newParamValidator() *paramValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("datasetfile", isDatasetFile)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("param")
	})
	return &paramValidator{v: v}
}

// check validates s and returns nil or a wrapped ErrInvalidArgument naming
// each failing parameter.
func (pv *paramValidator) check(s any) error {
	err := pv.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", describe.ErrInvalidArgument, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", describe.ErrInvalidArgument, strings.Join(fields, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datasetfile":
		return fe.Field() + " must be a plain file name"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// isDatasetFile accepts bare file names only, so requests cannot escape the
// data directory.
func isDatasetFile(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return !strings.ContainsRune(name, 0)
}

// parseDescribe reads describe parameters from values. A missing
// percentile falls back to defaultP; a non-integer one is invalid.
func parseDescribe(values url.Values, defaultP int) (describeParams, error) {
	p := describeParams{
		Columns:    values.Get("columns"),
		Percentile: defaultP,
		Format:     strings.ToLower(strings.TrimSpace(values.Get("format"))),
	}
	if raw := strings.TrimSpace(values.Get("percentile")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("%w: percentile %q is not an integer", describe.ErrInvalidArgument, raw)
		}
		p.Percentile = n
	}
	return p, nil
}

// fileName unescapes the {name} route segment. chi matches on the raw path,
// so an encoded slash would otherwise slip through.
func fileName(raw string) (string, error) {
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: file name %q", describe.ErrInvalidArgument, raw)
	}
	return name, nil
}
