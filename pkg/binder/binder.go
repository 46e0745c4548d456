package binder

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/errcodes"
)

// Binder is a custom struct that implements the Echo Binder interface. It
// binds path and query params to a struct, uses mold to clean up the params,
// and validator to validate them. The catalog is read-only, so request bodies
// are rejected.
type Binder struct {
	queryDecoder *schema.Decoder
	paramDecoder *schema.Decoder
	conform      *mold.Transformer
	validate     *validator.Validate
}

// New initializes a new Binder instance with the appropriate validation
// functions registered.
func New() (*Binder, error) {
	queryDecoder := schema.NewDecoder()
	queryDecoder.SetAliasTag("query")
	paramDecoder := schema.NewDecoder()
	paramDecoder.SetAliasTag("param")
	paramDecoder.IgnoreUnknownKeys(true)
	conform := modifiers.New()
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("letter", letterValidator); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := validate.RegisterValidation("slug", slugValidator); err != nil {
		return nil, errors.WithStack(err)
	}

	return &Binder{queryDecoder, paramDecoder, conform, validate}, nil
}

// Bind binds, modifies, and validates params against the given struct.
func (b *Binder) Bind(i interface{}, c echo.Context) error {
	req := c.Request()

	if req.ContentLength > 0 {
		return errcodes.UnsupportedMediaType()
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return errcodes.MalformedPayload()
	}

	pathParams := url.Values{}
	for idx, name := range c.ParamNames() {
		if idx < len(c.ParamValues()) {
			pathParams.Set(name, c.ParamValues()[idx])
		}
	}
	if len(pathParams) > 0 {
		if err := b.decode(i, pathParams, b.paramDecoder); err != nil {
			return err
		}
	}
	if err := b.decode(i, c.QueryParams(), b.queryDecoder); err != nil {
		return err
	}

	if err := b.conform.Struct(req.Context(), i); err != nil {
		return errors.WithStack(err)
	}

	if err := defaults.Set(i); err != nil {
		return errors.WithStack(err)
	}

	if err := b.validate.Struct(i); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) || len(errs) == 0 {
			return errors.WithStack(err)
		}
		msg := formatValidationError(errs[0])
		return errcodes.ValidationError(msg)
	}
	return nil
}

func (b *Binder) decode(i interface{}, params url.Values, decoder *schema.Decoder) error {
	if err := decoder.Decode(i, params); err != nil {
		if errs, ok := err.(schema.MultiError); ok {
			var err error
			for _, err = range errs {
				break
			}

			if err, ok := err.(schema.ConversionError); ok {
				msg := formatSchemaConversionError(err)
				return errcodes.ValidationTypeError(msg)
			}
			if err, ok := err.(schema.UnknownKeyError); ok {
				return errcodes.UnknownParameter(err.Key)
			}

			return errors.WithStack(err)
		}
		return errors.WithStack(err)
	}
	return nil
}
