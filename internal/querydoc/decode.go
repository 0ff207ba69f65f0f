package querydoc

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vaultq/internal/vaulterr"
)

// Load reads a query document from path. Files ending in .cue are
// evaluated as CUE; anything else is parsed as YAML.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return DecodeCUE(data, path)
	}
	return DecodeYAML(bytes.NewReader(data))
}

// DecodeYAML parses a YAML document. Unknown fields are rejected.
func DecodeYAML(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, vaulterr.Malformedf("empty query document")
		}
		return nil, vaulterr.Wrap(err, vaulterr.KindMalformedCriteria, "parse query document")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DecodeCUE evaluates src as CUE and decodes the result. The value must
// be concrete; definitions and constraints in the source are resolved
// before decoding.
func DecodeCUE(src []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, vaulterr.Malformedf("compile %s: %s", filename, cueerrors.Details(err, nil))
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, vaulterr.Malformedf("evaluate %s: %s", filename, cueerrors.Details(err, nil))
	}

	var doc Document
	if err := v.Decode(&doc); err != nil {
		return nil, vaulterr.Wrap(err, vaulterr.KindMalformedCriteria, "decode "+filename)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

func validatorInstance() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = en_translations.RegisterDefaultTranslations(validate, translator)
	})
	return validate, translator
}

// Validate checks field constraints. Messages name fields by their
// document path.
func (d *Document) Validate() error {
	v, trans := validatorInstance()
	err := v.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return vaulterr.Wrap(err, vaulterr.KindMalformedCriteria, "invalid query document")
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		path := strings.TrimPrefix(fe.Namespace(), "Document.")
		msgs[i] = path + ": " + fe.Translate(trans)
	}
	return vaulterr.Malformedf("invalid query document: %s", strings.Join(msgs, "; "))
}
