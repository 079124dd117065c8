package services

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	videoURLTag   = "videourl"
	notBlankTag   = "notblank"
	videoURLRegex = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report JSON names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(videoURLTag, func(fl validator.FieldLevel) bool {
		return IsVideoURL(fl.Field().String())
	})
	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{videoURLTag, notBlankTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case videoURLTag:
		return "must be a YouTube video URL"
	case notBlankTag:
		return "this field cannot be blank"
	default:
		return ""
	}
}

// IsVideoURL accepts youtube.com and youtu.be links (the dot is optional) with or
// without scheme.
func IsVideoURL(raw string) bool {
	return videoURLRegex.MatchString(strings.TrimSpace(raw))
}

// validateStruct turns validator errors into a *ValidationError. A bad chapter
// video URL is reported as ErrInvalidChapterURL so callers can tell it apart.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Err: ErrValidation}
	for _, fe := range verrs {
		if fe.Tag() == videoURLTag {
			out.Err = ErrInvalidChapterURL
		}
		out.Fields = append(out.Fields, FieldError{Field: fieldPath(fe), Message: fe.Translate(translator)})
	}
	return out
}

// fieldPath drops the struct name: "CourseInput.chapters[0].videoUrl" -> "chapters[0].videoUrl".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
