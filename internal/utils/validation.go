package utils

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var (
	civilDateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockTimeRegex = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)
)

// IsCivilDate 只检查格式，日期是否真实存在由 scheduler.ParseDate 判断
func IsCivilDate(s string) bool {
	return civilDateRegex.MatchString(s)
}

func IsClockTime(s string) bool {
	return clockTimeRegex.MatchString(s)
}

type customValidation struct {
	tag     string
	fn      func(s string) bool
	message string
}

var customValidations = []customValidation{
	{tag: "civildate", fn: IsCivilDate, message: "{0} must be a date in YYYY-MM-DD format"},
	{tag: "clocktime", fn: IsClockTime, message: "{0} must be a time in HH:MM or HH:MM:SS format"},
}

// RegisterValidations 注册 civildate、clocktime 两个规则及其翻译，并使用 json 标签作为字段名
func RegisterValidations(validate *validator.Validate, trans ut.Translator) error {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	for _, cv := range customValidations {
		fn := cv.fn
		if err := validate.RegisterValidation(cv.tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		}); err != nil {
			return err
		}

		tag, message := cv.tag, cv.message
		err := validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}
