package market

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var cpfPattern = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
			return cpfPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks a payload against its field rules before it is handed
// to an operation. It returns nil or an error naming each failing field.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid %s", strings.Join(msgs, ", "))
}
