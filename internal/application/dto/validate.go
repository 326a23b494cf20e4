package dto

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/bibbank/lenderledger/internal/domain/apperror"
	"github.com/bibbank/lenderledger/pkg/money"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		validate.RegisterCustomTypeFunc(decimalString, decimal.Decimal{}, decimal.NullDecimal{})
		if err := validate.RegisterValidation("cents", validateCents); err != nil {
			panic(err)
		}
	})
	return validate
}

// decimalString exposes decimals to tag validation as their exact string form.
// A null decimal is empty, so omitempty skips it.
func decimalString(field reflect.Value) any {
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		return v.String()
	case decimal.NullDecimal:
		if v.Valid {
			return v.Decimal.String()
		}
	}
	return nil
}

// validateCents rejects money amounts finer than a cent.
func validateCents(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && money.IsCents(d)
}

// Validate checks req's struct tags and reports failures as a validation
// error listing "field:tag" pairs.
func Validate(req any) error {
	err := validatorInstance().Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.KindValidation, err, "invalid request")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	sort.Strings(fields)
	return apperror.Validation("invalid request: %s", strings.Join(fields, ", "))
}
