package dto

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/SscSPs/points_ledger/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
//
//	amount=positive  the amount is greater than zero
//	amount=nonzero   the amount is not zero
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		err = RegisterAmountValidation(v)
	})
	return err
}

// RegisterAmountValidation adds the amount rule to v.
func RegisterAmountValidation(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(amountValue, domain.Amount{})
	return v.RegisterValidation("amount", validateAmount)
}

func amountValue(field reflect.Value) any {
	if a, ok := field.Interface().(domain.Amount); ok {
		return a.String()
	}
	return nil
}

func validateAmount(fl validator.FieldLevel) bool {
	a, err := domain.ParseAmount(fl.Field().String())
	if err != nil {
		return false
	}
	switch fl.Param() {
	case "positive":
		return a.IsPositive()
	case "nonzero", "":
		return !a.IsZero()
	}
	return false
}
