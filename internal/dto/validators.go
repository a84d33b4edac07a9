package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/heraops/ledger-integrity-engine/internal/core/domain"
)

// RegisterValidators installs the custom binding validators on gin's
// validator engine. Call once during startup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("governancecode", func(fl validator.FieldLevel) bool {
		return domain.ValidGovernanceCode(fl.Field().String())
	})
}
