package user

import (
	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (dto *CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", NormalizeEmail(dto.Email)).Required()
	v.Field("password", dto.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Summary is the display form used when other resources reference a user.
type Summary struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Role  internal.Role `json:"role"`
}
