package auth

import (
	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
	"github.com/frahmantamala/inventory-management/internal/user"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", user.NormalizeEmail(d.Email)).Required()
	v.Field("password", d.Password).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// SignupDTO creates an admin. Both token spellings are accepted.
type SignupDTO struct {
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	Password              string `json:"password"`
	AdminSignupToken      string `json:"adminSignupToken"`
	AdminSignupTokenSnake string `json:"admin_signup_token"`
}

func (d SignupDTO) Token() string {
	if d.AdminSignupToken != "" {
		return d.AdminSignupToken
	}
	return d.AdminSignupTokenSnake
}

func (d SignupDTO) ToCreateUser() user.CreateUserDTO {
	return user.CreateUserDTO{
		Name:     d.Name,
		Email:    d.Email,
		Password: d.Password,
	}
}
