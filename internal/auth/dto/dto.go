package dto

type RegisterDTO struct {
	Name     string `json:"name"     validate:"required,max=255"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=255"`
}

type RefreshDTO struct {
	Token string `json:"token" validate:"required"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordDTO struct {
	Token                string `json:"token"                 validate:"required"`
	Password             string `json:"password"              validate:"required,max=255"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,max=255"`
}

type OAuthUserDTO struct {
	Email  string `json:"email"  validate:"required,email,max=255"`
	Name   string `json:"name"   validate:"required,max=255"`
	Avatar string `json:"avatar" validate:"omitempty,max=255"`
}

type OAuthDTO struct {
	User           OAuthUserDTO `json:"user"             validate:"required"`
	Provider       string       `json:"provider"         validate:"required,oneof=google github facebook"`
	ProviderUserID string       `json:"provider_user_id" validate:"required"`
}
