package service

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/forja-app/auth-service/internal/auth/dto"
	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"github.com/forja-app/auth-service/internal/auth/jwt"
	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/forja-app/auth-service/internal/auth/password"
	"github.com/forja-app/auth-service/internal/auth/resettoken"
	"github.com/forja-app/auth-service/internal/config"
	"github.com/forja-app/auth-service/internal/mail"
	"github.com/forja-app/auth-service/internal/repo"
	validate "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// enumerationDelay approximates the cost of the real forgot-password path so
// response timing does not reveal whether an account exists.
const enumerationDelay = 500 * time.Millisecond

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	jwtUtil   jwt.JWTUtil
	codec     *resettoken.Codec
	hasher    *password.Hasher
	mailer    mail.Mailer
	cfg       *config.Config
	v         *validate.Validate
	log       *zap.Logger
}

func (a *authService) Register(ctx context.Context, d dto.RegisterDTO) error {
	if err := a.validate(d); err != nil {
		return err
	}

	email := strings.ToLower(d.Email)

	// Fast path for a friendly message; the unique constraint is what
	// actually guarantees uniqueness under concurrency.
	_, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return customErrors.NewBusinessRule("O e-mail informado já está em uso")
	case !errors.Is(err, customErrors.ErrNotFound):
		return customErrors.WrapInternal(err, "Register")
	}

	if err := password.ValidateStrength(d.Password); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(d.Password)
	if err != nil {
		return customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.NewString(),
		Name:         d.Name,
		Email:        email,
		PasswordHash: &hash,
	}
	if _, err := a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return customErrors.NewBusinessRule("O e-mail informado já está em uso")
		}
		return customErrors.WrapInternal(err, "Register")
	}

	return nil
}

func (a *authService) Login(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error) {
	if err := a.validate(d); err != nil {
		return model.PublicUser{}, err
	}

	user, err := a.checkCredentials(ctx, d.Email, d.Password)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

func (a *authService) LoginJWT(ctx context.Context, d dto.LoginDTO) (model.TokenPair, model.PublicUser, error) {
	if err := a.validate(d); err != nil {
		return model.TokenPair{}, model.PublicUser{}, err
	}

	user, err := a.checkCredentials(ctx, d.Email, d.Password)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, err
	}

	pair, err := a.jwtUtil.GeneratePair(user)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, customErrors.WrapInternal(err, "LoginJWT")
	}

	return pair, user.Public(), nil
}

// checkCredentials deliberately collapses "no such user", "OAuth-only
// account" and "wrong password" into one answer.
func (a *authService) checkCredentials(ctx context.Context, email, pwd string) (model.User, error) {
	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.NewUnauthorized("Credenciais inválidas")
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "checkCredentials")
	}

	if !user.HasPassword() {
		return model.User{}, customErrors.NewUnauthorized("Credenciais inválidas")
	}
	if !a.hasher.Verify(pwd, *user.PasswordHash) {
		return model.User{}, customErrors.NewUnauthorized("Credenciais inválidas")
	}

	return user, nil
}

func (a *authService) Refresh(ctx context.Context, d dto.RefreshDTO) (model.TokenPair, model.PublicUser, error) {
	if err := a.validate(d); err != nil {
		return model.TokenPair{}, model.PublicUser{}, err
	}

	// Either token type is accepted here; revocation and natural expiry are
	// indistinguishable to the caller.
	claims, err := a.jwtUtil.ValidateToken(d.Token)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, customErrors.NewUnauthorized("Token expirado ou inválido")
	}

	revoked, err := a.tokenRepo.IsJWTRevoked(ctx, d.Token)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, customErrors.WrapInternal(err, "Refresh")
	}
	if revoked {
		return model.TokenPair{}, model.PublicUser{}, customErrors.NewUnauthorized("Token expirado ou inválido")
	}

	user, err := a.userRepo.GetUserByEmail(ctx, claims.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, model.PublicUser{}, customErrors.NewUnauthorized("Usuário não encontrado")
	case err != nil:
		return model.TokenPair{}, model.PublicUser{}, customErrors.WrapInternal(err, "Refresh")
	}

	// Single-use: claim the consumed token before minting replacements, so
	// two concurrent refreshes of the same token cannot both succeed.
	claimed, err := a.tokenRepo.RevokeJWT(ctx, d.Token, claims.ExpiresAt.Time)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, customErrors.WrapInternal(err, "Refresh")
	}
	if !claimed {
		return model.TokenPair{}, model.PublicUser{}, customErrors.NewUnauthorized("Token expirado ou inválido")
	}

	pair, err := a.jwtUtil.GeneratePair(user)
	if err != nil {
		return model.TokenPair{}, model.PublicUser{}, customErrors.WrapInternal(err, "Refresh")
	}

	return pair, user.Public(), nil
}

func (a *authService) ResolveToken(ctx context.Context, token string) (model.PublicUser, error) {
	claims, err := a.jwtUtil.ValidateAccessToken(token)
	if err != nil {
		return model.PublicUser{}, customErrors.NewUnauthorized("Acesso não autorizado")
	}

	revoked, err := a.tokenRepo.IsJWTRevoked(ctx, token)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "ResolveToken")
	}
	if revoked {
		return model.PublicUser{}, customErrors.NewUnauthorized("Acesso não autorizado")
	}

	return a.ResolveUser(ctx, claims.Email)
}

func (a *authService) ResolveUser(ctx context.Context, email string) (model.PublicUser, error) {
	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// deleted between issuance and use
		return model.PublicUser{}, customErrors.NewUnauthorized("Acesso não autorizado")
	case err != nil:
		return model.PublicUser{}, customErrors.WrapInternal(err, "ResolveUser")
	}

	return user.Public(), nil
}

func (a *authService) ForgotPassword(ctx context.Context, d dto.ForgotPasswordDTO, expiresIn time.Duration) error {
	if err := a.validate(d); err != nil {
		return err
	}
	if expiresIn <= 0 {
		expiresIn = a.cfg.ResetTokenTTL
	}

	email := strings.ToLower(d.Email)

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		select {
		case <-time.After(enumerationDelay):
		case <-ctx.Done():
		}
		return nil
	case err != nil:
		return customErrors.WrapInternal(err, "ForgotPassword")
	}

	links, err := a.userRepo.ListOAuthLinks(ctx, user.ID)
	if err != nil {
		return customErrors.WrapInternal(err, "ForgotPassword")
	}
	if len(links) > 0 && !user.HasPassword() {
		return customErrors.NewBusinessRule("Usuário não pode trocar a senha, pois é apenas OAuth")
	}

	token, err := a.codec.Encrypt(email, time.Now().Add(expiresIn))
	if err != nil {
		return customErrors.WrapInternal(err, "ForgotPassword")
	}

	recoveryURL := strings.TrimRight(a.cfg.AppURL, "/") + "/alterar-senha?token=" + url.QueryEscape(token)

	if err := a.mailer.SendPasswordReset(ctx, user.Email, user.Name, recoveryURL); err != nil {
		// Swallowed: surfacing the failure would break the anti-enumeration
		// contract of this endpoint.
		a.log.Error("password reset mail failed", zap.Error(err))
	}

	return nil
}

func (a *authService) ResetPassword(ctx context.Context, d dto.ResetPasswordDTO) error {
	if err := a.validate(d); err != nil {
		return err
	}

	email, exp, err := a.codec.Decrypt(d.Token)
	if err != nil {
		return customErrors.NewUnauthorized("Token inválido ou expirado")
	}
	if time.Now().After(exp) {
		return customErrors.NewUnauthorized("Token inválido ou expirado")
	}

	// Claim before mutating anything: of two concurrent resets with the same
	// token, only the one that wins this conditional insert proceeds.
	claimed, err := a.tokenRepo.RevokeResetToken(ctx, d.Token, exp)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	if !claimed {
		return customErrors.NewUnauthorized("Token inválido ou expirado")
	}

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.NewUnauthorized("Token inválido ou expirado")
	case err != nil:
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	if d.Password != d.PasswordConfirmation {
		return customErrors.NewBusinessRule("As senhas não coincidem")
	}
	if err := password.ValidateStrength(d.Password); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(d.Password)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	if err := a.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}

	return nil
}

func (a *authService) OAuth(ctx context.Context, d dto.OAuthDTO) (model.PublicUser, model.OAuthAction, error) {
	if err := a.validate(d); err != nil {
		return model.PublicUser{}, "", err
	}

	provider := model.OAuthProvider(d.Provider)
	email := strings.ToLower(d.User.Email)

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		created, err := a.createOAuthUser(ctx, d, email, provider)
		if err != nil {
			return model.PublicUser{}, "", err
		}
		return created.Public(), model.ActionNewUser, nil
	case err != nil:
		return model.PublicUser{}, "", customErrors.WrapInternal(err, "OAuth")
	}

	_, err = a.userRepo.GetOAuthLink(ctx, user.ID, provider)
	switch {
	case err == nil:
		// Link metadata is not refreshed on repeat reconciliation.
		return user.Public(), model.ActionExistingUser, nil
	case !errors.Is(err, customErrors.ErrNotFound):
		return model.PublicUser{}, "", customErrors.WrapInternal(err, "OAuth")
	}

	link := model.OAuthLink{
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: d.ProviderUserID,
	}
	if err := a.userRepo.CreateOAuthLink(ctx, link); err != nil && !errors.Is(err, customErrors.ErrAlreadyExists) {
		return model.PublicUser{}, "", customErrors.WrapInternal(err, "OAuth")
	}

	return user.Public(), model.ActionExistingNewProvider, nil
}

func (a *authService) createOAuthUser(ctx context.Context, d dto.OAuthDTO, email string, provider model.OAuthProvider) (model.User, error) {
	user := model.User{
		ID:    uuid.NewString(),
		Name:  d.User.Name,
		Email: email,
	}
	if d.User.Avatar != "" {
		avatar := d.User.Avatar
		user.Avatar = &avatar
	}

	created, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "OAuth create user")
	}

	link := model.OAuthLink{
		UserID:         created.ID,
		Provider:       provider,
		ProviderUserID: d.ProviderUserID,
	}
	if err := a.userRepo.CreateOAuthLink(ctx, link); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "OAuth create link")
	}

	return created, nil
}

// validate turns validator failures into the field-keyed 400 payload.
func (a *authService) validate(d any) error {
	err := a.v.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validate.ValidationErrors
	if !errors.As(err, &verrs) {
		return customErrors.NewValidation(nil)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return customErrors.NewValidation(fields)
}

func fieldMessage(fe validate.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Campo obrigatório"
	case "email":
		return "Confirme se o e-mail está correto"
	case "max":
		return "Valor excede o tamanho máximo"
	case "oneof":
		return "Valor inválido"
	default:
		return "Valor inválido"
	}
}

// registerTagNames makes validator report JSON field names, so the 400
// payload speaks the wire vocabulary.
func registerTagNames(v *validate.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}
