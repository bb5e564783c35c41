package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/apperrors"
	"github.com/caesarius1187/tgh/internal/audit"
	"github.com/caesarius1187/tgh/internal/config"
	"github.com/caesarius1187/tgh/internal/models"
	"github.com/caesarius1187/tgh/internal/ratelimit"
	"github.com/caesarius1187/tgh/internal/repository"
	"github.com/caesarius1187/tgh/internal/security"
)

type UserStore interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

type BraceletStore interface {
	GetBySerial(ctx context.Context, serial string) (models.Bracelet, error)
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
}

type ActivationStore interface {
	ClaimBracelet(ctx context.Context, input repository.ClaimInput, issue repository.TokenIssuer) (models.User, string, error)
}

type AuthService struct {
	users       UserStore
	bracelets   BraceletStore
	sessions    SessionStore
	activations ActivationStore
	attempts    *ratelimit.Tracker
	audit       audit.Recorder
	cfg         *config.AppConfig
	log         zerolog.Logger
}

func NewAuthService(
	users UserStore,
	bracelets BraceletStore,
	sessions SessionStore,
	activations ActivationStore,
	attempts *ratelimit.Tracker,
	auditLog audit.Recorder,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		bracelets:   bracelets,
		sessions:    sessions,
		activations: activations,
		attempts:    attempts,
		audit:       auditLog,
		cfg:         cfg,
		log:         log,
	}
}

type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	Serial          string
	IPAddress       string
	UserAgent       string
}

type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	Token string
	User  models.User
}

// Register runs the activation workflow: validate, check availability, then
// claim the bracelet in one transaction (user + activation + session). The
// pre-checks are advisory; the conditional update inside the transaction is
// what decides concurrent claims.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	if err := validateRegisterInput(input); err != nil {
		return AuthResult{}, err
	}

	taken, err := s.users.UsernameExists(ctx, input.Username)
	if err != nil {
		return AuthResult{}, s.registrationError(ctx, input, err)
	}
	if taken {
		s.auditRegistrationFailure(ctx, input, "username_exists",
			fmt.Sprintf("Intento de registro con username existente: %s", input.Username))
		return AuthResult{}, apperrors.New(apperrors.KindConflict, "El nombre de usuario ya está en uso")
	}

	bracelet, err := s.bracelets.GetBySerial(ctx, input.Serial)
	if err != nil {
		if errors.Is(err, repository.ErrBraceletNotFound) {
			s.auditRegistrationFailure(ctx, input, "serial_not_found",
				fmt.Sprintf("Intento de registro con serial inexistente: %s", input.Serial))
			return AuthResult{}, apperrors.New(apperrors.KindValidation, "Serial de pulsera no válido")
		}
		return AuthResult{}, s.registrationError(ctx, input, err)
	}
	if bracelet.IsActive {
		s.auditRegistrationFailure(ctx, input, "serial_already_active",
			fmt.Sprintf("Intento de registro con serial ya activado: %s", input.Serial))
		return AuthResult{}, apperrors.New(apperrors.KindConflict, "Esta pulsera ya ha sido activada")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, s.registrationError(ctx, input, err)
	}

	user, token, err := s.activations.ClaimBracelet(ctx, repository.ClaimInput{
		Username:     input.Username,
		PasswordHash: passwordHash,
		BraceletID:   bracelet.ID,
		PublicURL:    fmt.Sprintf("%s/nfc/%s", s.cfg.PublicBaseURL, bracelet.Serial),
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
	}, s.issueToken)
	if err != nil {
		if errors.Is(err, repository.ErrBraceletClaimed) {
			s.auditRegistrationFailure(ctx, input, "serial_already_active",
				fmt.Sprintf("Registro perdió la carrera de activación: %s", input.Serial))
			return AuthResult{}, apperrors.New(apperrors.KindConflict, "Esta pulsera ya ha sido activada")
		}
		return AuthResult{}, s.registrationError(ctx, input, err)
	}

	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   &user.ID,
		Evento:      audit.EventUserRegistered,
		Descripcion: fmt.Sprintf("Usuario registrado exitosamente: %s", user.Username),
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra: map[string]any{
			"username":  user.Username,
			"serial":    input.Serial,
			"pulseraId": bracelet.ID,
		},
	})

	return AuthResult{Token: token, User: user}, nil
}

// Login enforces the lockout window before touching storage and answers every
// credential failure with the same generic message; the audit log keeps the
// real reason.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	if input.Username == "" || input.Password == "" {
		return AuthResult{}, apperrors.Validation("Datos inválidos",
			"El nombre de usuario es requerido", "La contraseña es requerida")
	}

	decision := s.attempts.Check(ctx, input.IPAddress, input.Username)
	if !decision.Allowed {
		s.audit.Record(ctx, models.AuditEntry{
			Evento:      audit.EventLoginBlocked,
			Descripcion: fmt.Sprintf("Login bloqueado por demasiados intentos: %s", input.Username),
			IPAddress:   input.IPAddress,
			UserAgent:   input.UserAgent,
			Extra: map[string]any{
				"username":     input.Username,
				"reason":       "too_many_attempts",
				"lockoutUntil": decision.LockoutUntil,
			},
		})
		return AuthResult{}, apperrors.RateLimited(
			"Demasiados intentos de login. Intenta más tarde.", decision.LockoutUntil)
	}

	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordLoginFailure(ctx, input, nil, "user_not_found",
				fmt.Sprintf("Intento de login con usuario inexistente: %s", input.Username))
			return AuthResult{}, apperrors.New(apperrors.KindAuth, "Credenciales inválidas")
		}
		return AuthResult{}, s.loginError(ctx, input, err)
	}

	if !user.IsActive {
		s.recordLoginFailure(ctx, input, &user.ID, "user_inactive",
			fmt.Sprintf("Intento de login con usuario inactivo: %s", input.Username))
		return AuthResult{}, apperrors.New(apperrors.KindForbidden, "Usuario inactivo. Contacta al administrador.")
	}

	if !security.VerifyPassword(input.Password, user.PasswordHash) {
		s.recordLoginFailure(ctx, input, &user.ID, "invalid_password",
			fmt.Sprintf("Intento de login con contraseña incorrecta: %s", input.Username))
		return AuthResult{}, apperrors.New(apperrors.KindAuth, "Credenciales inválidas")
	}

	s.attempts.Clear(ctx, input.IPAddress, input.Username)

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return AuthResult{}, s.loginError(ctx, input, err)
	}

	token, tokenHash, expiresAt, err := s.issueToken(user.ID, user.Username)
	if err != nil {
		return AuthResult{}, s.loginError(ctx, input, err)
	}

	if err := s.sessions.Create(ctx, models.Session{
		UsuarioID: user.ID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	}); err != nil {
		return AuthResult{}, s.loginError(ctx, input, err)
	}

	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   &user.ID,
		Evento:      audit.EventLoginSuccess,
		Descripcion: fmt.Sprintf("Login exitoso: %s", user.Username),
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra:       map[string]any{"username": user.Username, "userId": user.ID},
	})

	return AuthResult{Token: token, User: user}, nil
}

// ValidateSerial is the pre-activation check the activation page calls before
// showing the registration form.
func (s *AuthService) ValidateSerial(ctx context.Context, serial, ip, userAgent string) error {
	if errs := security.ValidateSerial(serial); len(errs) > 0 {
		return apperrors.Validation("Datos inválidos", errs...)
	}

	bracelet, err := s.bracelets.GetBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, repository.ErrBraceletNotFound) {
			s.audit.Record(ctx, models.AuditEntry{
				Evento:      audit.EventSerialValidationFailed,
				Descripcion: fmt.Sprintf("Intento de validación con serial inexistente: %s", serial),
				IPAddress:   ip,
				UserAgent:   userAgent,
				Extra:       map[string]any{"serial": serial, "reason": "serial_not_found"},
			})
			return apperrors.New(apperrors.KindNotFound, "Serial no encontrado en el sistema")
		}
		return apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}

	if bracelet.IsActive {
		s.audit.Record(ctx, models.AuditEntry{
			Evento:      audit.EventSerialValidationFailed,
			Descripcion: fmt.Sprintf("Intento de validación con serial ya activado: %s", serial),
			IPAddress:   ip,
			UserAgent:   userAgent,
			Extra:       map[string]any{"serial": serial, "reason": "serial_already_active"},
		})
		return apperrors.New(apperrors.KindConflict, "Esta pulsera ya ha sido activada")
	}

	s.audit.Record(ctx, models.AuditEntry{
		Evento:      audit.EventSerialValidationOK,
		Descripcion: fmt.Sprintf("Validación exitosa de serial: %s", serial),
		IPAddress:   ip,
		UserAgent:   userAgent,
		Extra:       map[string]any{"serial": serial},
	})
	return nil
}

func (s *AuthService) issueToken(userID int64, username string) (string, string, time.Time, error) {
	token, err := security.GenerateToken(s.cfg.Security.JWTSecret, userID, username, s.cfg.Security.TokenTTL)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, security.HashToken(token), time.Now().Add(s.cfg.Security.TokenTTL), nil
}

func validateRegisterInput(input RegisterInput) error {
	var details []string
	details = append(details, security.ValidateUsername(input.Username)...)
	details = append(details, security.ValidatePassword(input.Password)...)
	details = append(details, security.ValidateSerial(input.Serial)...)
	if input.Password != input.ConfirmPassword {
		details = append(details, "Las contraseñas no coinciden")
	}
	if len(details) > 0 {
		return apperrors.Validation("Datos inválidos", details...)
	}
	return nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, input LoginInput, userID *int64, reason, description string) {
	attempts := s.attempts.RecordFailure(ctx, input.IPAddress, input.Username)
	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   userID,
		Evento:      audit.EventLoginFailed,
		Descripcion: description,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra: map[string]any{
			"username": input.Username,
			"reason":   reason,
			"attempts": attempts,
		},
	})
}

func (s *AuthService) auditRegistrationFailure(ctx context.Context, input RegisterInput, reason, description string) {
	s.audit.Record(ctx, models.AuditEntry{
		Evento:      audit.EventRegistrationFailed,
		Descripcion: description,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra: map[string]any{
			"username": input.Username,
			"serial":   input.Serial,
			"reason":   reason,
		},
	})
}

func (s *AuthService) registrationError(ctx context.Context, input RegisterInput, err error) error {
	s.log.Error().Err(err).Str("username", input.Username).Msg("registration failed")
	s.audit.Record(ctx, models.AuditEntry{
		Evento:      audit.EventRegistrationError,
		Descripcion: "Error interno durante registro",
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra:       map[string]any{"error": err.Error()},
	})
	return apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
}

func (s *AuthService) loginError(ctx context.Context, input LoginInput, err error) error {
	s.log.Error().Err(err).Str("username", input.Username).Msg("login failed")
	s.audit.Record(ctx, models.AuditEntry{
		Evento:      audit.EventLoginError,
		Descripcion: "Error interno durante login",
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra:       map[string]any{"error": err.Error()},
	})
	return apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
}
