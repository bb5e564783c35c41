package security

import (
	"regexp"
	"strings"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	serialPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

func ValidateUsername(username string) []string {
	var errs []string
	if len(username) < 3 {
		errs = append(errs, "El nombre de usuario debe tener al menos 3 caracteres")
	}
	if len(username) > 50 {
		errs = append(errs, "El nombre de usuario no puede exceder 50 caracteres")
	}
	if username != "" && !usernamePattern.MatchString(username) {
		errs = append(errs, "El nombre de usuario solo puede contener letras, números y guiones bajos")
	}
	return errs
}

func ValidatePassword(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "La contraseña debe tener al menos 8 caracteres")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		errs = append(errs, "La contraseña debe contener al menos una letra mayúscula")
	}
	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		errs = append(errs, "La contraseña debe contener al menos una letra minúscula")
	}
	if !strings.ContainsAny(password, "0123456789") {
		errs = append(errs, "La contraseña debe contener al menos un número")
	}
	if !strings.ContainsAny(password, `!@#$%^&*(),.?":{}|<>`) {
		errs = append(errs, "La contraseña debe contener al menos un carácter especial")
	}
	return errs
}

func ValidateSerial(serial string) []string {
	var errs []string
	if serial == "" {
		errs = append(errs, "El serial de la pulsera es requerido")
	}
	if len(serial) > 50 {
		errs = append(errs, "El serial no puede exceder 50 caracteres")
	}
	if serial != "" && !serialPattern.MatchString(serial) {
		errs = append(errs, "El serial solo puede contener letras y números")
	}
	return errs
}
