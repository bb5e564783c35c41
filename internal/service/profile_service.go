package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/apperrors"
	"github.com/caesarius1187/tgh/internal/audit"
	"github.com/caesarius1187/tgh/internal/models"
	"github.com/caesarius1187/tgh/internal/repository"
)

type ProfileStore interface {
	GetPersonal(ctx context.Context, userID int64) (*models.PersonalData, error)
	GetVital(ctx context.Context, userID int64) (*models.VitalData, error)
	ListContacts(ctx context.Context, userID int64) ([]models.EmergencyContact, error)
	UpdatePersonalFields(ctx context.Context, userID int64, fields map[string]any) (int64, error)
	UpdateVitalFields(ctx context.Context, userID int64, fields map[string]any) (int64, error)
	InsertPersonal(ctx context.Context, data models.PersonalData) error
	InsertVital(ctx context.Context, data models.VitalData) error
	ReplaceContacts(ctx context.Context, userID int64, contacts []models.EmergencyContact) error
	UpdateContact(ctx context.Context, userID int64, contact models.EmergencyContact) (int64, error)
	InsertContact(ctx context.Context, userID int64, contact models.EmergencyContact) error
	PublicNFCData(ctx context.Context, serial string) (*models.NFCData, error)
}

type ProfileUserStore interface {
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type ProfileBraceletStore interface {
	GetByID(ctx context.Context, id int64) (models.Bracelet, error)
}

type ProfileService struct {
	profiles  ProfileStore
	users     ProfileUserStore
	bracelets ProfileBraceletStore
	audit     audit.Recorder
	log       zerolog.Logger
}

func NewProfileService(
	profiles ProfileStore,
	users ProfileUserStore,
	bracelets ProfileBraceletStore,
	auditLog audit.Recorder,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		users:     users,
		bracelets: bracelets,
		audit:     auditLog,
		log:       log,
	}
}

// CompleteProfile is the authenticated dashboard view: the full row set for
// one user, password hash excluded by the model's json tags.
type CompleteProfile struct {
	Usuario   models.User               `json:"usuario"`
	Personal  *models.PersonalData      `json:"datosPersonales"`
	Vital     *models.VitalData         `json:"datosVitales"`
	Contactos []models.EmergencyContact `json:"contactosEmergencia"`
	Pulsera   *models.Bracelet          `json:"pulsera"`
}

func (s *ProfileService) Complete(ctx context.Context, userID int64, ip, userAgent string) (*CompleteProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
		}
		s.audit.Record(ctx, models.AuditEntry{
			UsuarioID:   &userID,
			Evento:      audit.EventUserDataNotFound,
			Descripcion: fmt.Sprintf("Datos de usuario no encontrados: %d", userID),
			IPAddress:   ip,
			UserAgent:   userAgent,
			Extra:       map[string]any{"userId": userID},
		})
		return nil, apperrors.Wrap(err, apperrors.KindNotFound, "Datos de usuario no encontrados")
	}

	personal, err := s.profiles.GetPersonal(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}
	vital, err := s.profiles.GetVital(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}
	contacts, err := s.profiles.ListContacts(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}

	var bracelet *models.Bracelet
	if user.PulseraID != nil {
		b, err := s.bracelets.GetByID(ctx, *user.PulseraID)
		if err == nil {
			bracelet = &b
		}
	}

	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   &user.ID,
		Evento:      audit.EventUserDataAccessed,
		Descripcion: fmt.Sprintf("Acceso a datos personales: %s", user.Username),
		IPAddress:   ip,
		UserAgent:   userAgent,
		Extra:       map[string]any{"username": user.Username},
	})

	return &CompleteProfile{
		Usuario:   user,
		Personal:  personal,
		Vital:     vital,
		Contactos: contacts,
		Pulsera:   bracelet,
	}, nil
}

// PersonalUpdate, VitalUpdate and ContactUpdate are the typed arms of the
// tipo/datos union the update endpoints accept. Nil pointer means "leave the
// field alone" on the partial path.
type PersonalUpdate struct {
	Nombre          *string `json:"nombre"`
	Apellido        *string `json:"apellido"`
	FechaNacimiento *string `json:"fecha_nacimiento"`
	Telefono        *string `json:"telefono"`
	Email           *string `json:"email"`
}

type VitalUpdate struct {
	GrupoSanguineo       *string  `json:"grupo_sanguineo"`
	Alergias             *string  `json:"alergias"`
	Medicacion           *string  `json:"medicacion"`
	EnfermedadesCronicas *string  `json:"enfermedades_cronicas"`
	Peso                 *float64 `json:"peso"`
	Altura               *float64 `json:"altura"`
	ObservacionesMedicas *string  `json:"observaciones_medicas"`
}

type ContactUpdate struct {
	ID          *int64  `json:"id"`
	Nombre      string  `json:"nombre"`
	Telefono    string  `json:"telefono"`
	Relacion    *string `json:"relacion"`
	EsPrincipal bool    `json:"es_principal"`
}

func (u ContactUpdate) validate() []string {
	var errs []string
	if u.Nombre == "" {
		errs = append(errs, "El nombre del contacto es requerido")
	}
	if u.Telefono == "" {
		errs = append(errs, "El teléfono del contacto es requerido")
	}
	return errs
}

var bloodTypes = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {}, "AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

func (u PersonalUpdate) fields() (map[string]any, error) {
	fields := make(map[string]any)
	if u.Nombre != nil {
		fields["nombre"] = *u.Nombre
	}
	if u.Apellido != nil {
		fields["apellido"] = *u.Apellido
	}
	if u.FechaNacimiento != nil {
		if _, err := time.Parse("2006-01-02", *u.FechaNacimiento); err != nil {
			return nil, apperrors.Validation("Datos inválidos", "Formato de fecha inválido (YYYY-MM-DD)")
		}
		fields["fecha_nacimiento"] = *u.FechaNacimiento
	}
	if u.Telefono != nil {
		fields["telefono"] = *u.Telefono
	}
	if u.Email != nil {
		fields["email"] = *u.Email
	}
	return fields, nil
}

func (u VitalUpdate) fields() (map[string]any, error) {
	fields := make(map[string]any)
	if u.GrupoSanguineo != nil {
		if *u.GrupoSanguineo != "" {
			if _, ok := bloodTypes[*u.GrupoSanguineo]; !ok {
				return nil, apperrors.Validation("Datos inválidos", "Grupo sanguíneo inválido")
			}
		}
		fields["grupo_sanguineo"] = *u.GrupoSanguineo
	}
	if u.Alergias != nil {
		fields["alergias"] = *u.Alergias
	}
	if u.Medicacion != nil {
		fields["medicacion"] = *u.Medicacion
	}
	if u.EnfermedadesCronicas != nil {
		fields["enfermedades_cronicas"] = *u.EnfermedadesCronicas
	}
	if u.Peso != nil {
		fields["peso"] = *u.Peso
	}
	if u.Altura != nil {
		fields["altura"] = *u.Altura
	}
	if u.ObservacionesMedicas != nil {
		fields["observaciones_medicas"] = *u.ObservacionesMedicas
	}
	return fields, nil
}

// UpdatePersonal upserts: partial update when a row exists, insert otherwise.
func (s *ProfileService) UpdatePersonal(ctx context.Context, userID int64, update PersonalUpdate, ip, userAgent string) error {
	fields, err := update.fields()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return apperrors.Validation("Datos inválidos", "No hay campos válidos para actualizar")
	}

	affected, err := s.profiles.UpdatePersonalFields(ctx, userID, fields)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando datos personales")
	}
	if affected == 0 {
		data := models.PersonalData{UsuarioID: userID}
		if update.Nombre != nil {
			data.Nombre = *update.Nombre
		}
		if update.Apellido != nil {
			data.Apellido = *update.Apellido
		}
		if update.FechaNacimiento != nil {
			if parsed, err := time.Parse("2006-01-02", *update.FechaNacimiento); err == nil {
				data.FechaNacimiento = &parsed
			}
		}
		data.Telefono = update.Telefono
		data.Email = update.Email
		if err := s.profiles.InsertPersonal(ctx, data); err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando datos personales")
		}
	}

	s.auditUpdate(ctx, userID, "personales", fields, ip, userAgent)
	return nil
}

func (s *ProfileService) UpdateVital(ctx context.Context, userID int64, update VitalUpdate, ip, userAgent string) error {
	fields, err := update.fields()
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return apperrors.Validation("Datos inválidos", "No hay campos válidos para actualizar")
	}

	affected, err := s.profiles.UpdateVitalFields(ctx, userID, fields)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando datos vitales")
	}
	if affected == 0 {
		data := models.VitalData{UsuarioID: userID}
		data.GrupoSanguineo = update.GrupoSanguineo
		data.Alergias = update.Alergias
		data.Medicacion = update.Medicacion
		data.EnfermedadesCronicas = update.EnfermedadesCronicas
		data.Peso = update.Peso
		data.Altura = update.Altura
		data.ObservacionesMedicas = update.ObservacionesMedicas
		if err := s.profiles.InsertVital(ctx, data); err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando datos vitales")
		}
	}

	s.auditUpdate(ctx, userID, "vitales", fields, ip, userAgent)
	return nil
}

// ReplaceContacts swaps the full list (the dashboard's bulk edit).
func (s *ProfileService) ReplaceContacts(ctx context.Context, userID int64, updates []ContactUpdate, ip, userAgent string) error {
	contacts := make([]models.EmergencyContact, 0, len(updates))
	for _, u := range updates {
		if errs := u.validate(); len(errs) > 0 {
			return apperrors.Validation("Datos inválidos", errs...)
		}
		contacts = append(contacts, models.EmergencyContact{
			Nombre:      u.Nombre,
			Telefono:    u.Telefono,
			Relacion:    u.Relacion,
			EsPrincipal: u.EsPrincipal,
		})
	}

	if err := s.profiles.ReplaceContacts(ctx, userID, contacts); err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando contactos de emergencia")
	}

	s.auditUpdate(ctx, userID, "contactos", map[string]any{"count": len(contacts)}, ip, userAgent)
	return nil
}

// UpsertContact updates one contact by id, or appends a new one with the next
// orden value.
func (s *ProfileService) UpsertContact(ctx context.Context, userID int64, update ContactUpdate, ip, userAgent string) error {
	if errs := update.validate(); len(errs) > 0 {
		return apperrors.Validation("Datos inválidos", errs...)
	}

	contact := models.EmergencyContact{
		Nombre:      update.Nombre,
		Telefono:    update.Telefono,
		Relacion:    update.Relacion,
		EsPrincipal: update.EsPrincipal,
	}

	if update.ID != nil {
		contact.ID = *update.ID
		affected, err := s.profiles.UpdateContact(ctx, userID, contact)
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando contactos de emergencia")
		}
		if affected == 0 {
			return apperrors.New(apperrors.KindNotFound, "Contacto no encontrado")
		}
	} else {
		if err := s.profiles.InsertContact(ctx, userID, contact); err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "Error actualizando contactos de emergencia")
		}
	}

	s.auditUpdate(ctx, userID, "contacto", map[string]any{"nombre": update.Nombre}, ip, userAgent)
	return nil
}

// PublicProfile is the projection the unauthenticated NFC endpoint returns.
// Only emergency-relevant fields appear; nothing in it identifies the account.
type PublicProfile struct {
	Persona   *PublicPersona   `json:"persona"`
	Medica    *PublicMedica    `json:"medica"`
	Contactos []PublicContacto `json:"contactos"`
}

type PublicPersona struct {
	Nombre   string   `json:"nombre"`
	Apellido string   `json:"apellido"`
	Edad     *int     `json:"edad"`
	Foto     *string  `json:"foto"`
	Peso     *float64 `json:"peso"`
	Altura   *float64 `json:"altura"`
}

type PublicMedica struct {
	GrupoSanguineo   *string `json:"grupo_sanguineo"`
	Alergias         *string `json:"alergias"`
	Medicacion       *string `json:"medicacion"`
	Enfermedades     *string `json:"enfermedades_cronicas"`
	Observaciones    *string `json:"observaciones"`
	CertificadoGrupo *string `json:"certificado_grupo_sanguineo"`
}

type PublicContacto struct {
	Nombre         string  `json:"nombre"`
	Telefono       string  `json:"telefono"`
	Relacion       *string `json:"relacion"`
	EsPrincipal    bool    `json:"es_principal"`
	LlamadaDirecta string  `json:"llamada_directa"`
}

// PublicData returns nil when the serial is unknown, the bracelet is not
// activated, or its owner is inactive. Callers must render all three as the
// same not-found response.
func (s *ProfileService) PublicData(ctx context.Context, serial string, ip, userAgent string) (*PublicProfile, error) {
	data, err := s.profiles.PublicNFCData(ctx, serial)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}
	if data == nil {
		s.audit.Record(ctx, models.AuditEntry{
			Evento:      audit.EventNFCAccessFailed,
			Descripcion: fmt.Sprintf("Intento de acceso NFC con serial inexistente o inactivo: %s", serial),
			IPAddress:   ip,
			UserAgent:   userAgent,
			Extra:       map[string]any{"serial": serial, "reason": "serial_not_found_or_inactive"},
		})
		return nil, nil
	}

	profile := buildPublicProfile(data, time.Now())

	s.audit.Record(ctx, models.AuditEntry{
		Evento:      audit.EventNFCAccessSuccess,
		Descripcion: fmt.Sprintf("Acceso público NFC exitoso: %s", serial),
		IPAddress:   ip,
		UserAgent:   userAgent,
		Extra: map[string]any{
			"serial":        serial,
			"hasPersonal":   data.Personal != nil,
			"hasVital":      data.Vital != nil,
			"contactsCount": len(data.Contacts),
		},
	})

	return profile, nil
}

func buildPublicProfile(data *models.NFCData, now time.Time) *PublicProfile {
	profile := &PublicProfile{Contactos: []PublicContacto{}}

	if data.Personal != nil {
		persona := &PublicPersona{
			Nombre:   data.Personal.Nombre,
			Apellido: data.Personal.Apellido,
			Foto:     data.Personal.FotoURL,
		}
		if data.Personal.FechaNacimiento != nil {
			edad := ageAt(*data.Personal.FechaNacimiento, now)
			persona.Edad = &edad
		}
		profile.Persona = persona
	}

	if data.Vital != nil {
		profile.Medica = &PublicMedica{
			GrupoSanguineo:   data.Vital.GrupoSanguineo,
			Alergias:         data.Vital.Alergias,
			Medicacion:       data.Vital.Medicacion,
			Enfermedades:     data.Vital.EnfermedadesCronicas,
			Observaciones:    data.Vital.ObservacionesMedicas,
			CertificadoGrupo: data.Vital.GrupoSanguineoURL,
		}
		if profile.Persona != nil {
			profile.Persona.Peso = data.Vital.Peso
			profile.Persona.Altura = data.Vital.Altura
		}
	}

	for _, contact := range data.Contacts {
		profile.Contactos = append(profile.Contactos, PublicContacto{
			Nombre:         contact.Nombre,
			Telefono:       contact.Telefono,
			Relacion:       contact.Relacion,
			EsPrincipal:    contact.EsPrincipal,
			LlamadaDirecta: "tel:" + dialableNumber(contact.Telefono),
		})
	}

	return profile
}

func ageAt(birthDate, now time.Time) int {
	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() ||
		(now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}
	return age
}

// dialableNumber strips everything except digits, keeping a leading +.
func dialableNumber(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *ProfileService) auditUpdate(ctx context.Context, userID int64, tipo string, fields map[string]any, ip, userAgent string) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   &userID,
		Evento:      audit.EventUserDataUpdated,
		Descripcion: fmt.Sprintf("Datos %s actualizados", tipo),
		IPAddress:   ip,
		UserAgent:   userAgent,
		Extra:       map[string]any{"tipo": tipo, "campos": keys},
	})
}
