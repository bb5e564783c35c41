package models

import "time"

// PersonalData maps table datos_personales.
type PersonalData struct {
	ID              int64      `json:"id"`
	UsuarioID       int64      `json:"usuario_id"`
	Nombre          string     `json:"nombre"`
	Apellido        string     `json:"apellido"`
	FechaNacimiento *time.Time `json:"fecha_nacimiento"`
	FotoURL         *string    `json:"foto_url"`
	Telefono        *string    `json:"telefono"`
	Email           *string    `json:"email"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// VitalData maps table datos_vitales.
type VitalData struct {
	ID                   int64     `json:"id"`
	UsuarioID            int64     `json:"usuario_id"`
	Alergias             *string   `json:"alergias"`
	Medicacion           *string   `json:"medicacion"`
	EnfermedadesCronicas *string   `json:"enfermedades_cronicas"`
	GrupoSanguineo       *string   `json:"grupo_sanguineo"`
	GrupoSanguineoURL    *string   `json:"grupo_sanguineo_url"`
	Peso                 *float64  `json:"peso"`
	Altura               *float64  `json:"altura"`
	ObservacionesMedicas *string   `json:"observaciones_medicas"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// EmergencyContact maps table contactos_emergencia. Contacts are presented
// principal-first, then by Orden.
type EmergencyContact struct {
	ID          int64     `json:"id"`
	UsuarioID   int64     `json:"usuario_id"`
	Nombre      string    `json:"nombre"`
	Telefono    string    `json:"telefono"`
	Relacion    *string   `json:"relacion"`
	EsPrincipal bool      `json:"es_principal"`
	Orden       int       `json:"orden"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NFCData is the raw joined view behind the public NFC endpoint. A nil result
// means the serial is unknown, unactivated, or its owner is inactive; callers
// must not distinguish the three.
type NFCData struct {
	Personal *PersonalData
	Vital    *VitalData
	Contacts []EmergencyContact
}
