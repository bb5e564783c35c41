package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caesarius1187/tgh/internal/models"
)

// ProfileRepository covers datos_personales, datos_vitales and
// contactos_emergencia, plus the joined public NFC read.
type ProfileRepository struct {
	db   Querier
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: pool, pool: pool}
}

func (r *ProfileRepository) WithTx(tx pgx.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

func (r *ProfileRepository) GetPersonal(ctx context.Context, userID int64) (*models.PersonalData, error) {
	const query = `
		SELECT id, usuario_id, nombre, apellido, fecha_nacimiento, foto_url, telefono, email, created_at, updated_at
		FROM datos_personales WHERE usuario_id = $1
	`

	row := r.db.QueryRow(ctx, query, userID)
	var data models.PersonalData
	if err := row.Scan(
		&data.ID,
		&data.UsuarioID,
		&data.Nombre,
		&data.Apellido,
		&data.FechaNacimiento,
		&data.FotoURL,
		&data.Telefono,
		&data.Email,
		&data.CreatedAt,
		&data.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

func (r *ProfileRepository) GetVital(ctx context.Context, userID int64) (*models.VitalData, error) {
	const query = `
		SELECT id, usuario_id, alergias, medicacion, enfermedades_cronicas, grupo_sanguineo,
		       grupo_sanguineo_url, peso, altura, observaciones_medicas, created_at, updated_at
		FROM datos_vitales WHERE usuario_id = $1
	`

	row := r.db.QueryRow(ctx, query, userID)
	var data models.VitalData
	if err := row.Scan(
		&data.ID,
		&data.UsuarioID,
		&data.Alergias,
		&data.Medicacion,
		&data.EnfermedadesCronicas,
		&data.GrupoSanguineo,
		&data.GrupoSanguineoURL,
		&data.Peso,
		&data.Altura,
		&data.ObservacionesMedicas,
		&data.CreatedAt,
		&data.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

func (r *ProfileRepository) ListContacts(ctx context.Context, userID int64) ([]models.EmergencyContact, error) {
	const query = `
		SELECT id, usuario_id, nombre, telefono, relacion, es_principal, orden, is_active, created_at, updated_at
		FROM contactos_emergencia
		WHERE usuario_id = $1 AND is_active = TRUE
		ORDER BY es_principal DESC, orden
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []models.EmergencyContact
	for rows.Next() {
		var contact models.EmergencyContact
		if err := rows.Scan(
			&contact.ID,
			&contact.UsuarioID,
			&contact.Nombre,
			&contact.Telefono,
			&contact.Relacion,
			&contact.EsPrincipal,
			&contact.Orden,
			&contact.IsActive,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

// personalColumns and vitalColumns are the only columns the partial-update
// path may touch; anything else in the payload was already rejected at the
// boundary.
var personalColumns = map[string]struct{}{
	"nombre": {}, "apellido": {}, "fecha_nacimiento": {}, "telefono": {}, "email": {},
}

var vitalColumns = map[string]struct{}{
	"alergias": {}, "medicacion": {}, "enfermedades_cronicas": {}, "grupo_sanguineo": {},
	"peso": {}, "altura": {}, "observaciones_medicas": {},
}

func (r *ProfileRepository) UpdatePersonalFields(ctx context.Context, userID int64, fields map[string]any) (int64, error) {
	return r.updateFields(ctx, "datos_personales", personalColumns, userID, fields)
}

func (r *ProfileRepository) UpdateVitalFields(ctx context.Context, userID int64, fields map[string]any) (int64, error) {
	return r.updateFields(ctx, "datos_vitales", vitalColumns, userID, fields)
}

func (r *ProfileRepository) updateFields(ctx context.Context, table string, allowed map[string]struct{}, userID int64, fields map[string]any) (int64, error) {
	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	for column, value := range fields {
		if _, ok := allowed[column]; !ok {
			return 0, fmt.Errorf("column %q not updatable", column)
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(setClauses) == 0 {
		return 0, nil
	}

	args = append(args, userID)
	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = NOW() WHERE usuario_id = $%d",
		table, strings.Join(setClauses, ", "), len(args),
	)

	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ProfileRepository) InsertPersonal(ctx context.Context, data models.PersonalData) error {
	const query = `
		INSERT INTO datos_personales (usuario_id, nombre, apellido, fecha_nacimiento, foto_url, telefono, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		data.UsuarioID,
		data.Nombre,
		data.Apellido,
		data.FechaNacimiento,
		data.FotoURL,
		data.Telefono,
		data.Email,
	)
	return err
}

func (r *ProfileRepository) InsertVital(ctx context.Context, data models.VitalData) error {
	const query = `
		INSERT INTO datos_vitales (usuario_id, alergias, medicacion, enfermedades_cronicas, grupo_sanguineo,
		                           grupo_sanguineo_url, peso, altura, observaciones_medicas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query,
		data.UsuarioID,
		data.Alergias,
		data.Medicacion,
		data.EnfermedadesCronicas,
		data.GrupoSanguineo,
		data.GrupoSanguineoURL,
		data.Peso,
		data.Altura,
		data.ObservacionesMedicas,
	)
	return err
}

// ReplaceContacts swaps the whole contact list in one transaction; orden
// follows list position. A failed insert rolls back so the user is never
// left without contacts.
func (r *ProfileRepository) ReplaceContacts(ctx context.Context, userID int64, contacts []models.EmergencyContact) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin contact replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.WithTx(tx).replaceContacts(ctx, userID, contacts); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProfileRepository) replaceContacts(ctx context.Context, userID int64, contacts []models.EmergencyContact) error {
	const deleteQuery = `DELETE FROM contactos_emergencia WHERE usuario_id = $1`
	if _, err := r.db.Exec(ctx, deleteQuery, userID); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO contactos_emergencia (usuario_id, nombre, telefono, relacion, es_principal, orden, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
	`
	for i, contact := range contacts {
		if _, err := r.db.Exec(ctx, insertQuery,
			userID,
			contact.Nombre,
			contact.Telefono,
			contact.Relacion,
			contact.EsPrincipal,
			i+1,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProfileRepository) UpdateContact(ctx context.Context, userID int64, contact models.EmergencyContact) (int64, error) {
	const query = `
		UPDATE contactos_emergencia
		SET nombre = $1, telefono = $2, relacion = $3, es_principal = $4, updated_at = NOW()
		WHERE id = $5 AND usuario_id = $6
	`
	cmd, err := r.db.Exec(ctx, query,
		contact.Nombre,
		contact.Telefono,
		contact.Relacion,
		contact.EsPrincipal,
		contact.ID,
		userID,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ProfileRepository) InsertContact(ctx context.Context, userID int64, contact models.EmergencyContact) error {
	const orderQuery = `
		SELECT COALESCE(MAX(orden), 0) + 1 FROM contactos_emergencia WHERE usuario_id = $1
	`
	var nextOrden int
	if err := r.db.QueryRow(ctx, orderQuery, userID).Scan(&nextOrden); err != nil {
		return err
	}

	const insertQuery = `
		INSERT INTO contactos_emergencia (usuario_id, nombre, telefono, relacion, es_principal, orden, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, insertQuery,
		userID,
		contact.Nombre,
		contact.Telefono,
		contact.Relacion,
		contact.EsPrincipal,
		nextOrden,
	)
	return err
}

func (r *ProfileRepository) SetPhotoURL(ctx context.Context, userID int64, url string) error {
	const query = `UPDATE datos_personales SET foto_url = $1, updated_at = NOW() WHERE usuario_id = $2`

	cmd, err := r.db.Exec(ctx, query, url, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// No personal data yet: create a placeholder row carrying the photo.
		return r.InsertPersonal(ctx, models.PersonalData{
			UsuarioID: userID,
			FotoURL:   &url,
		})
	}
	return nil
}

func (r *ProfileRepository) SetBloodTypeCertURL(ctx context.Context, userID int64, url string) error {
	const query = `UPDATE datos_vitales SET grupo_sanguineo_url = $1, updated_at = NOW() WHERE usuario_id = $2`

	cmd, err := r.db.Exec(ctx, query, url, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.InsertVital(ctx, models.VitalData{
			UsuarioID:         userID,
			GrupoSanguineoURL: &url,
		})
	}
	return nil
}

// PublicNFCData runs the unauthenticated join behind the NFC endpoint. It
// returns nil for an unknown serial, an unactivated bracelet and an inactive
// owner alike.
func (r *ProfileRepository) PublicNFCData(ctx context.Context, serial string) (*models.NFCData, error) {
	const ownerQuery = `
		SELECT u.id
		FROM pulseras p
		JOIN usuarios u ON p.id = u.pulsera_id
		WHERE p.serial = $1 AND p.is_active = TRUE AND u.is_active = TRUE
	`

	var userID int64
	if err := r.db.QueryRow(ctx, ownerQuery, serial).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	personal, err := r.GetPersonal(ctx, userID)
	if err != nil {
		return nil, err
	}
	vital, err := r.GetVital(ctx, userID)
	if err != nil {
		return nil, err
	}
	contacts, err := r.ListContacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.NFCData{
		Personal: personal,
		Vital:    vital,
		Contacts: contacts,
	}, nil
}
