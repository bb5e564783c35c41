// Package audit appends security-relevant events to auditoria_logs. Writes
// are best-effort: a failed audit insert is logged locally and never surfaces
// to the operation that triggered it.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/models"
)

// Event tags, shared vocabulary with the dashboard's audit views.
const (
	EventLoginSuccess           = "login_success"
	EventLoginFailed            = "login_failed"
	EventLoginBlocked           = "login_blocked"
	EventLoginError             = "login_error"
	EventUserRegistered         = "user_registered"
	EventRegistrationFailed     = "registration_failed"
	EventRegistrationError      = "registration_error"
	EventSerialValidationOK     = "serial_validation_success"
	EventSerialValidationFailed = "serial_validation_failed"
	EventNFCAccessSuccess       = "nfc_access_success"
	EventNFCAccessFailed        = "nfc_access_failed"
	EventUserDataAccessed       = "user_data_accessed"
	EventUserDataNotFound       = "user_data_not_found"
	EventUserDataUpdated        = "user_data_updated"
	EventFileUploadSuccess      = "file_upload_success"
	EventFileUploadFailed       = "file_upload_failed"
)

type Recorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

type store interface {
	Insert(ctx context.Context, entry models.AuditEntry) error
}

type Writer struct {
	store store
	log   zerolog.Logger
}

func NewWriter(store store, log zerolog.Logger) *Writer {
	return &Writer{store: store, log: log}
}

func (w *Writer) Record(ctx context.Context, entry models.AuditEntry) {
	if err := w.store.Insert(ctx, entry); err != nil {
		w.log.Error().Err(err).
			Str("evento", entry.Evento).
			Msg("audit write failed")
	}
}
