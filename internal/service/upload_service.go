package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/apperrors"
	"github.com/caesarius1187/tgh/internal/audit"
	"github.com/caesarius1187/tgh/internal/config"
	"github.com/caesarius1187/tgh/internal/ids"
	"github.com/caesarius1187/tgh/internal/media/sniffer"
	"github.com/caesarius1187/tgh/internal/models"
)

type UploadKind string

const (
	UploadKindPhoto     UploadKind = "foto"
	UploadKindBloodCert UploadKind = "certificado_grupo_sanguineo"
)

// allowedMIMEs pins each upload kind to the content the profile page can
// actually render for it.
var allowedMIMEs = map[UploadKind]map[string]struct{}{
	UploadKindPhoto: {
		"image/jpeg": {}, "image/png": {}, "image/webp": {},
	},
	UploadKindBloodCert: {
		"image/jpeg": {}, "image/png": {}, "application/pdf": {},
	},
}

type BlobStore interface {
	Put(ctx context.Context, objectKey string, contentType string, data []byte) (string, error)
}

type UploadProfileStore interface {
	SetPhotoURL(ctx context.Context, userID int64, url string) error
	SetBloodTypeCertURL(ctx context.Context, userID int64, url string) error
}

type UploadInput struct {
	UserID    int64
	Kind      UploadKind
	File      multipart.File
	Header    *multipart.FileHeader
	IPAddress string
	UserAgent string
}

type UploadResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

type UploadService struct {
	blobs    BlobStore
	profiles UploadProfileStore
	audit    audit.Recorder
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewUploadService(
	blobs BlobStore,
	profiles UploadProfileStore,
	auditLog audit.Recorder,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *UploadService {
	return &UploadService{
		blobs:    blobs,
		profiles: profiles,
		audit:    auditLog,
		cfg:      cfg,
		log:      log,
	}
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if input.File == nil || input.Header == nil {
		return UploadResult{}, apperrors.Validation("Archivo y tipo son requeridos")
	}

	allowed, ok := allowedMIMEs[input.Kind]
	if !ok {
		s.auditFailure(ctx, input, "invalid_type", fmt.Sprintf("Intento de subida con tipo inválido: %s", input.Kind))
		return UploadResult{}, apperrors.Validation("Tipo de archivo no válido")
	}

	if input.Header.Size > s.cfg.Upload.MaxSize {
		s.auditFailure(ctx, input, "file_too_large",
			fmt.Sprintf("Intento de subida con archivo muy grande: %d bytes", input.Header.Size))
		return UploadResult{}, apperrors.Validation("El archivo es demasiado grande. Máximo 5MB")
	}

	data, err := io.ReadAll(io.LimitReader(input.File, s.cfg.Upload.MaxSize+1))
	if err != nil {
		return UploadResult{}, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}
	if int64(len(data)) > s.cfg.Upload.MaxSize {
		s.auditFailure(ctx, input, "file_too_large",
			fmt.Sprintf("Intento de subida con archivo muy grande: %d bytes", len(data)))
		return UploadResult{}, apperrors.Validation("El archivo es demasiado grande. Máximo 5MB")
	}
	if len(data) == 0 {
		return UploadResult{}, apperrors.Validation("Archivo y tipo son requeridos")
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected, err := sniffer.DetectHead(head)
	if err != nil {
		s.auditFailure(ctx, input, "invalid_mime_type", "Intento de subida con contenido no reconocido")
		return UploadResult{}, apperrors.Validation("Tipo de archivo no permitido")
	}

	if _, ok := allowed[detected.MIME]; !ok {
		s.auditFailure(ctx, input, "invalid_mime_type",
			fmt.Sprintf("Intento de subida con MIME type inválido: %s", detected.MIME))
		return UploadResult{}, apperrors.Validation("Tipo de archivo no permitido")
	}

	declared := sniffer.MimeTypeFromHTTP(http.Header(input.Header.Header))
	if declared != "" && declared != "application/octet-stream" && declared != detected.MIME {
		s.auditFailure(ctx, input, "invalid_mime_type",
			fmt.Sprintf("MIME declarado no coincide: %s vs %s", declared, detected.MIME))
		return UploadResult{}, apperrors.Validation("Tipo de archivo no permitido")
	}

	objectKey := s.buildObjectKey(input.UserID, input.Kind, string(detected.Type))
	url, err := s.blobs.Put(ctx, objectKey, detected.MIME, data)
	if err != nil {
		return UploadResult{}, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}

	switch input.Kind {
	case UploadKindPhoto:
		err = s.profiles.SetPhotoURL(ctx, input.UserID, url)
	case UploadKindBloodCert:
		err = s.profiles.SetBloodTypeCertURL(ctx, input.UserID, url)
	}
	if err != nil {
		return UploadResult{}, apperrors.Wrap(err, apperrors.KindInternal, "Error interno del servidor")
	}

	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   &input.UserID,
		Evento:      audit.EventFileUploadSuccess,
		Descripcion: fmt.Sprintf("Archivo %s subido exitosamente", input.Kind),
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra: map[string]any{
			"tipo":     string(input.Kind),
			"fileName": path.Base(objectKey),
			"fileSize": len(data),
			"mimeType": detected.MIME,
			"fileUrl":  url,
		},
	})

	return UploadResult{
		Name: path.Base(objectKey),
		URL:  url,
		Size: int64(len(data)),
		Type: detected.MIME,
	}, nil
}

func (s *UploadService) buildObjectKey(userID int64, kind UploadKind, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%d_%s_%s.%s", userID, kind, ids.New(), ext))
}

func (s *UploadService) auditFailure(ctx context.Context, input UploadInput, reason, description string) {
	s.audit.Record(ctx, models.AuditEntry{
		UsuarioID:   &input.UserID,
		Evento:      audit.EventFileUploadFailed,
		Descripcion: description,
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Extra:       map[string]any{"tipo": string(input.Kind), "reason": reason},
	})
}
