package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/apperrors"
	"github.com/caesarius1187/tgh/internal/config"
)

type fakeBlobStore struct {
	lastKey  string
	lastMIME string
	lastSize int
}

func (f *fakeBlobStore) Put(_ context.Context, objectKey, contentType string, data []byte) (string, error) {
	f.lastKey = objectKey
	f.lastMIME = contentType
	f.lastSize = len(data)
	return "https://cdn.example/" + objectKey, nil
}

type fakeUploadProfiles struct {
	photoURL string
	certURL  string
}

func (f *fakeUploadProfiles) SetPhotoURL(_ context.Context, _ int64, url string) error {
	f.photoURL = url
	return nil
}

func (f *fakeUploadProfiles) SetBloodTypeCertURL(_ context.Context, _ int64, url string) error {
	f.certURL = url
	return nil
}

func uploadTestConfig() *config.AppConfig {
	cfg := testConfig()
	cfg.Upload.MaxSize = 5 * 1024 * 1024
	return cfg
}

// multipartFile builds a parsed multipart file the way gin hands it to the
// handler, with a caller-chosen declared Content-Type.
func multipartFile(t *testing.T, filename, contentType string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	fh := form.File["file"][0]
	file, err := fh.Open()
	if err != nil {
		t.Fatalf("open form file: %v", err)
	}
	return file, fh
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13}

func newTestUploadService() (*UploadService, *fakeBlobStore, *fakeUploadProfiles, *recordedAudit) {
	blobs := &fakeBlobStore{}
	profiles := &fakeUploadProfiles{}
	auditLog := &recordedAudit{}
	svc := NewUploadService(blobs, profiles, auditLog, uploadTestConfig(), zerolog.Nop())
	return svc, blobs, profiles, auditLog
}

func TestUploadPhoto(t *testing.T) {
	svc, blobs, profiles, _ := newTestUploadService()
	file, fh := multipartFile(t, "foto.png", "image/png", pngBytes)
	defer file.Close()

	result, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Kind:   UploadKindPhoto,
		File:   file,
		Header: fh,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Type != "image/png" {
		t.Errorf("Type = %q, want image/png", result.Type)
	}
	if blobs.lastMIME != "image/png" {
		t.Errorf("stored MIME = %q", blobs.lastMIME)
	}
	if !strings.Contains(blobs.lastKey, "7_foto_") {
		t.Errorf("object key %q missing user/kind prefix", blobs.lastKey)
	}
	if !strings.HasSuffix(blobs.lastKey, ".png") {
		t.Errorf("object key %q missing extension", blobs.lastKey)
	}
	if profiles.photoURL != result.URL {
		t.Errorf("profile photo url = %q, want %q", profiles.photoURL, result.URL)
	}
}

func TestUploadBloodCertAcceptsPDF(t *testing.T) {
	svc, _, profiles, _ := newTestUploadService()
	file, fh := multipartFile(t, "cert.pdf", "application/pdf", []byte("%PDF-1.4\ncontenido"))
	defer file.Close()

	result, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Kind:   UploadKindBloodCert,
		File:   file,
		Header: fh,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if profiles.certURL != result.URL {
		t.Errorf("certificate url = %q, want %q", profiles.certURL, result.URL)
	}
}

func TestUploadRejectsPDFAsPhoto(t *testing.T) {
	svc, _, _, auditLog := newTestUploadService()
	file, fh := multipartFile(t, "cert.pdf", "application/pdf", []byte("%PDF-1.4\n"))
	defer file.Close()

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Kind:   UploadKindPhoto,
		File:   file,
		Header: fh,
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("kind = %v, want validation", apperrors.KindOf(err))
	}
	if auditLog.find("file_upload_failed") == nil {
		t.Error("no file_upload_failed audit entry")
	}
}

func TestUploadRejectsUnknownKind(t *testing.T) {
	svc, _, _, _ := newTestUploadService()
	file, fh := multipartFile(t, "foto.png", "image/png", pngBytes)
	defer file.Close()

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Kind:   UploadKind("dni"),
		File:   file,
		Header: fh,
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("kind = %v, want validation", apperrors.KindOf(err))
	}
}

func TestUploadRejectsSpoofedContentType(t *testing.T) {
	svc, _, _, _ := newTestUploadService()
	// Declared png, actually jpeg bytes.
	file, fh := multipartFile(t, "foto.png", "image/png", []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3})
	defer file.Close()

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Kind:   UploadKindPhoto,
		File:   file,
		Header: fh,
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("kind = %v, want validation", apperrors.KindOf(err))
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _, _, _ := newTestUploadService()
	big := append(append([]byte{}, pngBytes...), make([]byte, 6*1024*1024)...)
	file, fh := multipartFile(t, "foto.png", "image/png", big)
	defer file.Close()

	_, err := svc.Upload(context.Background(), UploadInput{
		UserID: 7,
		Kind:   UploadKindPhoto,
		File:   file,
		Header: fh,
	})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("kind = %v, want validation", apperrors.KindOf(err))
	}
}
