package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/models"
	"github.com/caesarius1187/tgh/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// nfcProfileStore serves the public NFC read; every other method is unused by
// the endpoint under test.
type nfcProfileStore struct {
	nfcData *models.NFCData
}

func (f *nfcProfileStore) GetPersonal(_ context.Context, _ int64) (*models.PersonalData, error) {
	return nil, nil
}

func (f *nfcProfileStore) GetVital(_ context.Context, _ int64) (*models.VitalData, error) {
	return nil, nil
}

func (f *nfcProfileStore) ListContacts(_ context.Context, _ int64) ([]models.EmergencyContact, error) {
	return nil, nil
}

func (f *nfcProfileStore) UpdatePersonalFields(_ context.Context, _ int64, _ map[string]any) (int64, error) {
	return 0, nil
}

func (f *nfcProfileStore) UpdateVitalFields(_ context.Context, _ int64, _ map[string]any) (int64, error) {
	return 0, nil
}

func (f *nfcProfileStore) InsertPersonal(_ context.Context, _ models.PersonalData) error { return nil }

func (f *nfcProfileStore) InsertVital(_ context.Context, _ models.VitalData) error { return nil }

func (f *nfcProfileStore) ReplaceContacts(_ context.Context, _ int64, _ []models.EmergencyContact) error {
	return nil
}

func (f *nfcProfileStore) UpdateContact(_ context.Context, _ int64, _ models.EmergencyContact) (int64, error) {
	return 0, nil
}

func (f *nfcProfileStore) InsertContact(_ context.Context, _ int64, _ models.EmergencyContact) error {
	return nil
}

func (f *nfcProfileStore) PublicNFCData(_ context.Context, _ string) (*models.NFCData, error) {
	return f.nfcData, nil
}

type nfcUserStore struct{}

func (nfcUserStore) GetByID(_ context.Context, _ int64) (models.User, error) {
	return models.User{}, nil
}

type nfcBraceletStore struct{}

func (nfcBraceletStore) GetByID(_ context.Context, _ int64) (models.Bracelet, error) {
	return models.Bracelet{}, nil
}

type nopAudit struct{}

func (nopAudit) Record(_ context.Context, _ models.AuditEntry) {}

func newNFCRouter(store *nfcProfileStore) *gin.Engine {
	svc := service.NewProfileService(store, nfcUserStore{}, nfcBraceletStore{}, nopAudit{}, zerolog.Nop())
	h := HandlerSet{log: zerolog.Nop(), profileService: svc}

	router := gin.New()
	router.GET("/api/nfc-data/:serial", h.NFCData)
	return router
}

func TestNFCDataNotFoundIsUniform(t *testing.T) {
	// Unknown, unactivated and owner-inactive serials all come back from the
	// store as nil; the response must not reveal which case it was.
	router := newNFCRouter(&nfcProfileStore{nfcData: nil})

	serials := []string{"TGH999", "TGH001", "TGH777"}
	var bodies []string
	for _, serial := range serials {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/nfc-data/"+serial, nil)
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("GET %s: status = %d, want 404", serial, rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	for _, body := range bodies[1:] {
		if body != bodies[0] {
			t.Errorf("404 bodies differ: %q vs %q", bodies[0], body)
		}
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(bodies[0]), &payload); err != nil {
		t.Fatalf("decode 404 body: %v", err)
	}
	if payload["error"] != "Pulsera no encontrada o no activada" {
		t.Errorf("error = %q", payload["error"])
	}
	if payload["message"] != "Esta pulsera no está registrada en el sistema o no ha sido activada" {
		t.Errorf("message = %q", payload["message"])
	}
}

func TestNFCDataActivatedSerial(t *testing.T) {
	nombre := "María"
	router := newNFCRouter(&nfcProfileStore{
		nfcData: &models.NFCData{
			Personal: &models.PersonalData{Nombre: nombre, Apellido: "García"},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/nfc-data/TGH001", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=300, s-maxage=300" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var payload struct {
		Success bool   `json:"success"`
		Serial  string `json:"serial"`
		Data    struct {
			Persona *struct {
				Nombre string `json:"nombre"`
			} `json:"persona"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !payload.Success || payload.Serial != "TGH001" {
		t.Errorf("success = %v, serial = %q", payload.Success, payload.Serial)
	}
	if payload.Data.Persona == nil || payload.Data.Persona.Nombre != nombre {
		t.Errorf("persona = %+v, want nombre %q", payload.Data.Persona, nombre)
	}
}
