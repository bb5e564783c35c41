package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/caesarius1187/tgh/internal/apperrors"
	"github.com/caesarius1187/tgh/internal/audit"
	"github.com/caesarius1187/tgh/internal/config"
	"github.com/caesarius1187/tgh/internal/middleware"
	"github.com/caesarius1187/tgh/internal/ratelimit"
	"github.com/caesarius1187/tgh/internal/repository"
	"github.com/caesarius1187/tgh/internal/service"
	"github.com/caesarius1187/tgh/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	profileService *service.ProfileService
	uploadService  *service.UploadService
	db             *pgxpool.Pool
	cache          *redis.Client
	sessions       *repository.SessionRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cache *redis.Client,
	store *storage.ObjectStore,
	attempts *ratelimit.Tracker,
	cfg *config.AppConfig,
) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	braceletRepo := repository.NewBraceletRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	activationRepo := repository.NewActivationRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditLog := audit.NewWriter(auditRepo, log)
	auth := service.NewAuthService(userRepo, braceletRepo, sessionRepo, activationRepo, attempts, auditLog, cfg, log)
	profile := service.NewProfileService(profileRepo, userRepo, braceletRepo, auditLog, log)
	upload := service.NewUploadService(store, profileRepo, auditLog, cfg, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		profileService: profile,
		uploadService:  upload,
		db:             db,
		cache:          cache,
		sessions:       sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	router.POST("/login", h.Login)
	router.POST("/register", h.RegisterUser)
	router.POST("/validate-serial", h.ValidateSerial)
	router.GET("/nfc-data/:serial", h.NFCData)

	protected := router.Group("")
	protected.Use(middleware.Auth(h.cfg))
	protected.GET("/user-data", h.UserData)
	protected.PUT("/user-data", h.UpdateUserData)
	protected.PUT("/update-user-data", h.UpdateUserDataSection)
	protected.POST("/upload-file", h.UploadFile)
}

// respondError translates the service error taxonomy into the wire format.
// Internal causes stay in the log; the client only sees the public message.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	body := gin.H{"error": "Error interno del servidor"}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		if len(appErr.Details) > 0 {
			body["details"] = appErr.Details
		}
		if !appErr.LockoutUntil.IsZero() {
			body["lockoutUntil"] = appErr.LockoutUntil
		}
	}

	c.JSON(status, body)
}
