package services

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/shared"
)

// PostgresService owns the connection to the external relational store that
// keeps users, credentials and sessions. No caching sits in front of it:
// every session validation is a direct read (latency trade-off, see DESIGN).
type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	dsn string
}

const POSTGRES_SVC = "postgres_svc"

// Id returns Service ID
func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

// Db Access to raw PostgresService db
func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

// Configure the service
func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.dsn = os.Getenv("DATABASE_URL")
	if ds.dsn == "" {
		return shared.NewConfigurationError(errors.New("DATABASE_URL is not set"), "missing database configuration")
	}

	return ds.DefaultService.Configure(ctx)
}

// Start the service and open connection to the database
// Migrate any tables that have changed since last runtime
func (ds *PostgresService) Start() (err error) {
	ds.db, err = gorm.Open(postgres.Open(ds.dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return err
	}

	models := []interface{}{
		&model.User{},
		&model.Session{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "duplicate key value") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			statusCode = http.StatusConflict
			errorType = "UNIQUE_CONSTRAINT"
		} else {
			statusCode = http.StatusInternalServerError
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return shared.NewAppError(statusCode, errorType, err)
}

// IsUniqueViolation reports whether err is the store's uniqueness constraint
// firing, which the auth layer surfaces as a ConflictError on registration.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
