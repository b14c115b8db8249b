// services/sql.go
package services

import (
	"errors"
	"os"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/shared"
)

// SqlService owns the gorm connection. Postgres when DATABASE_URL is
// set, sqlite otherwise (local dev and tests).
type SqlService struct {
	context.DefaultService
	db *gorm.DB

	databaseURL string
	sqlitePath  string
}

const SQL_SVC = "sql_svc"

func (ds SqlService) Id() string {
	return SQL_SVC
}

// Db Access to raw db handle
func (ds SqlService) Db() *gorm.DB {
	return ds.db
}

func (ds *SqlService) Configure(ctx *context.Context) error {
	ds.databaseURL = os.Getenv("DATABASE_URL")
	ds.sqlitePath = os.Getenv("DB_DATABASE")
	if ds.sqlitePath == "" {
		ds.sqlitePath = "prep.db"
	}

	return ds.DefaultService.Configure(ctx)
}

// Start opens the connection and migrates any tables that have changed
// since last runtime.
func (ds *SqlService) Start() (err error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}

	if ds.databaseURL != "" {
		ds.db, err = gorm.Open(postgres.Open(ds.databaseURL), cfg)
	} else {
		ds.db, err = gorm.Open(sqlite.Open(ds.sqlitePath), cfg)
	}
	if err != nil {
		return err
	}

	models := []interface{}{
		&model.Question{},
		&model.ReviewRecord{},
		&model.GameSession{},
	}

	if err = ds.db.AutoMigrate(models...); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *SqlService) Shutdown() {
}

// HandleError classifies a gorm error into the shared taxonomy.
func (ds *SqlService) HandleError(err error, entity string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewUnknownEntityError(err, entity+" not found")
	case errors.Is(err, gorm.ErrInvalidTransaction), errors.Is(err, gorm.ErrInvalidDB):
		return shared.NewPersistenceUnavailableError(err, "Store unavailable")
	default:
		log.WithFields(log.Fields{
			"entity": entity,
			"error":  err.Error(),
		}).Error("Database error occurred")
		return shared.NewInternalError(err, "Database error")
	}
}
