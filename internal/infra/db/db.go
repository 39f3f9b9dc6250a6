package db

import (
	"fmt"

	"github.com/dynoform/composer/internal/config"
	"github.com/dynoform/composer/internal/modules/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// New opens the Postgres connection, installs the tracing plugin and
// runs schema migration for every persisted model.
func New(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// Unique-index violations must surface as gorm.ErrDuplicatedKey
		// so services can classify them as identity conflicts.
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := gdb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing plugin: %w", err)
	}

	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	log.Info("database ready",
		zap.String("host", cfg.DB.Host),
		zap.String("name", cfg.DB.Name))
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.FormCatalogCategory{},
		&model.FieldDef{},
		&model.FieldDefOption{},
		&model.Component{},
		&model.ComponentPanel{},
		&model.ComponentPanelField{},
		&model.Form{},
		&model.FormPanel{},
		&model.FormPanelField{},
		&model.FormPanelComponent{},
		&model.FormSubmission{},
		&model.FormSubmissionValue{},
		&model.FormSubmissionArchive{},
		&model.FormSubmissionValueArchive{},
	)
}

// Close releases the underlying connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
