package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/models"
)

type Repositories struct {
	OptionRepository        interfaces.OptionRepository
	FormSettingsRepository  interfaces.FormSettingsRepository
	DataLayerPushRepository interfaces.DataLayerPushRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		OptionRepository:        NewOptionRepository(db),
		FormSettingsRepository:  NewFormSettingsRepository(db),
		DataLayerPushRepository: NewDataLayerPushRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.Option{},
		&models.FormSettings{},
		&models.DataLayerPush{},
	)

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
