package models

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDataBase Open the configured database and run the migrations.
// Sqlite is the default; a mysql DSN can be supplied for deployments.
func ConnectDataBase(driver string, dsn string) error {
	var err error

	switch driver {
	case "sqlite", "":
		DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "mysql":
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("cannot connect %s database at %s: %w", driver, dsn, err)
	}
	log.Info(fmt.Sprintf("Connected %s database at %s", driver, dsn))

	return Migrate(DB)
}

// Migrate Run the schema migrations on the given connection
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Scan{}, &Disease{}, &Treatment{})
}
