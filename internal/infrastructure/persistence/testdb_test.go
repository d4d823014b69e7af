package persistence

import (
	"testing"
	"time"

	"github.com/schoolfee/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database alive across queries.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.FeeCategoryModel{},
		&models.ClassFeeModel{},
		&models.TransportRouteModel{},
		&models.TransportFeeModel{},
		&models.OptionalFeeModel{},
		&models.CustomFeeModel{},
		&models.FeeBillModel{},
		&models.FeePaymentModel{},
		&models.SalaryStructureModel{},
		&models.SalaryRecordModel{},
		&models.StudentModel{},
		&models.TeacherModel{},
		&models.TeacherAttendanceModel{},
	))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
