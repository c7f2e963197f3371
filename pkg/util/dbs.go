package util

import (
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// OpenDatabase 按驱动打开数据库连接，driver 为空时使用内存 sqlite
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "pg", "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}
