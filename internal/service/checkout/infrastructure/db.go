package infrastructure

import (
	gosqlmysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenMySQL 打开数据库连接并迁移结账相关的表。
// DSN 在连接之前先解析一遍，配置错误在启动时立刻暴露。
func OpenMySQL(dsn string) (*gorm.DB, error) {
	if _, err := gosqlmysql.ParseDSN(dsn); err != nil {
		return nil, errors.Wrap(err, "invalid mysql dsn")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mysql")
	}
	if err := db.AutoMigrate(&OrderModel{}, &TransactionModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate checkout tables")
	}
	return db, nil
}
