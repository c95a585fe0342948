package metadata

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/SlpAus/hive-puzzle-bot-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PrimeDB 负责迁移metadata表结构
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	fmt.Println("Metadata数据库表迁移成功。")
	return nil
}

// --- Generic Accessors ---

// GetValue 从metadata表中读取指定键的值，键不存在时返回空字符串。
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue 以upsert的方式写入一个键值对，可以在事务内调用。
func SetValue(db *gorm.DB, key, value string) error {
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
}

// --- Specific Helpers for Type Conversion ---

// GetLastImportCount 读取并解析最近一次导入的行数。
func GetLastImportCount(db *gorm.DB) (int, error) {
	valueStr, err := GetValue(db, LastImportCountKey)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", LastImportCountKey, err)
	}
	return count, nil
}

// SetLastImportCount 格式化并写入最近一次导入的行数。
func SetLastImportCount(db *gorm.DB, count int) error {
	return SetValue(db, LastImportCountKey, strconv.Itoa(count))
}
