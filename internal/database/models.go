package database

import "time"

// Entry 表示键值存储中的一条记录，Value 为不透明字符串（JSON 文档或模板 ID）。
type Entry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:128"`
	Value     string    `gorm:"column:entry_value;type:text"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName 固定表名。
func (Entry) TableName() string {
	return "kv_entries"
}
