package metadata

// --- SQLite Keys ---
// 这些键用于 metadata 表的 key 列。
const (
	// LastImportCountKey 记录最近一次谜题导入写入的行数。
	LastImportCountKey = "last_import_count"

	// LastImportAtKey 记录最近一次谜题导入的时间（RFC3339）。
	LastImportAtKey = "last_import_at"

	// LastImportFileKey 记录最近一次导入所用的文件名。
	LastImportFileKey = "last_import_file"
)
