package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options 描述数据库连接参数。
type Options struct {
	// Driver 取值 sqlite 或 postgres，为空时使用 sqlite。
	Driver string
	// Path 为 sqlite 数据库文件路径，为空时回退到 lilian.db。
	Path string
	// URL 为 postgres 连接串。
	URL string
	// LogLevel 控制 gorm 自身的 SQL 日志，零值为 Warn。
	LogLevel logger.LogLevel
}

// Init 打开数据库连接并执行自动迁移。
func Init(opts Options) (*gorm.DB, error) {
	dialector, err := openDialector(opts)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// 唯一约束冲突统一翻译为 gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate 为核心模型创建或更新表结构。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&Member{},
		&Donation{},
		&Content{},
	)
}

func openDialector(opts Options) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "postgres":
		dsn := strings.TrimSpace(opts.URL)
		if dsn == "" {
			return nil, errors.New("postgres driver requires a database url")
		}
		return postgres.Open(dsn), nil
	case "", "sqlite":
		path := strings.TrimSpace(opts.Path)
		if path == "" {
			path = "lilian.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return sqlite.Open(path), nil
	default:
		return nil, errors.New("unsupported database driver: " + opts.Driver)
	}
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
