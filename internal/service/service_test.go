package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkhub/internal/cache"
	"linkhub/internal/model"
	"linkhub/internal/shortcode"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupService 初始化内存数据库和进程内快取的测试环境
func setupService(t *testing.T) (*gorm.DB, cache.Store, func()) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("无法连接到内存数据库: %v", err)
	}

	// sqlite 内存库只允许单连接，顺便规避并发写锁
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.User{}, &model.ShortLink{}, &model.ClickRecord{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	store := cache.NewMemoryStore()

	cleanup := func() {
		sqlDB.Close()
	}
	return db, store, cleanup
}

func testLogger() *zap.SugaredLogger {
	logger, _ := zap.NewDevelopment()
	return logger.Sugar()
}

func newTestRegistry(db *gorm.DB, store cache.Store) *Registry {
	generator := shortcode.NewGenerator(6, 5)
	return NewRegistry(db, store, generator, testLogger())
}

// failingStore 模拟快取层整体不可用
type failingStore struct{}

var errStoreDown = errors.New("store unreachable")

func (failingStore) Get(context.Context, string) (string, error) { return "", errStoreDown }
func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errStoreDown
}
func (failingStore) Del(context.Context, ...string) error        { return errStoreDown }
func (failingStore) Incr(context.Context, string) (int64, error) { return 0, errStoreDown }
func (failingStore) DecrBy(context.Context, string, int64) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) IncrWindow(context.Context, string, time.Duration) (int64, error) {
	return 0, errStoreDown
}
func (failingStore) SAdd(context.Context, string, ...string) error { return errStoreDown }
func (failingStore) SMembers(context.Context, string) ([]string, error) {
	return nil, errStoreDown
}
func (failingStore) SRem(context.Context, string, ...string) error { return errStoreDown }
