package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"questionnaire_backend/internal/model"
	"questionnaire_backend/pkg/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB 每个测试一个独立的 sqlite 文件库，开启外键并转换唯一约束错误
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL",
		filepath.Join(t.TempDir(), "test.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// sqlite 只允许一个写者
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// CountRows 统计某个模型的行数
func CountRows(t testing.TB, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(value).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", value, err)
	}
	return n
}

type QuestionSeed struct {
	Type     model.QuestionType
	Options  string
	Required bool
}

// SeedQuestionnaire 写入一份问卷及其题目，题目按顺序分配 order_index
func SeedQuestionnaire(t testing.TB, db *gorm.DB, token string, public, active bool, questions ...QuestionSeed) (*model.Questionnaire, []model.Question) {
	t.Helper()

	q := &model.Questionnaire{
		Title:       "Seeded questionnaire",
		Description: "fixture",
		IsPublic:    public,
		IsActive:    active,
		CreatedBy:   1,
	}
	if token != "" {
		q.ShareToken = &token
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("seed questionnaire: %v", err)
	}
	// gorm 对 default:true 的布尔字段不会写入 false
	if !active {
		if err := db.Model(q).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate questionnaire: %v", err)
		}
	}

	out := make([]model.Question, 0, len(questions))
	for i, seed := range questions {
		question := model.Question{
			QuestionnaireID: q.ID,
			QuestionText:    fmt.Sprintf("Question %d", i+1),
			QuestionType:    seed.Type,
			QuestionOptions: seed.Options,
			IsRequired:      seed.Required,
			OrderIndex:      i,
		}
		if err := db.Create(&question).Error; err != nil {
			t.Fatalf("seed question %d: %v", i, err)
		}
		out = append(out, question)
	}
	return q, out
}
