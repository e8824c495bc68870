package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"akademiku_backend/internals/configs"
	kmodel "akademiku_backend/internals/features/learning/knowledge/model"
	qmodel "akademiku_backend/internals/features/learning/questions/model"
	qzmodel "akademiku_backend/internals/features/learning/quizzes/model"
	smodel "akademiku_backend/internals/features/learning/submissions/model"
	tmodel "akademiku_backend/internals/features/learning/tasks/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Connecting to PostgreSQL...")

	// Full URL DSN with a statement timeout. With PgBouncer point host/port
	// at the pooler and keep PreferSimpleProtocol=true.
	sslmode := getenv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=akademiku&options=-c statement_timeout=3000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // transaction pooling friendly
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(),
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		log.Fatalf("❌ DB connection failed: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := ping(); err != nil {
			log.Printf("warm-up ping err: %v", err)
		}
	}()
}

// Migrate creates every table plus the partial unique indexes that carry the
// versioning invariants. The index DDL is valid on both postgres and sqlite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&kmodel.KnowledgeModel{},
		&kmodel.TagModel{},
		&kmodel.KnowledgeTagModel{},
		&qmodel.QuestionModel{},
		&qzmodel.QuizModel{},
		&qzmodel.QuizQuestionModel{},
		&tmodel.TaskModel{},
		&tmodel.TaskKnowledgeModel{},
		&tmodel.TaskQuizModel{},
		&tmodel.TaskAssignmentModel{},
		&tmodel.TaskKnowledgeProgressModel{},
		&smodel.SubmissionModel{},
		&smodel.AnswerModel{},
	); err != nil {
		return err
	}

	for _, table := range []string{"knowledge", "question", "quiz"} {
		plural := map[string]string{"knowledge": "knowledge", "question": "questions", "quiz": "quizzes"}[table]
		stmts := []string{
			// exactly one current version per resource
			fmt.Sprintf(
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_current ON %s (%s_resource_id) WHERE %s_is_current",
				plural, plural, table, table),
			// at most one open draft per resource
			fmt.Sprintf(
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_open_draft ON %s (%s_resource_id) WHERE %s_status = 'draft'",
				plural, plural, table, table),
			// version numbers never repeat within a resource
			fmt.Sprintf(
				"CREATE UNIQUE INDEX IF NOT EXISTS uq_%s_version ON %s (%s_resource_id, %s_version_number)",
				plural, plural, table, table),
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
