// seed/main.go
package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/seed/seeders"
	"github.com/mellowise/prep_api/services/repositories"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		bankFile = flag.String("bank", "", "Path to a question bank JSON file (optional, samples are seeded without it)")
		dbPath   = flag.String("db", "", "Sqlite database path (overrides DB_DATABASE env var)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	db, err := openDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&model.Question{}, &model.ReviewRecord{}, &model.GameSession{}); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	seeder := seeders.NewQuestionSeeder(db)

	if *bankFile != "" {
		log.Printf("Importing question bank from %s...", *bankFile)
		if err := seeder.SeedFromFile(*bankFile); err != nil {
			log.Fatalf("Failed to import question bank: %v", err)
		}
	} else {
		log.Println("Seeding sample questions...")
		if err := seeder.SeedSamples(); err != nil {
			log.Fatalf("Failed to seed sample questions: %v", err)
		}
	}

	reportBankShape(db)
	log.Println("Seeding operation completed successfully!")
}

// reportBankShape prints the per-difficulty spread of the bank so a
// thin tier is visible right after an import.
func reportBankShape(db *gorm.DB) {
	questions := repositories.NewQuestionRepository(db)
	for difficulty := 1; difficulty <= 5; difficulty++ {
		count, err := questions.CountByDifficulty(difficulty)
		if err != nil {
			log.Printf("Failed to count difficulty %d questions: %v", difficulty, err)
			return
		}
		log.Printf("Difficulty %d: %d active questions", difficulty, count)
	}
}

func openDatabase(sqlitePath string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && sqlitePath == "" {
		log.Println("Connecting to postgres...")
		return gorm.Open(postgres.Open(dsn), config)
	}

	path := sqlitePath
	if path == "" {
		path = os.Getenv("DB_DATABASE")
		if path == "" {
			path = "prep.db"
		}
	}
	log.Printf("Connecting to sqlite database: %s", path)
	return gorm.Open(sqlite.Open(path), config)
}

func showHelp() {
	log.Println(`
Question Bank Seeding Tool

Usage: go run seed/main.go [flags]

Flags:
  -bank string
        Path to a question bank JSON file. The file holds an array of
        questions with id, section, topic, difficulty_level,
        expected_time_seconds and content fields.
  -db string
        Sqlite database path (overrides DB_DATABASE environment variable)
  -help
        Show this help message

Examples:
  # Seed the built-in sample questions
  go run seed/main.go

  # Import a full question bank export
  go run seed/main.go -bank=./questions.json

  # Seed into a custom sqlite file
  go run seed/main.go -db=./custom.db

Environment Variables:
  DATABASE_URL - Postgres connection string (takes precedence)
  DB_DATABASE  - Sqlite database path (default: prep.db)
`)
}
