package seeders

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/mellowise/prep_api/model"
	"github.com/mellowise/prep_api/shared"
)

// QuestionSeeder loads the question bank. Existing rows are left alone
// so re-running the tool is safe.
type QuestionSeeder struct {
	db *gorm.DB
}

func NewQuestionSeeder(db *gorm.DB) *QuestionSeeder {
	return &QuestionSeeder{db: db}
}

// SeedFromFile imports a JSON export of the question bank.
func (s *QuestionSeeder) SeedFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return s.seed(questions)
}

// SeedSamples loads a small bank covering every section and difficulty,
// enough to play survival mode locally.
func (s *QuestionSeeder) SeedSamples() error {
	return s.seed(s.sampleQuestions())
}

func (s *QuestionSeeder) seed(questions []model.Question) error {
	created := 0
	for _, question := range questions {
		if err := s.validate(&question); err != nil {
			log.Printf("Skipping question %s: %v", question.ID, err)
			continue
		}

		var existing model.Question
		err := s.db.Where("id = ?", question.ID).First(&existing).Error
		if err == nil {
			log.Printf("Question %s already exists, skipping", question.ID)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		question.CreatedAt = now
		question.UpdatedAt = now
		question.IsActive = true
		if question.ExpectedTime <= 0 {
			question.ExpectedTime = 75
		}

		if err := s.db.Create(&question).Error; err != nil {
			log.Printf("Error creating question %s: %v", question.ID, err)
			return err
		}
		created++
	}

	log.Printf("Question seeding completed: %d created, %d total in input", created, len(questions))
	return nil
}

func (s *QuestionSeeder) validate(question *model.Question) error {
	if question.ID == "" {
		return fmt.Errorf("missing id")
	}
	if question.DifficultyLevel < 1 || question.DifficultyLevel > 5 {
		return fmt.Errorf("difficulty %d out of range", question.DifficultyLevel)
	}
	switch question.Section {
	case shared.SectionLogicalReasoning, shared.SectionReadingComp, shared.SectionAnalyticalReasoning:
		return nil
	default:
		return fmt.Errorf("unknown section %q", question.Section)
	}
}

func (s *QuestionSeeder) sampleQuestions() []model.Question {
	samples := []struct {
		id         string
		section    string
		topic      string
		difficulty int
		expected   int
		stem       string
	}{
		{"q_lr_assumption_01", shared.SectionLogicalReasoning, "assumption", 1, 60, "The argument assumes which one of the following?"},
		{"q_lr_assumption_02", shared.SectionLogicalReasoning, "assumption", 2, 70, "Which one of the following is an assumption required by the argument?"},
		{"q_lr_strengthen_01", shared.SectionLogicalReasoning, "strengthen", 2, 75, "Which one of the following, if true, most strengthens the argument?"},
		{"q_lr_weaken_01", shared.SectionLogicalReasoning, "weaken", 3, 80, "Which one of the following, if true, most weakens the argument?"},
		{"q_lr_flaw_01", shared.SectionLogicalReasoning, "flaw", 3, 85, "The reasoning in the argument is most vulnerable to criticism on which grounds?"},
		{"q_lr_parallel_01", shared.SectionLogicalReasoning, "parallel_reasoning", 4, 100, "Which one of the following arguments is most similar in reasoning?"},
		{"q_lr_parallel_02", shared.SectionLogicalReasoning, "parallel_reasoning", 5, 110, "The flawed pattern of reasoning is most closely paralleled by which argument?"},
		{"q_rc_main_point_01", shared.SectionReadingComp, "main_point", 1, 65, "Which one of the following most accurately states the main point of the passage?"},
		{"q_rc_inference_01", shared.SectionReadingComp, "inference", 3, 90, "The passage most strongly supports which one of the following inferences?"},
		{"q_rc_author_attitude_01", shared.SectionReadingComp, "author_attitude", 4, 95, "The author's attitude toward the proposal can best be described as?"},
		{"q_ar_ordering_01", shared.SectionAnalyticalReasoning, "ordering", 2, 80, "If the third condition holds, which one of the following must be true?"},
		{"q_ar_grouping_01", shared.SectionAnalyticalReasoning, "grouping", 4, 105, "Which one of the following is an acceptable assignment of members to teams?"},
		{"q_ar_hybrid_01", shared.SectionAnalyticalReasoning, "hybrid", 5, 120, "If exactly two of the constraints are suspended, what is the maximum number of valid orderings?"},
	}

	questions := make([]model.Question, len(samples))
	for i, sample := range samples {
		content, _ := json.Marshal(map[string]interface{}{
			"stem":    sample.stem,
			"choices": []string{"A", "B", "C", "D", "E"},
			"answer":  "A",
		})
		questions[i] = model.Question{
			ID:              sample.id,
			Section:         sample.section,
			Topic:           sample.topic,
			DifficultyLevel: sample.difficulty,
			ExpectedTime:    sample.expected,
			Content:         content,
		}
	}
	return questions
}
