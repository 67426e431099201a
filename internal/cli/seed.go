package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"halloween-trivia/internal/domain"
)

type bankFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// newSeedCmd imports a YAML question bank into the configured store.
func newSeedCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Import a YAML question bank",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := cfg.Questions.Bank
			if len(args) == 1 {
				path = args[0]
			}
			bank, err := readBank(path)
			if err != nil {
				return err
			}

			b, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()
			if b.saver == nil {
				return fmt.Errorf("store %q keeps no question bank", cfg.Store.Driver)
			}
			n, err := b.saver.SaveQuestions(cmd.Context(), bank)
			if err != nil {
				return err
			}
			logger.Info("questions imported", "count", n, "file", path)
			return nil
		},
	}
}

// readBank parses and checks a YAML question bank.
func readBank(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file bankFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := checkBank(file.Questions); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file.Questions, nil
}

func checkBank(questions []domain.Question) error {
	if len(questions) == 0 {
		return errors.New("question bank is empty")
	}
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		switch {
		case q.ID == "":
			return fmt.Errorf("question %d: missing id", i)
		case seen[q.ID]:
			return fmt.Errorf("question %s: duplicate id", q.ID)
		case !q.Category.Valid() || q.Category == domain.CategoryMixed:
			return fmt.Errorf("question %s: invalid category %q", q.ID, q.Category)
		case q.Difficulty != domain.DifficultyEasy && q.Difficulty != domain.DifficultyMedium && q.Difficulty != domain.DifficultyHard:
			return fmt.Errorf("question %s: invalid difficulty %q", q.ID, q.Difficulty)
		case q.Prompt == "" || q.CorrectAnswer == "":
			return fmt.Errorf("question %s: missing question or answer", q.ID)
		case q.Points <= 0:
			return fmt.Errorf("question %s: points must be positive", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}
