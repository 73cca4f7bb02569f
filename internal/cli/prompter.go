package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/the-cashback-must-flow/internal/common"
	"github.com/Veraticus/the-cashback-must-flow/internal/report"
)

// Interactive prompts.
const (
	PromptMainPageDate = "Введите дату для вывода данных по банковским операциям " +
		"(с 01.mm.yyyy по dd.mm.yyyy), где dd.mm.yyyy это указанная вами дата: "
	PromptPeriod = "Введите через `-` год и месяц за который будет проводится " +
		"анализ категорий повышенного кэшбэка (например: 2021-08): "
	PromptCategory     = "Введите название категории: "
	PromptCategoryDate = "Введите дату для анализа в формате dd.mm.yyyy: "
)

// DefaultAttempts is how many times a question is asked before giving up.
const DefaultAttempts = 3

// Prompter asks the questions of the interactive session.
type Prompter struct {
	reader   *NonBlockingReader
	writer   io.Writer
	attempts int
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader:   NewNonBlockingReader(reader),
		writer:   writer,
		attempts: DefaultAttempts,
	}
}

// AskMainPageDate asks for the last day of the main page window.
func (p *Prompter) AskMainPageDate(ctx context.Context) (string, error) {
	return p.ask(ctx, PromptMainPageDate, func(answer string) error {
		_, err := report.ParseReferenceDate(answer)
		return err
	})
}

// AskPeriod asks for a YYYY-MM period and returns its year and month.
func (p *Prompter) AskPeriod(ctx context.Context) (year, month string, err error) {
	answer, err := p.ask(ctx, PromptPeriod, func(answer string) error {
		_, _, err := SplitPeriod(answer)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return SplitPeriod(answer)
}

// AskCategory asks for a category and the last day of the spending window.
// An empty date means today.
func (p *Prompter) AskCategory(ctx context.Context) (category, date string, err error) {
	category, err = p.ask(ctx, PromptCategory, func(answer string) error {
		if answer == "" {
			return common.InvalidArgument("category", answer, nil)
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}

	date, err = p.ask(ctx, PromptCategoryDate, func(answer string) error {
		if answer == "" {
			return nil
		}
		_, err := report.ParseReferenceDate(answer)
		return err
	})
	if err != nil {
		return "", "", err
	}
	return category, date, nil
}

// SplitPeriod splits "2021-08" into its year and month and validates both.
func SplitPeriod(period string) (year, month string, err error) {
	parts := strings.Split(strings.TrimSpace(period), "-")
	if len(parts) != 2 {
		return "", "", common.InvalidArgument("period", period, nil)
	}
	if _, _, err := report.ParsePeriod(parts[0], parts[1]); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// ask writes prompt and reads one answer, asking again while validate fails.
func (p *Prompter) ask(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	var lastErr error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.reader.ReadLine(ctx)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return "", err
		}
		if eof && answer == "" {
			return "", fmt.Errorf("no answer: %w", io.EOF)
		}

		if lastErr = validate(answer); lastErr == nil {
			return answer, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatError(lastErr.Error())); err != nil {
			return "", fmt.Errorf("failed to write error: %w", err)
		}
		if eof {
			break
		}
	}
	return "", lastErr
}
