package staging

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hunterianlab/modules-platform/internal/models"
)

// QuizBuilder accumulates quiz questions before they are attached to a quiz item.
// It is not safe for concurrent use; Session serializes access to it.
type QuizBuilder struct {
	questions []models.QuizQuestion
	// editingIndex is -1 when no question is being edited
	editingIndex int
}

// NewQuizBuilder creates an empty quiz builder
func NewQuizBuilder() *QuizBuilder {
	return &QuizBuilder{editingIndex: -1}
}

// buildQuestion validates the input and returns a normalized question
func buildQuestion(question string, choices []string, correctIndex int) (models.QuizQuestion, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.QuizQuestion{}, fmt.Errorf("%w: question is required", models.ErrValidation)
	}
	if len(choices) != models.QuizChoiceCount {
		return models.QuizQuestion{}, fmt.Errorf("%w: exactly %d choices are required, got %d", models.ErrValidation, models.QuizChoiceCount, len(choices))
	}

	normalized := make([]string, len(choices))
	for i, choice := range choices {
		choice = strings.TrimSpace(choice)
		if choice == "" {
			return models.QuizQuestion{}, fmt.Errorf("%w: choice %d is empty", models.ErrValidation, i+1)
		}
		normalized[i] = choice
	}

	if correctIndex < 0 || correctIndex >= len(normalized) {
		return models.QuizQuestion{}, fmt.Errorf("%w: correct index %d is out of range", models.ErrValidation, correctIndex)
	}

	return models.QuizQuestion{
		Question:     question,
		Choices:      normalized,
		CorrectIndex: correctIndex,
	}, nil
}

func (b *QuizBuilder) checkIndex(index int) error {
	if index < 0 || index >= len(b.questions) {
		return fmt.Errorf("%w: question %d (have %d)", models.ErrIndexOutOfRange, index, len(b.questions))
	}
	return nil
}

// AddQuestion appends a new question to the end of the list
func (b *QuizBuilder) AddQuestion(question string, choices []string, correctIndex int) error {
	q, err := buildQuestion(question, choices, correctIndex)
	if err != nil {
		return err
	}
	b.questions = append(b.questions, q)
	return nil
}

// EditQuestion replaces the question at index in place.
// Saving the question that is currently being edited leaves edit mode.
func (b *QuizBuilder) EditQuestion(index int, question string, choices []string, correctIndex int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	q, err := buildQuestion(question, choices, correctIndex)
	if err != nil {
		return err
	}

	b.questions[index] = q
	if b.editingIndex == index {
		b.editingIndex = -1
	}
	return nil
}

// DeleteQuestion removes the question at index, shifting the following ones down
func (b *QuizBuilder) DeleteQuestion(index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}

	b.questions = slices.Delete(b.questions, index, index+1)

	switch {
	case b.editingIndex == index:
		b.editingIndex = -1
	case b.editingIndex > index:
		b.editingIndex--
	}
	return nil
}

// EnterEditMode marks the question at index as the single one being edited
func (b *QuizBuilder) EnterEditMode(index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}
	b.editingIndex = index
	return nil
}

// ExitEditMode clears the editing pointer
func (b *QuizBuilder) ExitEditMode() {
	b.editingIndex = -1
}

// EditingIndex returns the index of the question being edited, if any
func (b *QuizBuilder) EditingIndex() (int, bool) {
	return b.editingIndex, b.editingIndex >= 0
}

// Len returns the number of accumulated questions
func (b *QuizBuilder) Len() int {
	return len(b.questions)
}

// Questions returns a deep copy of the accumulated questions
func (b *QuizBuilder) Questions() []models.QuizQuestion {
	return cloneQuestions(b.questions)
}

// Take returns the accumulated questions and resets the builder
func (b *QuizBuilder) Take() []models.QuizQuestion {
	questions := b.questions
	b.Reset()
	return questions
}

// Reset discards all questions and leaves edit mode
func (b *QuizBuilder) Reset() {
	b.questions = nil
	b.editingIndex = -1
}

func cloneQuestions(questions []models.QuizQuestion) []models.QuizQuestion {
	out := make([]models.QuizQuestion, len(questions))
	for i, q := range questions {
		out[i] = q
		out[i].Choices = slices.Clone(q.Choices)
	}
	return out
}
