package models

// QuizChoiceCount is the number of answer choices every quiz question has
const QuizChoiceCount = 4

// QuizQuestion represents a multiple-choice question inside a quiz item
type QuizQuestion struct {
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuizQuestionRequest represents a request to add or edit a quiz question
type QuizQuestionRequest struct {
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
}
