package model

import "time"

// MCQSessionQuestion связывает вопрос с ответом ученика внутри одной сессии.
// SelectedAnswer == nil означает пропуск; IsCorrect == nil — вопрос ещё
// не отвечен.
type MCQSessionQuestion struct {
	Question       MCQQuestion `json:"question"`
	SelectedAnswer *int        `json:"selected_answer"`
	IsCorrect      *bool       `json:"is_correct"`
	AnsweredAt     *time.Time  `json:"answered_at"`
}

// MCQSession — сессия практики. Авторитетное состояние живёт на бэкенде,
// клиент держит копию, обновляемую только из ответов сервера.
type MCQSession struct {
	ID                int64                `json:"id"`
	StudentID         int64                `json:"student_id"`
	ClassID           int                  `json:"class_id"`
	Subject           string               `json:"subject"`
	Chapter           string               `json:"chapter"`
	StartTime         time.Time            `json:"start_time"`
	EndTime           *time.Time           `json:"end_time"`
	Duration          int                  `json:"duration"` // секунды, считает сервер
	CorrectCount      int                  `json:"correct_count"`
	IncorrectCount    int                  `json:"incorrect_count"`
	SkippedCount      int                  `json:"skipped_count"`
	LastQuestionIndex int                  `json:"last_question_index"`
	Questions         []MCQSessionQuestion `json:"questions"`

	// Батчевые метаданные, используются только для UX «порциями до 10».
	CurrentBatchSize   int `json:"currentBatchSize"`
	RemainingQuestions int `json:"remainingQuestions"`
}

// Ended сообщает, финализирована ли сессия. После установки end_time
// сессия терминальна и доступна только для чтения.
func (s *MCQSession) Ended() bool {
	return s != nil && s.EndTime != nil
}

// Answered возвращает число отвеченных либо пропущенных вопросов.
func (s *MCQSession) Answered() int {
	return s.CorrectCount + s.IncorrectCount + s.SkippedCount
}

// Accuracy — точность в долях: correct / (correct + incorrect).
// Пропуски в знаменатель не входят; при нуле отвеченных возвращает 0.
func (s *MCQSession) Accuracy() float64 {
	answered := s.CorrectCount + s.IncorrectCount
	if answered == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(answered)
}
