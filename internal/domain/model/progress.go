package model

import "time"

// StudentProgress — сохранённый на бэкенде курсор прохождения главы.
type StudentProgress struct {
	LastQuestionIndex int        `json:"last_question_index"`
	LastAttempted     *time.Time `json:"last_attempted,omitempty"`
}

// ChapterProgress — агрегат для превью на экране настройки:
// сколько вопросов в главе и сколько уже пройдено.
type ChapterProgress struct {
	Total     int
	Completed int
}

// Finished сообщает, что глава пройдена целиком: следующая сессия
// начнётся с начала главы, это не ошибка.
func (p ChapterProgress) Finished() bool {
	return p.Total > 0 && p.Completed >= p.Total
}
