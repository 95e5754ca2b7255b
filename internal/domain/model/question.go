package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// OptionList — варианты ответа на вопрос. Бэкенд присылает поле options
// либо готовым массивом, либо JSON-строкой с массивом внутри; нормализация
// выполняется здесь, дальше по коду — только срез строк.
type OptionList []string

func (o *OptionList) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*o = arr
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("options: ожидался массив строк или JSON-строка: %w", err)
	}

	var inner []string
	if err := json.Unmarshal([]byte(raw), &inner); err != nil {
		return fmt.Errorf("options: не удалось разобрать вложенный JSON: %w", err)
	}
	*o = inner
	return nil
}

// MCQQuestion — вопрос с вариантами ответа. Транзиентная копия серверной
// сущности, после получения не изменяется.
type MCQQuestion struct {
	ID           int64      `json:"id"`
	ClassID      int        `json:"class_id"`
	Subject      string     `json:"subject"`
	Chapter      string     `json:"chapter"`
	QuestionText string     `json:"question_text"`
	ImageURL     string     `json:"image_url,omitempty"`
	Options      OptionList `json:"options"`
	// CorrectAnswer раскрывается сервером только в завершённых сессиях
	// (разбор ответов); в активной выдаче поле отсутствует.
	CorrectAnswer *int      `json:"correct_answer,omitempty"`
	CreatedBy     int64     `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}
