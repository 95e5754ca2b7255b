package backend

import "fmt"

// FetchError — сбой read-операции (главы, вопросы, прогресс, списки
// сессий): сетевая ошибка либо не-2xx ответ. StatusCode == 0 означает,
// что до HTTP-ответа дело не дошло.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend ответил статусом %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ActionError — сбой вызова, меняющего состояние сессии (start, submit,
// skip, end, next-batch). Состояние клиента при такой ошибке не меняется,
// пользователь повторяет действие вручную.
type ActionError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ActionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend ответил статусом %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
