package middleware

import (
	tele "gopkg.in/telebot.v4"
)

// AutoRespond возвращает middleware, которое автоматически отвечает на
// каждый callback, снимая «часики» на кнопке. Явный c.Respond в обработчике
// (например, с текстом «подождите») остаётся возможным и выполняется раньше.
func AutoRespond() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				defer c.Respond()
			}
			return next(c)
		}
	}
}
