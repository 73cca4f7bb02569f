package mainpage

import "time"

// Greeting returns the salutation for the time of day of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 11:
		return "Доброе утро"
	case h >= 11 && h < 18:
		return "Добрый день"
	case h >= 18 && h < 23:
		return "Добрый вечер"
	default:
		return "Доброй ночи"
	}
}
