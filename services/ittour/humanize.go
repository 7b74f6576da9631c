package ittour

import "fmt"

const genericTip = "Спробуйте змінити параметри пошуку або повторіть запит пізніше."

var errorTips = map[int]string{
	100: "Немає доступу до пошуку турів. Перевіряємо токен доступу.",
	101: "Запит відхилено: перевірте країну та місто вильоту.",
	102: "Перевищено ліміт запитів. Зачекайте хвилину і спробуйте знову.",
	110: "Сервіс пошуку повернув незрозумілу відповідь. Спробуйте пізніше.",
	200: "Некоректні дати. Вкажіть дату вильоту у форматі 10.12 або 25 квітня.",
	201: "Некоректна кількість ночей.",
	202: "Некоректна кількість туристів: дорослих має бути від 1 до 4.",
	203: "Для дітей потрібно вказати вік, наприклад: 2 дітей 7 і 4 років.",
	300: "За цим напрямком з цього міста турів немає. Спробуйте інше місто вильоту.",
}

// Tip returns the user-facing advice for an upstream error code.
func Tip(code int) string {
	if tip, ok := errorTips[code]; ok {
		return tip
	}
	return genericTip
}

// Humanize renders an upstream error for the user. Unknown codes still show
// the raw code.
func Humanize(err *UpstreamError) string {
	return fmt.Sprintf("Сталася помилка пошуку турів (%d). %s", err.Code, Tip(err.Code))
}
