package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"tourbot/config"
	"tourbot/models"
	"tourbot/services/dialogue"
)

// Callback payloads carried by buttons.
const (
	CallbackSearchStart = "search_start"
	CallbackSearchReset = "search_reset"
	CallbackNextPage    = "next_page"
	CallbackFromCity    = "from_city:"
)

const (
	msgGreeting = "Вітаю, я ваш віртуальний турагент!\n" +
		"Натисніть кнопку нижче або надішліть запит у довільній формі.\n\n" +
		"Приклад: Тур до Єгипту на 2 дорослих, з 10.12.2026, бюджет 1500 дол на 7 днів"
	msgAskCountry     = "Куди летимо? 🌍 Напишіть країну (наприклад: Єгипет / Туреччина)."
	msgAskCity        = "Звідки виліт? ✈️ Оберіть місто:"
	msgAskAdults      = "Скільки дорослих? 👤 (наприклад: 2)"
	msgAskDate        = "На яку дату виїзду? 🗓️ (10.12 / 25,4 / 25 квітня / 10.12.2026)"
	msgAskBudget      = "Який бюджет? 💰 (1500$ або 70000 грн)"
	msgBadDateFrom    = "Не можу розпізнати дату 🗓️ Напишіть: 10.12 / 25,4 / 25 квітня / 10.12.2026"
	msgBadDateTill    = "Не можу розпізнати дату 'до' 🗓️ Напишіть: 10.12 / 25,4 / 25 квітня / 10.12.2026"
	msgUnavailable    = "Сервіс тимчасово недоступний. Спробуйте пізніше."
	msgNothingFound   = "За вашими умовами нічого не знайшлося. Спробуємо змінити бюджет/дати/ночі?"
	msgStartSearch    = "Почнемо 🙂 Звідки виліт? ✈️ Оберіть місто:"
	msgReset          = "Ок 🙂 Почнемо новий пошук. Куди летимо? 🌍"
	msgCitySaved      = "Дякую! ✅ Зберіг місто вильоту. Перевіряю ваш запит…"
	msgBadCity        = "Некоректні дані міста. Оберіть місто зі списку."
	msgUnknownCommand = "Не зрозумів команду. Спробуйте ще раз."
	msgMorePages      = "Показано %d результатів (стор. %d). Є ще результати. Надіслати наступну сторінку?"
	msgLastPage       = "Це всі результати за вашим запитом. Хочете змінити параметри?"
)

var (
	actionReset    = models.ChatAction{Label: "🔄 Новий пошук", Data: CallbackSearchReset}
	actionStart    = models.ChatAction{Label: "Здійснити пошук туру", Data: CallbackSearchStart}
	actionNextPage = models.ChatAction{Label: "➡️ Наступна сторінка", Data: CallbackNextPage}
)

var slotPrompts = map[string]string{
	dialogue.SlotCountry:  msgAskCountry,
	dialogue.SlotFromCity: msgAskCity,
	dialogue.SlotAdults:   msgAskAdults,
	dialogue.SlotDateFrom: msgAskDate,
	dialogue.SlotBudget:   msgAskBudget,
}

// summary renders the parameters a search was run with.
func summary(s models.Slots, q models.SearchQuery, d config.Defaults) string {
	people := "👥 " + strconv.Itoa(q.AdultAmount) + " доросл."
	if q.ChildAmount > 0 {
		people += ", " + strconv.Itoa(q.ChildAmount) + " діт."
	}

	budget := "💰 —"
	if s.BudgetFrom != nil || s.BudgetTo != nil {
		from, to := "0", "—"
		if s.BudgetFrom != nil {
			from = strconv.Itoa(*s.BudgetFrom)
		}
		if s.BudgetTo != nil {
			to = strconv.Itoa(*s.BudgetTo)
		}
		budget = "💰 " + from + " – " + to
		if sym := models.CurrencySymbol(q.Currency); sym != "" {
			budget += " " + sym
		}
	}

	lines := []string{
		"🔎 Параметри пошуку",
		"🛫 Виліт: " + orDash(s.FromCityName),
		"🌍 Країна: " + orDash(s.CountryName),
		people,
		"📅 " + q.DateFrom + " – " + q.DateTill,
		fmt.Sprintf("🛌 %d–%d ноч.", d.NightFrom, d.NightTill),
		"⭐ " + d.HotelRating,
		budget,
	}
	return strings.Join(lines, "\n")
}

func orDash(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "—"
	}
	return *s
}
