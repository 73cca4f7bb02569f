package report

import (
	"context"
	"time"

	"github.com/Veraticus/the-cashback-must-flow/internal/model"
)

func day(value string) time.Time {
	return model.ParsePaymentDate(value)
}

func fixedClock(value string) func() time.Time {
	t := day(value)
	return func() time.Time { return t.Add(15 * time.Hour) }
}

// operationsFixture has two cards and one month of January 2023 expenses.
func operationsFixture() model.Table {
	return model.Table{
		{PaymentDate: day("01.01.2023"), Amount: -1000, Status: "OK", Category: "Транспорт", CardNumber: "*1234", Description: "Поездка"},
		{PaymentDate: day("01.01.2023"), Amount: -500, Status: "OK", Category: "Рестораны", CardNumber: "*1234", Description: "Ресторан", Cashback: model.Float(50)},
		{PaymentDate: day("01.01.2023"), Amount: -200, Status: "OK", Category: "Супермаркеты", CardNumber: "*5678", Description: "Магазин"},
		{PaymentDate: day("02.01.2023"), Amount: 1000, Status: "OK", Category: "Пополнения", CardNumber: "*1234", Description: "Зарплата"},
		{PaymentDate: day("03.01.2023"), Amount: -300, Status: "FAILED", Category: "Рестораны", CardNumber: "*1234", Description: "Отказ"},
		{PaymentDate: day("15.12.2022"), Amount: -5000, Status: "OK", Category: "Переводы", Description: "Перевод без карты"},
	}
}

// restaurantsFixture has two restaurant expenses inside 01.09.2023 - 01.12.2023.
func restaurantsFixture() model.Table {
	return model.Table{
		{PaymentDate: day("15.11.2023"), Amount: -800, Status: "OK", Category: "Рестораны", CardNumber: "*1234", Description: "Ужин"},
		{PaymentDate: day("31.08.2023"), Amount: -100, Status: "OK", Category: "Рестораны", CardNumber: "*1234", Description: "До окна"},
		{PaymentDate: day("01.09.2023"), Amount: -400, Status: "OK", Category: "Рестораны", CardNumber: "*5678", Description: "Обед", Cashback: model.Float(4)},
		{PaymentDate: day("02.12.2023"), Amount: -100, Status: "OK", Category: "Рестораны", CardNumber: "*1234", Description: "После окна"},
		{PaymentDate: day("10.10.2023"), Amount: -250, Status: "FAILED", Category: "Рестораны", CardNumber: "*1234", Description: "Отклонено"},
		{PaymentDate: day("10.10.2023"), Amount: 150, Status: "OK", Category: "Рестораны", CardNumber: "*1234", Description: "Возврат"},
		{PaymentDate: day("10.10.2023"), Amount: -90, Status: "OK", Category: "Транспорт", CardNumber: "*1234", Description: "Метро"},
		{Amount: -100, Status: "OK", Category: "Рестораны", CardNumber: "*1234", Description: "Без даты"},
	}
}

type staticSource struct {
	err   error
	table model.Table
	calls int
}

func (s *staticSource) Load(_ context.Context) (model.Table, error) {
	s.calls++
	return s.table, s.err
}
