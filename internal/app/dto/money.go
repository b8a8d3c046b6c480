package dto

import "travelstay/internal/domain/shared/money"

// MoneyDTO renders an amount as a decimal string.
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Decimal(), Currency: value.Currency}
}
