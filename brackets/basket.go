package brackets

import "github.com/CatCodeArbelin/dacarbelin/models"

// DefaultBasketLimit - вместимость корзины до вытеснения в reserve.
const DefaultBasketLimit = 8

// limitedBasketReserves связывает переполняемую корзину с её резервом.
var limitedBasketReserves = map[models.Basket]models.Basket{
	models.BasketQueen:   models.BasketQueenReserve,
	models.BasketKing:    models.BasketKingReserve,
	models.BasketRook:    models.BasketRookReserve,
	models.BasketBishop:  models.BasketBishopReserve,
	models.BasketLowRank: models.BasketLowRankReserve,
}

// AllocateBasket возвращает итоговую корзину с учётом лимита и резервов.
// Корзина без настроенного резерва возвращается как есть; заполненная до
// limit корзина вытесняет игрока в парный резерв. Ошибок не бывает.
func AllocateBasket(target models.Basket, basketCounts map[models.Basket]int, limit int) models.Basket {
	reserve, limited := limitedBasketReserves[target]
	if !limited {
		return target
	}
	if basketCounts[target] >= limit {
		return reserve
	}
	return target
}
