package models

import "time"

// Basket представляет корзину посева, соответствующую значениям в БД.
type Basket string

const (
	BasketInvited        Basket = "invited"
	BasketQueenTop       Basket = "queen_top"
	BasketQueen          Basket = "queen"
	BasketQueenReserve   Basket = "queen_reserve"
	BasketKing           Basket = "king"
	BasketKingReserve    Basket = "king_reserve"
	BasketRook           Basket = "rook"
	BasketRookReserve    Basket = "rook_reserve"
	BasketBishop         Basket = "bishop"
	BasketBishopReserve  Basket = "bishop_reserve"
	BasketLowRank        Basket = "low_rank"
	BasketLowRankReserve Basket = "low_rank_reserve"
)

// PrimaryBaskets - шесть корзин, допущенных к групповому этапу.
var PrimaryBaskets = []Basket{
	BasketQueenTop,
	BasketQueen,
	BasketKing,
	BasketRook,
	BasketBishop,
	BasketLowRank,
}

// SeededBaskets - корзины, из которых в каждую группу тянут до двух игроков.
var SeededBaskets = []Basket{
	BasketQueen,
	BasketKing,
	BasketRook,
	BasketBishop,
}

// DirectInviteStage2 помечает игроков с гарантированным входом во II этап.
const DirectInviteStage2 = "stage_2"

type User struct {
	ID                int       `json:"id"`
	Nickname          string    `json:"nickname"`
	SteamInput        string    `json:"steam_input"`
	SteamID           string    `json:"steam_id"`
	GameNickname      string    `json:"game_nickname"`
	CurrentRank       string    `json:"current_rank"`
	HighestRank       string    `json:"highest_rank"`
	Telegram          *string   `json:"telegram,omitempty"`
	Discord           *string   `json:"discord,omitempty"`
	Basket            Basket    `json:"basket"`
	DirectInviteStage *string   `json:"direct_invite_stage,omitempty"`
	ExtraData         *string   `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
}
