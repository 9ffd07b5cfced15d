package brackets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

type mmrThreshold struct {
	Title string
	MMR   int
}

// mmrThresholds - таблица соответствия MMR текстовому рангу, по убыванию.
var mmrThresholds = []mmrThreshold{
	{"Queen", 3380},
	{"King", 3300},
	{"Rook-9", 3220},
	{"Rook-1", 2580},
	{"Bishop-9", 2500},
	{"Bishop-1", 1860},
	{"Knight-9", 1780},
	{"Knight-1", 1140},
	{"Pawn-9", 1060},
	{"Pawn-1", 0},
}

// MMRToRank конвертирует MMR в текстовый ранг. Для Queen с известным местом
// в топе возвращается формат "Queen#N".
func MMRToRank(mmr int, queenRank int) string {
	for _, threshold := range mmrThresholds {
		if mmr >= threshold.MMR {
			if threshold.Title == "Queen" && queenRank > 0 {
				return fmt.Sprintf("Queen#%d", queenRank)
			}
			return threshold.Title
		}
	}
	return "Pawn-1"
}

// PickBasket назначает стартовую корзину по правилам турнира: текущий ранг
// Queen#1..100 даёт queen_top, иначе корзина выбирается по наивысшему рангу.
func PickBasket(highestRank, currentRank string) models.Basket {
	if place, ok := queenTopPlace(currentRank); ok && place >= 1 && place <= 100 {
		return models.BasketQueenTop
	}
	switch {
	case strings.HasPrefix(highestRank, "Queen"):
		return models.BasketQueen
	case strings.HasPrefix(highestRank, "King"):
		return models.BasketKing
	case strings.HasPrefix(highestRank, "Rook"):
		return models.BasketRook
	case strings.HasPrefix(highestRank, "Bishop"):
		return models.BasketBishop
	default:
		return models.BasketLowRank
	}
}

func queenTopPlace(currentRank string) (int, bool) {
	if !strings.HasPrefix(currentRank, "Queen#") {
		return 0, false
	}
	place, err := strconv.Atoi(strings.TrimPrefix(currentRank, "Queen#"))
	if err != nil {
		return 0, false
	}
	return place, true
}
