package brackets

import (
	"errors"
	"math/rand"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

// AutoDrawGroupCount и AutoDrawGroupSize задают формат стартового этапа 7x8.
const (
	AutoDrawGroupCount = 7
	AutoDrawGroupSize  = 8
)

var (
	ErrAutoDrawNotEnoughPlayers = errors.New("auto draw requires at least 56 eligible players (7x8 format), only manual draw is available")
	ErrAutoDrawGroupAssembly    = errors.New("could not assemble 8 unique players for a group in the 7x8 format, only manual draw is available")
	ErrAutoDrawInvalidResult    = errors.New("auto draw result is invalid: exactly 7 groups with 56 assigned players are required, only manual draw is available")
)

// AssembleAutoDrawGroups раскладывает пул игроков по 7 группам из 8.
// Каждая корзина перемешивается независимо, затем каждая группа получает до
// двух игроков из каждой посевной корзины (queen, king, rook, bishop), а
// оставшиеся места добираются из перемешанного пула всех шести корзин с
// пропуском уже занятых кандидатов. Rand инжектируется ради воспроизводимых
// жеребьёвок в тестах.
func AssembleAutoDrawGroups(byBasket map[models.Basket][]*models.User, rng *rand.Rand) ([][]*models.User, error) {
	pools := make(map[models.Basket][]*models.User, len(byBasket))
	total := 0
	for basket, users := range byBasket {
		pool := make([]*models.User, len(users))
		copy(pool, users)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		pools[basket] = pool
		total += len(pool)
	}
	if total < AutoDrawGroupCount*AutoDrawGroupSize {
		return nil, ErrAutoDrawNotEnoughPlayers
	}

	pop := func(basket models.Basket) *models.User {
		pool := pools[basket]
		if len(pool) == 0 {
			return nil
		}
		user := pool[len(pool)-1]
		pools[basket] = pool[:len(pool)-1]
		return user
	}

	removeFromPool := func(user *models.User) bool {
		pool := pools[user.Basket]
		for i, candidate := range pool {
			if candidate.ID == user.ID {
				pools[user.Basket] = append(pool[:i], pool[i+1:]...)
				return true
			}
		}
		return false
	}

	assigned := make([][]*models.User, 0, AutoDrawGroupCount)
	for groupIdx := 0; groupIdx < AutoDrawGroupCount; groupIdx++ {
		picked := make([]*models.User, 0, AutoDrawGroupSize)
		pickedIDs := make(map[int]struct{}, AutoDrawGroupSize)

		for _, basket := range models.SeededBaskets {
			for take := 0; take < 2; take++ {
				if user := pop(basket); user != nil {
					picked = append(picked, user)
					pickedIDs[user.ID] = struct{}{}
				}
			}
			if len(picked) >= AutoDrawGroupSize {
				break
			}
		}

		fallback := make([]*models.User, 0)
		for _, basket := range models.PrimaryBaskets {
			fallback = append(fallback, pools[basket]...)
		}
		rng.Shuffle(len(fallback), func(i, j int) { fallback[i], fallback[j] = fallback[j], fallback[i] })

		for len(picked) < AutoDrawGroupSize && len(fallback) > 0 {
			candidate := fallback[len(fallback)-1]
			fallback = fallback[:len(fallback)-1]
			if _, taken := pickedIDs[candidate.ID]; taken {
				continue
			}
			if !removeFromPool(candidate) {
				continue
			}
			picked = append(picked, candidate)
			pickedIDs[candidate.ID] = struct{}{}
		}

		if len(picked) != AutoDrawGroupSize || len(pickedIDs) != AutoDrawGroupSize {
			return nil, ErrAutoDrawGroupAssembly
		}
		assigned = append(assigned, picked)
	}

	assignedCount := 0
	for _, group := range assigned {
		assignedCount += len(group)
	}
	if len(assigned) != AutoDrawGroupCount || assignedCount != AutoDrawGroupCount*AutoDrawGroupSize {
		return nil, ErrAutoDrawInvalidResult
	}
	return assigned, nil
}
