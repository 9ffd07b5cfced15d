package utils

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// GenerateLobbyPassword возвращает четырёхзначный пароль лобби.
func GenerateLobbyPassword(rng *rand.Rand) string {
	return fmt.Sprintf("%04d", rng.Intn(10000))
}

// NormalizeLobbyPassword приводит введённый пароль к четырём символам,
// дополняя нулями слева.
func NormalizeLobbyPassword(password string) string {
	if password == "" {
		return "0000"
	}
	if len(password) > 4 {
		password = password[:4]
	}
	for len(password) < 4 {
		password = "0" + password
	}
	return password
}

// ParseIDList разбирает строку вида "12, 7,5" в срез id. Пустые части
// пропускаются; нечисловая часть - ошибка.
func ParseIDList(raw string) ([]int, error) {
	ids := make([]int, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q in list", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GroupNameForIndex возвращает имя группы по индексу: Group A, Group B...
func GroupNameForIndex(idx int) string {
	return fmt.Sprintf("Group %c", rune('A'+idx))
}
