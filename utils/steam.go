package utils

import (
	"regexp"
	"strconv"
	"strings"
)

const steamID64Base = 76561197960265728

var (
	steam64Re  = regexp.MustCompile(`^7656119\d{10}$`)
	steamID2Re = regexp.MustCompile(`(?i)^STEAM_0:([01]):(\d+)$`)
)

// NormalizeSteamID приводит пользовательский ввод к Steam64: прямой
// формат, ссылка на профиль, короткий account id и SteamID2. Vanity-имена
// без ключа Steam API не резолвятся. Пустая строка - ввод не распознан.
func NormalizeSteamID(raw string) string {
	value := strings.TrimSpace(raw)
	if steam64Re.MatchString(value) {
		return value
	}

	if strings.Contains(value, "steamcommunity.com/profiles/") {
		candidate := lastPathSegment(value)
		if steam64Re.MatchString(candidate) {
			return candidate
		}
	}

	if accountID, err := strconv.ParseInt(value, 10, 64); err == nil && len(value) < 17 {
		return strconv.FormatInt(steamID64Base+accountID, 10)
	}

	if parts := steamID2Re.FindStringSubmatch(value); parts != nil {
		x, _ := strconv.ParseInt(parts[1], 10, 64)
		y, _ := strconv.ParseInt(parts[2], 10, 64)
		return strconv.FormatInt(steamID64Base+y*2+x, 10)
	}

	return ""
}

func lastPathSegment(value string) string {
	trimmed := strings.TrimRight(value, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
