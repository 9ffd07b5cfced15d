package brackets

import "github.com/CatCodeArbelin/dacarbelin/models"

// PointsByPlace - фиксированная таблица очков за место в игре на восьмерых.
var PointsByPlace = map[int]int{
	1: 8,
	2: 6,
	3: 5,
	4: 4,
	5: 3,
	6: 2,
	7: 1,
	8: 0,
}

// FinalPointsThreshold - порог очков финала, после которого лидер становится
// кандидатом и должен подтвердить титул победой в следующей игре.
const FinalPointsThreshold = 22

// GroupStageGameLimit - максимум игр в группе и в матч-группе обычного этапа.
const GroupStageGameLimit = 3

// PlayoffPointsForPlace возвращает очки за место с учётом режима этапа.
// В финальном режиме первое место приносит 8, любое другое - 1.
func PlayoffPointsForPlace(place int, mode models.ScoringMode) int {
	if mode == models.ScoringFinal22Top1 {
		if place == 1 {
			return 8
		}
		return 1
	}
	return PointsByPlace[place]
}

// ApplyPlaceToParticipant начисляет участнику playoff очки и агрегаты за
// одно сыгранное место.
func ApplyPlaceToParticipant(p *models.PlayoffParticipant, place int, mode models.ScoringMode) {
	p.Points += PlayoffPointsForPlace(place, mode)
	if place == 1 {
		p.Wins++
	}
	if place <= 4 {
		p.Top4Finishes++
	}
	p.LastPlace = place
}

// ApplyPlaceToMember начисляет участнику группы очки и агрегаты за одно
// сыгранное место. Возвращает начисленные очки для записи в аудит.
func ApplyPlaceToMember(m *models.GroupMember, place int) int {
	points := PointsByPlace[place]
	m.TotalPoints += points
	if place == 1 {
		m.FirstPlaces++
	}
	if place <= 4 {
		m.Top4Finishes++
	}
	if place == 8 {
		m.EighthPlaces++
	}
	m.LastGamePlace = place
	return points
}
