package brackets

import (
	"sort"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

type memberMetrics struct {
	TotalPoints   int
	FirstPlaces   int
	Top4Finishes  int
	EighthPlaces  int
	LastGamePlace int
}

func metricsOf(m *models.GroupMember) memberMetrics {
	return memberMetrics{
		TotalPoints:   m.TotalPoints,
		FirstPlaces:   m.FirstPlaces,
		Top4Finishes:  m.Top4Finishes,
		EighthPlaces:  m.EighthPlaces,
		LastGamePlace: m.LastGamePlace,
	}
}

// SortMembersForTable возвращает участников группы в порядке итоговой
// таблицы: очки, первые места, топ-4, меньше восьмых мест, меньше место в
// последней игре, затем ручной tie-break (больший приоритет выше) и, как
// гарантия строгого порядка, возрастающий user_id.
func SortMembersForTable(members []*models.GroupMember, manualPriorities map[int]int) []*models.GroupMember {
	sorted := make([]*models.GroupMember, len(members))
	copy(sorted, members)

	priority := func(userID int) int {
		if p, ok := manualPriorities[userID]; ok {
			return p
		}
		return -1
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.FirstPlaces != b.FirstPlaces {
			return a.FirstPlaces > b.FirstPlaces
		}
		if a.Top4Finishes != b.Top4Finishes {
			return a.Top4Finishes > b.Top4Finishes
		}
		if a.EighthPlaces != b.EighthPlaces {
			return a.EighthPlaces < b.EighthPlaces
		}
		if a.LastGamePlace != b.LastGamePlace {
			return a.LastGamePlace < b.LastGamePlace
		}
		if pa, pb := priority(a.UserID), priority(b.UserID); pa != pb {
			return pa > pb
		}
		return a.UserID < b.UserID
	})
	return sorted
}

// FullyTiedMemberGroups возвращает только те подмножества участников, у
// которых совпадают все пять метрик таблицы - ровно те случаи, где ручной
// tie-break или coin toss не являются произволом. Каждая группа отсортирована
// по user_id.
func FullyTiedMemberGroups(members []*models.GroupMember) [][]*models.GroupMember {
	byMetrics := make(map[memberMetrics][]*models.GroupMember)
	order := make([]memberMetrics, 0, len(members))
	for _, member := range members {
		key := metricsOf(member)
		if _, seen := byMetrics[key]; !seen {
			order = append(order, key)
		}
		byMetrics[key] = append(byMetrics[key], member)
	}

	tied := make([][]*models.GroupMember, 0)
	for _, key := range order {
		group := byMetrics[key]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].UserID < group[j].UserID })
		tied = append(tied, group)
	}
	return tied
}

// SortPlayoffParticipants возвращает участников этапа в порядке лидерства:
// очки, победы, топ-4, меньше место в последней игре, возрастающий user_id.
func SortPlayoffParticipants(participants []*models.PlayoffParticipant) []*models.PlayoffParticipant {
	sorted := make([]*models.PlayoffParticipant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Top4Finishes != b.Top4Finishes {
			return a.Top4Finishes > b.Top4Finishes
		}
		if a.LastPlace != b.LastPlace {
			return a.LastPlace < b.LastPlace
		}
		return a.UserID < b.UserID
	})
	return sorted
}
