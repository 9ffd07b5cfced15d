package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/CatCodeArbelin/dacarbelin/models"
	"github.com/CatCodeArbelin/dacarbelin/repositories"
)

// fakeStore - общее in-memory хранилище для фейковых репозиториев.
// Сервисы валидируют до мутаций, поэтому транзакционный откат в тестах
// не нужен: проверяем, что при ошибке записи не началась ни одна.
type fakeStore struct {
	users        map[int]*models.User
	groups       map[int]*models.TournamentGroup
	members      map[int]*models.GroupMember
	results      []*models.GroupGameResult
	tieBreaks    []*models.GroupManualTieBreak
	stages       map[int]*models.PlayoffStage
	participants map[int]*models.PlayoffParticipant
	matches      map[int]*models.PlayoffMatch
	settings     map[string]string
	archive      []*models.ArchiveEntry
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int]*models.User),
		groups:       make(map[int]*models.TournamentGroup),
		members:      make(map[int]*models.GroupMember),
		stages:       make(map[int]*models.PlayoffStage),
		participants: make(map[int]*models.PlayoffParticipant),
		matches:      make(map[int]*models.PlayoffMatch),
		settings:     make(map[string]string),
		nextID:       0,
	}
}

func (s *fakeStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(basket models.Basket) *models.User {
	user := &models.User{
		ID:        s.id(),
		Basket:    basket,
		CreatedAt: time.Unix(int64(s.nextID), 0),
	}
	user.Nickname = gofakeit.Gamertag()
	user.SteamID = "7656119" + strconv.Itoa(1000000000+user.ID)
	s.users[user.ID] = user
	return user
}

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// --- пользователи ---

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(_ context.Context, _ repositories.SQLExecutor, user *models.User) error {
	for _, existing := range r.s.users {
		if existing.SteamID == user.SteamID {
			return repositories.ErrUserSteamConflict
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = time.Unix(int64(r.s.nextID), 0)
	r.s.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetBySteamID(_ context.Context, _ repositories.SQLExecutor, steamID string) (*models.User, error) {
	for _, user := range r.s.users {
		if user.SteamID == steamID {
			return user, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListByBaskets(_ context.Context, _ repositories.SQLExecutor, baskets []models.Basket) ([]*models.User, error) {
	wanted := make(map[models.Basket]struct{}, len(baskets))
	for _, basket := range baskets {
		wanted[basket] = struct{}{}
	}
	var users []*models.User
	for _, user := range r.s.users {
		if _, ok := wanted[user.Basket]; ok {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *fakeUserRepo) ListIDsByDirectInviteStage(_ context.Context, _ repositories.SQLExecutor, stage string) ([]int, error) {
	var ids []int
	for _, user := range r.s.users {
		if user.DirectInviteStage != nil && *user.DirectInviteStage == stage {
			ids = append(ids, user.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeUserRepo) CountByBasket(_ context.Context, _ repositories.SQLExecutor) (map[models.Basket]int, error) {
	counts := make(map[models.Basket]int)
	for _, user := range r.s.users {
		counts[user.Basket]++
	}
	return counts, nil
}

func (r *fakeUserRepo) UpdateBasket(_ context.Context, _ repositories.SQLExecutor, userID int, basket models.Basket) error {
	user, ok := r.s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.Basket = basket
	return nil
}

func (r *fakeUserRepo) UpdateDirectInviteStage(_ context.Context, _ repositories.SQLExecutor, userID int, stage *string) error {
	user, ok := r.s.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	user.DirectInviteStage = stage
	return nil
}

func (r *fakeUserRepo) CountByDirectInviteStage(_ context.Context, _ repositories.SQLExecutor, stage string) (int, error) {
	count := 0
	for _, user := range r.s.users {
		if user.DirectInviteStage != nil && *user.DirectInviteStage == stage {
			count++
		}
	}
	return count, nil
}

// --- группы ---

type fakeGroupRepo struct{ s *fakeStore }

func (r *fakeGroupRepo) Create(_ context.Context, _ repositories.SQLExecutor, group *models.TournamentGroup) error {
	for _, existing := range r.s.groups {
		if existing.Stage == group.Stage && existing.Name == group.Name {
			return repositories.ErrGroupNameConflict
		}
	}
	group.ID = r.s.id()
	r.s.groups[group.ID] = group
	return nil
}

func (r *fakeGroupRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.TournamentGroup, error) {
	group, ok := r.s.groups[id]
	if !ok {
		return nil, repositories.ErrGroupNotFound
	}
	return group, nil
}

func (r *fakeGroupRepo) ListByStage(_ context.Context, _ repositories.SQLExecutor, stage string) ([]*models.TournamentGroup, error) {
	var groups []*models.TournamentGroup
	for _, group := range r.s.groups {
		if group.Stage == stage {
			groups = append(groups, group)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (r *fakeGroupRepo) ExistsByStageAndName(_ context.Context, _ repositories.SQLExecutor, stage, name string) (bool, error) {
	for _, group := range r.s.groups {
		if group.Stage == stage && group.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeGroupRepo) DeleteByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) error {
	for _, id := range ids {
		delete(r.s.groups, id)
	}
	return nil
}

func (r *fakeGroupRepo) UpdateCurrentGame(_ context.Context, _ repositories.SQLExecutor, groupID, currentGame int) error {
	group, ok := r.s.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	group.CurrentGame = currentGame
	return nil
}

func (r *fakeGroupRepo) UpdateLobbyPassword(_ context.Context, _ repositories.SQLExecutor, groupID int, password string) error {
	group, ok := r.s.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	group.LobbyPassword = password
	return nil
}

func (r *fakeGroupRepo) SetStarted(_ context.Context, _ repositories.SQLExecutor, groupID int, started bool) error {
	group, ok := r.s.groups[groupID]
	if !ok {
		return repositories.ErrGroupNotFound
	}
	group.IsStarted = started
	return nil
}

// --- участники групп ---

type fakeMemberRepo struct{ s *fakeStore }

func (r *fakeMemberRepo) Create(_ context.Context, _ repositories.SQLExecutor, member *models.GroupMember) error {
	member.ID = r.s.id()
	r.s.members[member.ID] = member
	return nil
}

func (r *fakeMemberRepo) GetByGroupAndUser(_ context.Context, _ repositories.SQLExecutor, groupID, userID int) (*models.GroupMember, error) {
	for _, member := range r.s.members {
		if member.GroupID == groupID && member.UserID == userID {
			return member, nil
		}
	}
	return nil, repositories.ErrGroupMemberNotFound
}

func (r *fakeMemberRepo) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) ([]*models.GroupMember, error) {
	var members []*models.GroupMember
	for _, member := range r.s.members {
		if member.GroupID == groupID {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Seat < members[j].Seat })
	return members, nil
}

func (r *fakeMemberRepo) ListByGroupIDs(_ context.Context, _ repositories.SQLExecutor, groupIDs []int) ([]*models.GroupMember, error) {
	wanted := make(map[int]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = struct{}{}
	}
	var members []*models.GroupMember
	for _, member := range r.s.members {
		if _, ok := wanted[member.GroupID]; ok {
			members = append(members, member)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (r *fakeMemberRepo) CountByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) (int, error) {
	count := 0
	for _, member := range r.s.members {
		if member.GroupID == groupID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMemberRepo) ListStageMemberIDs(_ context.Context, _ repositories.SQLExecutor, groupIDs []int, userID int) ([]int, error) {
	wanted := make(map[int]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = struct{}{}
	}
	var ids []int
	for _, member := range r.s.members {
		if member.UserID != userID {
			continue
		}
		if _, ok := wanted[member.GroupID]; ok {
			ids = append(ids, member.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r *fakeMemberRepo) UpdateSeat(_ context.Context, _ repositories.SQLExecutor, memberID, seat int) error {
	member, ok := r.s.members[memberID]
	if !ok {
		return repositories.ErrGroupMemberNotFound
	}
	member.Seat = seat
	return nil
}

func (r *fakeMemberRepo) UpdateGroupAndSeat(_ context.Context, _ repositories.SQLExecutor, memberID, groupID, seat int) error {
	member, ok := r.s.members[memberID]
	if !ok {
		return repositories.ErrGroupMemberNotFound
	}
	member.GroupID = groupID
	member.Seat = seat
	return nil
}

func (r *fakeMemberRepo) UpdateAggregates(_ context.Context, _ repositories.SQLExecutor, member *models.GroupMember) error {
	stored, ok := r.s.members[member.ID]
	if !ok {
		return repositories.ErrGroupMemberNotFound
	}
	*stored = *member
	return nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, _ repositories.SQLExecutor, memberID int) error {
	if _, ok := r.s.members[memberID]; !ok {
		return repositories.ErrGroupMemberNotFound
	}
	delete(r.s.members, memberID)
	return nil
}

func (r *fakeMemberRepo) DeleteByGroupIDs(_ context.Context, _ repositories.SQLExecutor, groupIDs []int) error {
	wanted := make(map[int]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = struct{}{}
	}
	for id, member := range r.s.members {
		if _, ok := wanted[member.GroupID]; ok {
			delete(r.s.members, id)
		}
	}
	return nil
}

// --- результаты игр ---

type fakeResultRepo struct{ s *fakeStore }

func (r *fakeResultRepo) Create(_ context.Context, _ repositories.SQLExecutor, result *models.GroupGameResult) error {
	for _, existing := range r.s.results {
		if existing.GroupID == result.GroupID && existing.GameNumber == result.GameNumber && existing.Place == result.Place {
			return repositories.ErrGroupResultConflict
		}
	}
	result.ID = r.s.id()
	r.s.results = append(r.s.results, result)
	return nil
}

func (r *fakeResultRepo) ExistsForGame(_ context.Context, _ repositories.SQLExecutor, groupID, gameNumber int) (bool, error) {
	for _, result := range r.s.results {
		if result.GroupID == groupID && result.GameNumber == gameNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeResultRepo) ListByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) ([]*models.GroupGameResult, error) {
	var results []*models.GroupGameResult
	for _, result := range r.s.results {
		if result.GroupID == groupID {
			results = append(results, result)
		}
	}
	return results, nil
}

func (r *fakeResultRepo) DeleteByGroupIDs(_ context.Context, _ repositories.SQLExecutor, groupIDs []int) error {
	wanted := make(map[int]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = struct{}{}
	}
	kept := r.s.results[:0]
	for _, result := range r.s.results {
		if _, ok := wanted[result.GroupID]; !ok {
			kept = append(kept, result)
		}
	}
	r.s.results = kept
	return nil
}

// --- tie-break ---

type fakeTieBreakRepo struct{ s *fakeStore }

func (r *fakeTieBreakRepo) ReplaceForGroup(_ context.Context, _ repositories.SQLExecutor, groupID int, tieBreaks []*models.GroupManualTieBreak) error {
	kept := r.s.tieBreaks[:0]
	for _, tb := range r.s.tieBreaks {
		if tb.GroupID != groupID {
			kept = append(kept, tb)
		}
	}
	r.s.tieBreaks = kept
	for _, tb := range tieBreaks {
		tb.ID = r.s.id()
		r.s.tieBreaks = append(r.s.tieBreaks, tb)
	}
	return nil
}

func (r *fakeTieBreakRepo) PrioritiesByGroup(_ context.Context, _ repositories.SQLExecutor, groupID int) (map[int]int, error) {
	priorities := make(map[int]int)
	for _, tb := range r.s.tieBreaks {
		if tb.GroupID == groupID {
			priorities[tb.UserID] = tb.Priority
		}
	}
	return priorities, nil
}

func (r *fakeTieBreakRepo) DeleteByGroupIDs(_ context.Context, _ repositories.SQLExecutor, groupIDs []int) error {
	wanted := make(map[int]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		wanted[id] = struct{}{}
	}
	kept := r.s.tieBreaks[:0]
	for _, tb := range r.s.tieBreaks {
		if _, ok := wanted[tb.GroupID]; !ok {
			kept = append(kept, tb)
		}
	}
	r.s.tieBreaks = kept
	return nil
}

// --- playoff-этапы ---

type fakeStageRepo struct{ s *fakeStore }

func (r *fakeStageRepo) Create(_ context.Context, _ repositories.SQLExecutor, stage *models.PlayoffStage) error {
	stage.ID = r.s.id()
	r.s.stages[stage.ID] = stage
	return nil
}

func (r *fakeStageRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.PlayoffStage, error) {
	stage, ok := r.s.stages[id]
	if !ok {
		return nil, repositories.ErrPlayoffStageNotFound
	}
	return stage, nil
}

func (r *fakeStageRepo) GetByOrder(_ context.Context, _ repositories.SQLExecutor, stageOrder int) (*models.PlayoffStage, error) {
	for _, stage := range r.s.stages {
		if stage.StageOrder == stageOrder {
			return stage, nil
		}
	}
	return nil, repositories.ErrPlayoffStageNotFound
}

func (r *fakeStageRepo) ListAll(_ context.Context, _ repositories.SQLExecutor) ([]*models.PlayoffStage, error) {
	var stages []*models.PlayoffStage
	for _, stage := range r.s.stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].StageOrder < stages[j].StageOrder })
	return stages, nil
}

func (r *fakeStageRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.stages = make(map[int]*models.PlayoffStage)
	return nil
}

func (r *fakeStageRepo) SetStarted(_ context.Context, _ repositories.SQLExecutor, stageID int, started bool) error {
	stage, ok := r.s.stages[stageID]
	if !ok {
		return repositories.ErrPlayoffStageNotFound
	}
	stage.IsStarted = started
	return nil
}

func (r *fakeStageRepo) SetFinalCandidate(_ context.Context, _ repositories.SQLExecutor, stageID int, userID *int) error {
	stage, ok := r.s.stages[stageID]
	if !ok {
		return repositories.ErrPlayoffStageNotFound
	}
	stage.FinalCandidateUserID = userID
	return nil
}

// --- участники playoff ---

type fakeParticipantRepo struct{ s *fakeStore }

func (r *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, participant *models.PlayoffParticipant) error {
	for _, existing := range r.s.participants {
		if existing.StageID == participant.StageID && existing.UserID == participant.UserID {
			return repositories.ErrPlayoffParticipantConflict
		}
	}
	participant.ID = r.s.id()
	r.s.participants[participant.ID] = participant
	return nil
}

func (r *fakeParticipantRepo) GetByStageAndUser(_ context.Context, _ repositories.SQLExecutor, stageID, userID int) (*models.PlayoffParticipant, error) {
	for _, participant := range r.s.participants {
		if participant.StageID == stageID && participant.UserID == userID {
			return participant, nil
		}
	}
	return nil, repositories.ErrPlayoffParticipantNotFound
}

func (r *fakeParticipantRepo) ListByStage(_ context.Context, _ repositories.SQLExecutor, stageID int) ([]*models.PlayoffParticipant, error) {
	var participants []*models.PlayoffParticipant
	for _, participant := range r.s.participants {
		if participant.StageID == stageID {
			participants = append(participants, participant)
		}
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].Seed < participants[j].Seed })
	return participants, nil
}

func (r *fakeParticipantRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, participant *models.PlayoffParticipant) error {
	stored, ok := r.s.participants[participant.ID]
	if !ok {
		return repositories.ErrPlayoffParticipantNotFound
	}
	*stored = *participant
	return nil
}

func (r *fakeParticipantRepo) UpdateUserID(_ context.Context, _ repositories.SQLExecutor, participantID, userID int) error {
	participant, ok := r.s.participants[participantID]
	if !ok {
		return repositories.ErrPlayoffParticipantNotFound
	}
	participant.UserID = userID
	return nil
}

func (r *fakeParticipantRepo) AdjustPoints(_ context.Context, _ repositories.SQLExecutor, participantID, pointsDelta int) error {
	participant, ok := r.s.participants[participantID]
	if !ok {
		return repositories.ErrPlayoffParticipantNotFound
	}
	participant.Points += pointsDelta
	return nil
}

func (r *fakeParticipantRepo) SetEliminated(_ context.Context, _ repositories.SQLExecutor, participantID int, eliminated bool) error {
	participant, ok := r.s.participants[participantID]
	if !ok {
		return repositories.ErrPlayoffParticipantNotFound
	}
	participant.IsEliminated = eliminated
	return nil
}

func (r *fakeParticipantRepo) DeleteByStage(_ context.Context, _ repositories.SQLExecutor, stageID int) error {
	for id, participant := range r.s.participants {
		if participant.StageID == stageID {
			delete(r.s.participants, id)
		}
	}
	return nil
}

func (r *fakeParticipantRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.participants = make(map[int]*models.PlayoffParticipant)
	return nil
}

// --- матчи playoff ---

type fakeMatchRepo struct{ s *fakeStore }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.PlayoffMatch) error {
	match.ID = r.s.id()
	r.s.matches[match.ID] = match
	return nil
}

func (r *fakeMatchRepo) GetByStageAndGroup(_ context.Context, _ repositories.SQLExecutor, stageID, groupNumber int) (*models.PlayoffMatch, error) {
	for _, match := range r.s.matches {
		if match.StageID == stageID && match.GroupNumber == groupNumber {
			return match, nil
		}
	}
	return nil, repositories.ErrPlayoffMatchNotFound
}

func (r *fakeMatchRepo) ListByStage(_ context.Context, _ repositories.SQLExecutor, stageID int) ([]*models.PlayoffMatch, error) {
	var matches []*models.PlayoffMatch
	for _, match := range r.s.matches {
		if match.StageID == stageID {
			matches = append(matches, match)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].GroupNumber < matches[j].GroupNumber })
	return matches, nil
}

func (r *fakeMatchRepo) UpdateProgress(_ context.Context, _ repositories.SQLExecutor, match *models.PlayoffMatch) error {
	stored, ok := r.s.matches[match.ID]
	if !ok {
		return repositories.ErrPlayoffMatchNotFound
	}
	*stored = *match
	return nil
}

func (r *fakeMatchRepo) UpdateLobbyPassword(_ context.Context, _ repositories.SQLExecutor, matchID int, password string) error {
	match, ok := r.s.matches[matchID]
	if !ok {
		return repositories.ErrPlayoffMatchNotFound
	}
	match.LobbyPassword = password
	return nil
}

func (r *fakeMatchRepo) DeleteAll(_ context.Context, _ repositories.SQLExecutor) error {
	r.s.matches = make(map[int]*models.PlayoffMatch)
	return nil
}

// --- настройки ---

type fakeSettingRepo struct{ s *fakeStore }

func (r *fakeSettingRepo) Get(_ context.Context, _ repositories.SQLExecutor, key string) (*models.SiteSetting, error) {
	value, ok := r.s.settings[key]
	if !ok {
		return nil, repositories.ErrSettingNotFound
	}
	return &models.SiteSetting{Key: key, Value: value}, nil
}

func (r *fakeSettingRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, key, value string) error {
	r.s.settings[key] = value
	return nil
}

// --- архив ---

type fakeArchiveRepo struct{ s *fakeStore }

// Строки архива копируются на вставке и чтении: сервис не должен полагаться
// на то, что изменения его структур сами собой попадут в хранилище.
func (r *fakeArchiveRepo) Create(_ context.Context, _ repositories.SQLExecutor, entry *models.ArchiveEntry) error {
	entry.ID = r.s.id()
	stored := *entry
	r.s.archive = append(r.s.archive, &stored)
	return nil
}

func (r *fakeArchiveRepo) List(_ context.Context, _ repositories.SQLExecutor, publishedOnly bool) ([]*models.ArchiveEntry, error) {
	var entries []*models.ArchiveEntry
	for _, entry := range r.s.archive {
		if publishedOnly && !entry.IsPublished {
			continue
		}
		row := *entry
		entries = append(entries, &row)
	}
	return entries, nil
}

func (r *fakeArchiveRepo) UpdateSnapshotURL(_ context.Context, _ repositories.SQLExecutor, entryID int, url string) error {
	for _, entry := range r.s.archive {
		if entry.ID == entryID {
			stored := url
			entry.SnapshotURL = &stored
			return nil
		}
	}
	return repositories.ErrArchiveEntryNotFound
}

func (r *fakeArchiveRepo) SetPublished(_ context.Context, _ repositories.SQLExecutor, entryID int, published bool) error {
	for _, entry := range r.s.archive {
		if entry.ID == entryID {
			entry.IsPublished = published
			return nil
		}
	}
	return repositories.ErrArchiveEntryNotFound
}
