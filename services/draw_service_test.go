package services

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CatCodeArbelin/dacarbelin/brackets"
	"github.com/CatCodeArbelin/dacarbelin/models"
)

func newDrawService(s *fakeStore) *DrawService {
	return NewDrawService(
		fakeTx{},
		&fakeGroupRepo{s: s},
		&fakeMemberRepo{s: s},
		&fakeResultRepo{s: s},
		&fakeTieBreakRepo{s: s},
		&fakeUserRepo{s: s},
		rand.New(rand.NewSource(3)),
	)
}

func addUsersPerBasket(s *fakeStore, count int, baskets ...models.Basket) []int {
	ids := make([]int, 0, count*len(baskets))
	for _, basket := range baskets {
		for i := 0; i < count; i++ {
			ids = append(ids, s.addUser(basket).ID)
		}
	}
	return ids
}

func TestCreateAutoDraw(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)
	addUsersPerBasket(s, 14, models.SeededBaskets...)

	require.NoError(t, svc.CreateAutoDraw(context.Background()))

	groups, err := (&fakeGroupRepo{s: s}).ListByStage(context.Background(), nil, models.GroupStage)
	require.NoError(t, err)
	require.Len(t, groups, 7)

	seenUsers := make(map[int]bool)
	for i, group := range groups {
		require.Equal(t, "Group "+string(rune('A'+i)), group.Name)
		require.Equal(t, models.DrawModeAuto, group.DrawMode)
		require.Equal(t, 1, group.CurrentGame)
		require.Len(t, group.LobbyPassword, 4)

		members, memberErr := (&fakeMemberRepo{s: s}).ListByGroup(context.Background(), nil, group.ID)
		require.NoError(t, memberErr)
		require.Len(t, members, 8)
		for seat, member := range members {
			require.Equal(t, seat+1, member.Seat)
			require.False(t, seenUsers[member.UserID])
			seenUsers[member.UserID] = true
		}
	}
	require.Len(t, seenUsers, 56)
}

func TestCreateAutoDrawNotEnoughPlayers(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)
	addUsersPerBasket(s, 13, models.SeededBaskets...)
	addUsersPerBasket(s, 3, models.BasketLowRank)

	err := svc.CreateAutoDraw(context.Background())
	require.ErrorIs(t, err, brackets.ErrAutoDrawNotEnoughPlayers)
	require.Empty(t, s.groups)
	require.Empty(t, s.members)
}

func TestCreateAutoDrawIgnoresReserveBaskets(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)
	addUsersPerBasket(s, 13, models.SeededBaskets...)
	// Резервные корзины и инвайты не считаются допущенными к жеребьёвке.
	addUsersPerBasket(s, 10, models.BasketQueenReserve, models.BasketInvited)

	err := svc.CreateAutoDraw(context.Background())
	require.ErrorIs(t, err, brackets.ErrAutoDrawNotEnoughPlayers)
}

func TestCreateAutoDrawReplacesExistingStage(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)
	addUsersPerBasket(s, 14, models.SeededBaskets...)

	require.NoError(t, svc.CreateAutoDraw(context.Background()))
	firstDrawGroups := len(s.groups)
	require.NoError(t, svc.CreateAutoDraw(context.Background()))

	require.Equal(t, firstDrawGroups, len(s.groups))
	require.Len(t, s.members, 56)
	require.Empty(t, s.results)
	require.Empty(t, s.tieBreaks)
}

func TestCreateManualDraw(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)
	ids := addUsersPerBasket(s, 7, models.BasketKing)

	require.NoError(t, svc.CreateManualDraw(context.Background(), 3, ids))

	groups, err := (&fakeGroupRepo{s: s}).ListByStage(context.Background(), nil, models.GroupStage)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	// Раскладка по кругу: 3, 2 и 2 игрока.
	wantSizes := []int{3, 2, 2}
	memberRepo := &fakeMemberRepo{s: s}
	for i, group := range groups {
		require.Equal(t, models.DrawModeManual, group.DrawMode)
		members, memberErr := memberRepo.ListByGroup(context.Background(), nil, group.ID)
		require.NoError(t, memberErr)
		require.Len(t, members, wantSizes[i])
		for seat, member := range members {
			require.Equal(t, seat+1, member.Seat)
		}
	}

	// Первая группа получает игроков 0, 3 и 6 из списка.
	members, err := memberRepo.ListByGroup(context.Background(), nil, groups[0].ID)
	require.NoError(t, err)
	require.Equal(t, []int{ids[0], ids[3], ids[6]}, []int{members[0].UserID, members[1].UserID, members[2].UserID})
}

func TestCreateManualDrawValidation(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)
	ids := addUsersPerBasket(s, 4, models.BasketRook)

	err := svc.CreateManualDraw(context.Background(), 0, ids)
	require.ErrorIs(t, err, ErrManualDrawGroupCount)

	err = svc.CreateManualDraw(context.Background(), 9, ids)
	require.ErrorIs(t, err, ErrManualDrawGroupCount)

	err = svc.CreateManualDraw(context.Background(), 1, []int{ids[0], ids[1], ids[0], ids[2]})
	require.ErrorIs(t, err, ErrManualDrawDuplicateIDs)

	tooMany := make([]int, 9)
	for i := range tooMany {
		tooMany[i] = i + 1
	}
	err = svc.CreateManualDraw(context.Background(), 1, tooMany)
	require.ErrorIs(t, err, ErrManualDrawTooManyPlayers)

	err = svc.CreateManualDraw(context.Background(), 1, []int{ids[0], 9999})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateManualGroup(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	group, err := svc.CreateManualGroup(context.Background(), "  Group X  ", "42")
	require.NoError(t, err)
	require.Equal(t, "Group X", group.Name)
	require.Equal(t, "0042", group.LobbyPassword)
	require.Equal(t, models.DrawModeManual, group.DrawMode)

	_, err = svc.CreateManualGroup(context.Background(), "   ", "1")
	require.ErrorIs(t, err, ErrGroupNameRequired)

	_, err = svc.CreateManualGroup(context.Background(), "Group X", "1")
	require.ErrorIs(t, err, ErrGroupNameConflict)
}

func TestAddGroupMember(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	groupA, err := svc.CreateManualGroup(context.Background(), "Group A", "1")
	require.NoError(t, err)
	groupB, err := svc.CreateManualGroup(context.Background(), "Group B", "2")
	require.NoError(t, err)
	ids := addUsersPerBasket(s, 9, models.BasketBishop)

	for _, id := range ids[:8] {
		require.NoError(t, svc.AddGroupMember(context.Background(), groupA.ID, id))
	}

	err = svc.AddGroupMember(context.Background(), groupA.ID, ids[0])
	require.ErrorIs(t, err, ErrPlayerAlreadyInGroup)

	err = svc.AddGroupMember(context.Background(), groupB.ID, ids[0])
	require.ErrorIs(t, err, ErrPlayerInAnotherGroup)

	err = svc.AddGroupMember(context.Background(), groupA.ID, ids[8])
	require.ErrorIs(t, err, ErrGroupFull)

	err = svc.AddGroupMember(context.Background(), 9999, ids[8])
	require.ErrorIs(t, err, ErrGroupNotFound)

	err = svc.AddGroupMember(context.Background(), groupB.ID, 9999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRemoveGroupMemberReseats(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	group, err := svc.CreateManualGroup(context.Background(), "Group A", "1")
	require.NoError(t, err)
	ids := addUsersPerBasket(s, 3, models.BasketQueen)
	for _, id := range ids {
		require.NoError(t, svc.AddGroupMember(context.Background(), group.ID, id))
	}

	require.NoError(t, svc.RemoveGroupMember(context.Background(), group.ID, ids[0]))

	members, err := (&fakeMemberRepo{s: s}).ListByGroup(context.Background(), nil, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, 1, members[0].Seat)
	require.Equal(t, ids[1], members[0].UserID)
	require.Equal(t, 2, members[1].Seat)
	require.Equal(t, ids[2], members[1].UserID)

	err = svc.RemoveGroupMember(context.Background(), group.ID, ids[0])
	require.ErrorIs(t, err, ErrGroupMemberNotFound)
}

func TestMoveGroupMember(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	groupA, err := svc.CreateManualGroup(context.Background(), "Group A", "1")
	require.NoError(t, err)
	groupB, err := svc.CreateManualGroup(context.Background(), "Group B", "2")
	require.NoError(t, err)
	ids := addUsersPerBasket(s, 3, models.BasketKing)
	require.NoError(t, svc.AddGroupMember(context.Background(), groupA.ID, ids[0]))
	require.NoError(t, svc.AddGroupMember(context.Background(), groupA.ID, ids[1]))
	require.NoError(t, svc.AddGroupMember(context.Background(), groupB.ID, ids[2]))

	require.NoError(t, svc.MoveGroupMember(context.Background(), groupA.ID, groupB.ID, ids[0]))

	memberRepo := &fakeMemberRepo{s: s}
	membersA, err := memberRepo.ListByGroup(context.Background(), nil, groupA.ID)
	require.NoError(t, err)
	require.Len(t, membersA, 1)
	require.Equal(t, 1, membersA[0].Seat)

	membersB, err := memberRepo.ListByGroup(context.Background(), nil, groupB.ID)
	require.NoError(t, err)
	require.Len(t, membersB, 2)
	require.Equal(t, ids[0], membersB[1].UserID)
	require.Equal(t, 2, membersB[1].Seat)

	err = svc.MoveGroupMember(context.Background(), groupA.ID, groupB.ID, ids[0])
	require.ErrorIs(t, err, ErrGroupMemberNotFound)
}

func TestMoveGroupMemberRejectsFullTarget(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	groupA, err := svc.CreateManualGroup(context.Background(), "Group A", "1")
	require.NoError(t, err)
	groupB, err := svc.CreateManualGroup(context.Background(), "Group B", "2")
	require.NoError(t, err)
	ids := addUsersPerBasket(s, 9, models.BasketRook)
	for _, id := range ids[:8] {
		require.NoError(t, svc.AddGroupMember(context.Background(), groupB.ID, id))
	}
	require.NoError(t, svc.AddGroupMember(context.Background(), groupA.ID, ids[8]))

	err = svc.MoveGroupMember(context.Background(), groupA.ID, groupB.ID, ids[8])
	require.ErrorIs(t, err, ErrGroupFull)
}

func TestSwapGroupMembers(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	groupA, err := svc.CreateManualGroup(context.Background(), "Group A", "1")
	require.NoError(t, err)
	groupB, err := svc.CreateManualGroup(context.Background(), "Group B", "2")
	require.NoError(t, err)
	ids := addUsersPerBasket(s, 4, models.BasketBishop)
	require.NoError(t, svc.AddGroupMember(context.Background(), groupA.ID, ids[0]))
	require.NoError(t, svc.AddGroupMember(context.Background(), groupA.ID, ids[1]))
	require.NoError(t, svc.AddGroupMember(context.Background(), groupB.ID, ids[2]))
	require.NoError(t, svc.AddGroupMember(context.Background(), groupB.ID, ids[3]))

	require.NoError(t, svc.SwapGroupMembers(context.Background(), groupA.ID, ids[1], groupB.ID, ids[2]))

	memberRepo := &fakeMemberRepo{s: s}
	swappedIn, err := memberRepo.GetByGroupAndUser(context.Background(), nil, groupA.ID, ids[2])
	require.NoError(t, err)
	require.Equal(t, 2, swappedIn.Seat)
	swappedOut, err := memberRepo.GetByGroupAndUser(context.Background(), nil, groupB.ID, ids[1])
	require.NoError(t, err)
	require.Equal(t, 1, swappedOut.Seat)

	err = svc.SwapGroupMembers(context.Background(), groupA.ID, ids[0], groupA.ID, ids[2])
	require.ErrorIs(t, err, ErrSameGroupSwap)

	err = svc.SwapGroupMembers(context.Background(), groupA.ID, ids[1], groupB.ID, ids[3])
	require.ErrorIs(t, err, ErrGroupMemberNotFound)
}

func TestUpdateGroupLobbyPassword(t *testing.T) {
	s := newFakeStore()
	svc := newDrawService(s)

	group, err := svc.CreateManualGroup(context.Background(), "Group A", "1")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateGroupLobbyPassword(context.Background(), group.ID, "7"))
	require.Equal(t, "0007", group.LobbyPassword)

	err = svc.UpdateGroupLobbyPassword(context.Background(), 9999, "1")
	require.ErrorIs(t, err, ErrGroupNotFound)
}
