package brackets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CatCodeArbelin/dacarbelin/models"
)

func TestStageBlueprint(t *testing.T) {
	full := StageBlueprint(56)
	require.Len(t, full, 4)
	require.Equal(t, models.StageKey18, full[0].Key)
	require.Equal(t, models.StageKeyFinal, full[3].Key)

	require.Len(t, StageBlueprint(60), 4)

	partial := StageBlueprint(32)
	require.Len(t, partial, 3)
	require.Equal(t, models.StageKey14, partial[0].Key)
	require.Equal(t, 32, partial[0].StageSize)
	require.Equal(t, models.ScoringFinal22Top1, partial[2].ScoringMode)

	require.Empty(t, StageBlueprint(31))
	require.Empty(t, StageBlueprint(0))
}

func TestGroupCountForStage(t *testing.T) {
	require.Equal(t, 7, GroupCountForStage(56))
	require.Equal(t, 4, GroupCountForStage(32))
	require.Equal(t, 2, GroupCountForStage(16))
	require.Equal(t, 1, GroupCountForStage(8))
	require.Equal(t, 1, GroupCountForStage(4))
}

func TestPromotionRules(t *testing.T) {
	require.Equal(t, 32, PromotedCountForStage(models.StageKey18))
	require.Equal(t, 16, PromotedCountForStage(models.StageKey14))
	require.Equal(t, 8, PromotedCountForStage(models.StageKeySemifinalGroups))
	require.Equal(t, 0, PromotedCountForStage(models.StageKeyFinal))

	require.Equal(t, 3, PerGroupPromotionLimit(models.StageKey18))
	require.Equal(t, 4, PerGroupPromotionLimit(models.StageKey14))
	require.Equal(t, 4, PerGroupPromotionLimit(models.StageKeySemifinalGroups))
}

func TestStageGroupNumberBySeed(t *testing.T) {
	require.Equal(t, 1, StageGroupNumberBySeed(1))
	require.Equal(t, 1, StageGroupNumberBySeed(8))
	require.Equal(t, 2, StageGroupNumberBySeed(9))
	require.Equal(t, 2, StageGroupNumberBySeed(16))
	require.Equal(t, 7, StageGroupNumberBySeed(56))
}

func TestIsGameLimitedStage(t *testing.T) {
	require.True(t, IsGameLimitedStage(models.StageKey18))
	require.True(t, IsGameLimitedStage(models.StageKey14))
	require.True(t, IsGameLimitedStage(models.StageKeySemifinalGroups))
	require.False(t, IsGameLimitedStage(models.StageKeyFinal))
}

func TestBuildStage2PlayerIDs(t *testing.T) {
	promoted := make([]int, 21)
	for i := range promoted {
		promoted[i] = i + 1
	}
	invites := make([]int, 11)
	for i := range invites {
		invites[i] = 100 + i
	}

	roster, err := BuildStage2PlayerIDs(promoted, invites)
	require.NoError(t, err)
	require.Len(t, roster, 32)
	require.Equal(t, promoted, roster[:21])
	require.Equal(t, invites, roster[21:])
}

func TestBuildStage2PlayerIDsErrors(t *testing.T) {
	promoted := make([]int, 21)
	for i := range promoted {
		promoted[i] = i + 1
	}
	invites := make([]int, 11)
	for i := range invites {
		invites[i] = 100 + i
	}

	_, err := BuildStage2PlayerIDs(promoted[:20], invites)
	require.ErrorIs(t, err, ErrStage2PromotedCount)

	_, err = BuildStage2PlayerIDs(promoted, invites[:10])
	require.ErrorIs(t, err, ErrStage2InvitesTooFew)

	_, err = BuildStage2PlayerIDs(promoted, append(invites, 200))
	require.ErrorIs(t, err, ErrStage2InvitesTooMany)

	duplicated := append([]int{}, promoted...)
	duplicated[20] = duplicated[0]
	_, err = BuildStage2PlayerIDs(duplicated, invites)
	require.ErrorIs(t, err, ErrStage2DuplicateIDs)

	overlapping := append([]int{}, invites...)
	overlapping[0] = promoted[0]
	_, err = BuildStage2PlayerIDs(promoted, overlapping)
	require.ErrorIs(t, err, ErrStage2InviteOverlap)
}

func TestSplitParticipantsByGroup(t *testing.T) {
	participants := make([]*models.PlayoffParticipant, 0, 16)
	for seed := 1; seed <= 16; seed++ {
		participants = append(participants, &models.PlayoffParticipant{UserID: seed, Seed: seed})
	}

	grouped := SplitParticipantsByGroup(participants)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[1], 8)
	require.Len(t, grouped[2], 8)
	require.Equal(t, 9, grouped[2][0].UserID)
}
