package utils

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateLobbyPassword(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		password := GenerateLobbyPassword(rng)
		require.Len(t, password, 4)
		for _, r := range password {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestNormalizeLobbyPassword(t *testing.T) {
	require.Equal(t, "0000", NormalizeLobbyPassword(""))
	require.Equal(t, "0007", NormalizeLobbyPassword("7"))
	require.Equal(t, "0042", NormalizeLobbyPassword("42"))
	require.Equal(t, "1234", NormalizeLobbyPassword("1234"))
	require.Equal(t, "1234", NormalizeLobbyPassword("123456"))
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("12, 7,5")
	require.NoError(t, err)
	require.Equal(t, []int{12, 7, 5}, ids)

	ids, err = ParseIDList(" 3,, 4, ")
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, ids)

	ids, err = ParseIDList("")
	require.NoError(t, err)
	require.Empty(t, ids)

	_, err = ParseIDList("1, two, 3")
	require.Error(t, err)
}

func TestGroupNameForIndex(t *testing.T) {
	require.Equal(t, "Group A", GroupNameForIndex(0))
	require.Equal(t, "Group C", GroupNameForIndex(2))
	require.Equal(t, "Group G", GroupNameForIndex(6))
}
