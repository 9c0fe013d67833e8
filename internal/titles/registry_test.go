package titles

import (
	"testing"

	"negativacao-sync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = Catalog{
	{Name: "rj", Fields: []string{"RJ_1", "RJ_2", "RJ_3"}},
	{Name: "proton", Fields: []string{"PR_1", "PR_2"}, TargetField: "PR_TARGET"},
}

func TestBuild_SkipsEmptyAndMissing(t *testing.T) {
	deal := domain.Deal{
		"RJ_1": "10 - 1/2 - a - b - R$ 100,00 - R$ 90,00",
		"RJ_2": "",
		"RJ_3": nil,
		"PR_1": "20 - 1/1 - a - b - R$ 50,00 - R$ 50,00",
	}

	reg, err := testCatalog.Build(deal)
	require.NoError(t, err)

	require.Len(t, reg, 2)
	assert.Equal(t, "rj", reg["10"].Origin)
	assert.Equal(t, "proton", reg["20"].Origin)
}

func TestBuild_DuplicateIDLastWriterWins(t *testing.T) {
	deal := domain.Deal{
		"RJ_1": "10 - 1/2 - a - b - R$ 100,00 - R$ 90,00",
		"RJ_2": "10 - 2/2 - a - b - R$ 110,00 - R$ 90,00",
		"PR_2": "10 - 9/9 - a - b - R$ 1,00 - R$ 1,00",
	}

	reg, err := testCatalog.Build(deal)
	require.NoError(t, err)

	require.Len(t, reg, 1)
	assert.Equal(t, "proton", reg["10"].Origin)
	assert.Equal(t, "9/9", reg["10"].Installment)
}

func TestBuild_Deterministic(t *testing.T) {
	deal := domain.Deal{
		"RJ_1": "10 - 1/2 - a - b - R$ 100,00 - R$ 90,00",
		"RJ_3": "11 - 1/2 - a - b - R$ 100,00 - R$ 90,00",
		"PR_1": "10 - 1/1 - a - b - R$ 5,00 - R$ 5,00",
		"PR_2": "12 - 1/1 - a - b - R$ 5,00 - R$ 5,00",
	}

	first, err := testCatalog.Build(deal)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := testCatalog.Build(deal)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestBuild_MalformedFieldFails(t *testing.T) {
	deal := domain.Deal{
		"RJ_1": "10 - 1/2 - a - b - R$ 100,00 - R$ 90,00",
		"PR_1": "garbage",
	}

	_, err := testCatalog.Build(deal)
	var mte *domain.MalformedTitleError
	require.ErrorAs(t, err, &mte)
	assert.Equal(t, "PR_1", mte.Field)
}

func TestValues(t *testing.T) {
	deal := domain.Deal{
		"RJ_2": "b",
		"RJ_1": "a",
		"PR_2": "c",
		"PR_1": "",
	}
	assert.Equal(t, []string{"a", "b", "c"}, testCatalog.Values(deal))
}

func TestTargets(t *testing.T) {
	assert.Equal(t, []string{"RJ_1", "PR_TARGET"}, testCatalog.Targets())

	set, ok := testCatalog.Set("proton")
	require.True(t, ok)
	assert.Equal(t, "PR_TARGET", set.Target())

	_, ok = testCatalog.Set("missing")
	assert.False(t, ok)
}
