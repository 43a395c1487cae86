package services

import (
	"context"
	"testing"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandingsService_Recompute(t *testing.T) {
	x := newTab(t)
	teams := x.teams(4)
	r1 := x.store.addRound(x.tournament.ID, 1, models.DrawStatusPublished)
	p1 := x.store.addPairing(r1.ID, ip(teams[0].ID), ip(teams[1].ID), 0)
	p2 := x.store.addPairing(r1.ID, ip(teams[2].ID), ip(teams[3].ID), 1)
	x.store.setResult(p1.ID, ip(teams[1].ID))
	// Undecided results do not count.
	x.store.setResult(p2.ID, nil)
	x.expectTx(true)

	standings, err := x.standingsService().Recompute(context.Background(), x.tournament.ID)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, teams[1].ID, standings[0].TeamID)
	assert.Equal(t, "Team 2", standings[0].TeamName)
	assert.Equal(t, 1, standings[0].Wins)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, teams[0].ID, standings[1].TeamID)
	assert.Equal(t, 1, standings[1].Losses)

	assert.Len(t, x.store.standings, 2)
	assert.Equal(t, []int{x.tournament.ID}, x.snapshots.standings)
	assert.Equal(t, []string{brackets.EventStandingsUpdated}, x.notifier.types())

	// Recomputing replaces the cache instead of appending to it.
	x.expectTx(true)
	_, err = x.standingsService().Recompute(context.Background(), x.tournament.ID)
	require.NoError(t, err)
	assert.Len(t, x.store.standings, 2)
}

func TestStandingsService_ListAndGetTeam(t *testing.T) {
	x := newTab(t)
	teams := x.teams(2)
	x.store.standings = append(x.store.standings,
		&models.TournamentStanding{ID: 100, TournamentID: x.tournament.ID, TeamID: teams[1].ID, Rank: 2},
		&models.TournamentStanding{ID: 101, TournamentID: x.tournament.ID, TeamID: teams[0].ID, Rank: 1, Wins: 1},
	)
	svc := x.standingsService()

	list, err := svc.List(context.Background(), x.tournament.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, teams[0].ID, list[0].TeamID)

	row, err := svc.GetTeam(context.Background(), x.tournament.ID, teams[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.Wins)

	_, err = svc.GetTeam(context.Background(), x.tournament.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.List(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
