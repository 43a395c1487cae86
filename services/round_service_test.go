package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/debate-tab/brackets"
	"github.com/Dosada05/debate-tab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundService_Create(t *testing.T) {
	x := newTab(t)
	svc := x.roundService()

	round, err := svc.Create(context.Background(), x.tournament.ID, CreateRoundInput{Number: 1, Motion: "  This house would ban homework "})
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusDraft, round.Status)
	assert.Equal(t, "This house would ban homework", round.Motion)

	_, err = svc.Create(context.Background(), x.tournament.ID, CreateRoundInput{Number: 1})
	assert.ErrorIs(t, err, ErrRoundNumberConflict)

	_, err = svc.Create(context.Background(), x.tournament.ID, CreateRoundInput{Number: 0})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(context.Background(), 999, CreateRoundInput{Number: 2})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRoundService_Publish(t *testing.T) {
	t.Run("empty draw", func(t *testing.T) {
		x := newTab(t)
		round := x.store.addRound(x.tournament.ID, 1, models.DrawStatusDraft)
		x.expectTx(false)

		_, err := x.roundService().Publish(context.Background(), round.ID)
		assert.ErrorIs(t, err, ErrDrawEmpty)
	})

	t.Run("debate without chair", func(t *testing.T) {
		x := newTab(t)
		round, pairings, _ := x.draftRound(2)
		judge := x.store.addJudge(x.tournament.ID, 5, nil)
		x.store.seat(pairings[0].ID, judge.ID, false)
		x.expectTx(false)

		_, err := x.roundService().Publish(context.Background(), round.ID)
		assert.ErrorIs(t, err, ErrPanelIncomplete)
		assert.Equal(t, models.DrawStatusDraft, x.store.rounds[round.ID].Status)
	})

	t.Run("released", func(t *testing.T) {
		x := newTab(t)
		round, pairings, teams := x.draftRound(2)
		extra := x.store.addTeam(x.tournament.ID, "Bye", 9, nil)
		x.store.addPairing(round.ID, ip(extra.ID), nil, 1)
		judge := x.store.addJudge(x.tournament.ID, 5, nil)
		x.store.seat(pairings[0].ID, judge.ID, true)
		x.expectTx(true)

		published, err := x.roundService().Publish(context.Background(), round.ID)
		require.NoError(t, err)
		assert.True(t, published.IsPublished())
		require.NotNil(t, published.PublishedAt)
		require.Len(t, published.Pairings, 2)
		assert.Equal(t, teams[0].ID, *published.Pairings[0].PropTeamID)
		assert.Equal(t, models.DrawStatusPublished, x.store.rounds[round.ID].Status)
		assert.Equal(t, []int{1}, x.snapshots.draws)
		assert.Equal(t, []string{brackets.EventDrawReleased}, x.notifier.types())
	})

	t.Run("snapshot failure does not fail release", func(t *testing.T) {
		x := newTab(t)
		round, pairings, _ := x.draftRound(2)
		judge := x.store.addJudge(x.tournament.ID, 5, nil)
		x.store.seat(pairings[0].ID, judge.ID, true)
		x.snapshots.err = errors.New("bucket unavailable")
		x.expectTx(true)

		_, err := x.roundService().Publish(context.Background(), round.ID)
		assert.NoError(t, err)
	})

	t.Run("already published", func(t *testing.T) {
		x := newTab(t)
		round := x.store.addRound(x.tournament.ID, 1, models.DrawStatusPublished)
		x.expectTx(false)

		_, err := x.roundService().Publish(context.Background(), round.ID)
		assert.ErrorIs(t, err, ErrRoundPublished)
	})
}

func TestRoundService_Unpublish(t *testing.T) {
	t.Run("withdrawn", func(t *testing.T) {
		x := newTab(t)
		round, _, _ := x.draftRound(2)
		x.store.rounds[round.ID].Status = models.DrawStatusPublished
		x.expectTx(true)

		withdrawn, err := x.roundService().Unpublish(context.Background(), round.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DrawStatusDraft, withdrawn.Status)
		assert.Nil(t, withdrawn.PublishedAt)
		assert.Equal(t, []int{1}, x.snapshots.withdrawn)
		assert.Equal(t, []string{brackets.EventDrawWithdrawn}, x.notifier.types())
	})

	t.Run("results recorded", func(t *testing.T) {
		x := newTab(t)
		round, pairings, teams := x.draftRound(2)
		x.store.rounds[round.ID].Status = models.DrawStatusPublished
		x.store.setResult(pairings[0].ID, ip(teams[0].ID))
		x.expectTx(false)

		_, err := x.roundService().Unpublish(context.Background(), round.ID)
		assert.ErrorIs(t, err, ErrRoundHasResults)
		assert.True(t, x.store.rounds[round.ID].IsPublished())
	})

	t.Run("draft round", func(t *testing.T) {
		x := newTab(t)
		round := x.store.addRound(x.tournament.ID, 1, models.DrawStatusDraft)
		x.expectTx(false)

		_, err := x.roundService().Unpublish(context.Background(), round.ID)
		assert.ErrorIs(t, err, ErrRoundNotPublished)
	})
}

func TestRoundService_GetPublished(t *testing.T) {
	x := newTab(t)
	x.store.addRound(x.tournament.ID, 1, models.DrawStatusDraft)
	released := x.store.addRound(x.tournament.ID, 2, models.DrawStatusPublished)
	svc := x.roundService()

	_, err := svc.GetPublished(context.Background(), x.tournament.ID, 1)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	_, err = svc.GetPublished(context.Background(), x.tournament.ID, 3)
	assert.ErrorIs(t, err, ErrRoundNotFound)

	round, err := svc.GetPublished(context.Background(), x.tournament.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, released.ID, round.ID)
}

func TestRoundService_UpdateMotion(t *testing.T) {
	x := newTab(t)
	draft := x.store.addRound(x.tournament.ID, 1, models.DrawStatusDraft)
	released := x.store.addRound(x.tournament.ID, 2, models.DrawStatusPublished)
	svc := x.roundService()

	round, err := svc.UpdateMotion(context.Background(), draft.ID, UpdateMotionInput{Motion: "THW abolish zoos"})
	require.NoError(t, err)
	assert.Equal(t, "THW abolish zoos", round.Motion)
	assert.Empty(t, x.notifier.types())

	_, err = svc.UpdateMotion(context.Background(), released.ID, UpdateMotionInput{Motion: "THW rename the moon"})
	require.NoError(t, err)
	assert.Equal(t, []string{brackets.EventDrawReleased}, x.notifier.types())
}
