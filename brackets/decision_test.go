package brackets

import (
	"testing"

	"github.com/Dosada05/debate-tab/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	propTeam = 1
	oppTeam  = 2
)

func ballot(judgeID, winner int, prop, opp float64) models.Ballot {
	return models.Ballot{JudgeID: judgeID, WinnerTeamID: winner, PropScore: prop, OppScore: opp}
}

func TestDecideResult(t *testing.T) {
	tests := []struct {
		name      string
		ballots   []models.Ballot
		winner    int
		propVotes int
		oppVotes  int
	}{
		{
			name:      "single judge",
			ballots:   []models.Ballot{ballot(1, oppTeam, 70, 72)},
			winner:    oppTeam,
			propVotes: 0,
			oppVotes:  1,
		},
		{
			name:      "majority beats scores",
			ballots:   []models.Ballot{ballot(1, propTeam, 71, 70), ballot(2, propTeam, 70.5, 70), ballot(3, oppTeam, 60, 80)},
			winner:    propTeam,
			propVotes: 2,
			oppVotes:  1,
		},
		{
			name:      "split goes to higher average",
			ballots:   []models.Ballot{ballot(1, propTeam, 75, 74), ballot(2, oppTeam, 70, 73)},
			winner:    oppTeam,
			propVotes: 1,
			oppVotes:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecideResult(propTeam, oppTeam, tt.ballots)
			require.NoError(t, err)
			assert.Equal(t, tt.winner, d.WinnerTeamID)
			assert.Equal(t, tt.propVotes, d.PropVotes)
			assert.Equal(t, tt.oppVotes, d.OppVotes)
		})
	}
}

func TestDecideResult_Averages(t *testing.T) {
	d, err := DecideResult(propTeam, oppTeam, []models.Ballot{ballot(1, propTeam, 76, 70), ballot(2, propTeam, 74, 72)})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, d.PropAvgScore, 1e-9)
	assert.InDelta(t, 71.0, d.OppAvgScore, 1e-9)
}

func TestDecideResult_DeadlockNeedsManualResolution(t *testing.T) {
	d, err := DecideResult(propTeam, oppTeam, []models.Ballot{ballot(1, propTeam, 72, 70), ballot(2, oppTeam, 70, 72)})
	assert.ErrorIs(t, err, ErrManualResolutionRequired)
	require.NotNil(t, d)
	assert.Zero(t, d.WinnerTeamID)
	assert.Equal(t, 1, d.PropVotes)
	assert.Equal(t, 1, d.OppVotes)
}

func TestDecideResult_RejectsBadBallots(t *testing.T) {
	_, err := DecideResult(propTeam, oppTeam, nil)
	assert.ErrorIs(t, err, ErrNoBallots)

	_, err = DecideResult(propTeam, oppTeam, []models.Ballot{ballot(1, propTeam, 70, 70), ballot(1, oppTeam, 70, 70)})
	assert.ErrorIs(t, err, ErrInvalidBallot)

	_, err = DecideResult(propTeam, oppTeam, []models.Ballot{ballot(1, 3, 70, 70)})
	assert.ErrorIs(t, err, ErrInvalidBallot)

	_, err = DecideResult(propTeam, oppTeam, []models.Ballot{ballot(1, propTeam, -1, 70)})
	assert.ErrorIs(t, err, ErrInvalidBallot)
}
