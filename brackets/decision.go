package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/debate-tab/models"
)

var (
	ErrNoBallots                = errors.New("no ballots submitted")
	ErrInvalidBallot            = errors.New("invalid ballot")
	ErrManualResolutionRequired = errors.New("panel is evenly split and speaker scores are equal: manual resolution required")
)

type Decision struct {
	WinnerTeamID int     `json:"winner_team_id"`
	PropVotes    int     `json:"prop_votes"`
	OppVotes     int     `json:"opp_votes"`
	PropAvgScore float64 `json:"prop_avg_score"`
	OppAvgScore  float64 `json:"opp_avg_score"`
}

// DecideResult aggregates one ballot per judge. The majority of votes wins;
// an even split goes to the side with the higher average speaker total. If
// that is also level the pairing needs a human decision.
func DecideResult(propTeamID, oppTeamID int, ballots []models.Ballot) (*Decision, error) {
	if len(ballots) == 0 {
		return nil, ErrNoBallots
	}
	d := &Decision{}
	seen := make(map[int]bool, len(ballots))
	var propTotal, oppTotal float64
	for _, b := range ballots {
		if seen[b.JudgeID] {
			return nil, fmt.Errorf("%w: judge %d submitted twice", ErrInvalidBallot, b.JudgeID)
		}
		seen[b.JudgeID] = true
		if b.PropScore < 0 || b.OppScore < 0 {
			return nil, fmt.Errorf("%w: negative score from judge %d", ErrInvalidBallot, b.JudgeID)
		}
		switch b.WinnerTeamID {
		case propTeamID:
			d.PropVotes++
		case oppTeamID:
			d.OppVotes++
		default:
			return nil, fmt.Errorf("%w: judge %d voted for team %d which is not in the pairing",
				ErrInvalidBallot, b.JudgeID, b.WinnerTeamID)
		}
		propTotal += b.PropScore
		oppTotal += b.OppScore
	}
	n := float64(len(ballots))
	d.PropAvgScore = propTotal / n
	d.OppAvgScore = oppTotal / n

	switch {
	case d.PropVotes > d.OppVotes:
		d.WinnerTeamID = propTeamID
	case d.OppVotes > d.PropVotes:
		d.WinnerTeamID = oppTeamID
	case d.PropAvgScore > d.OppAvgScore:
		d.WinnerTeamID = propTeamID
	case d.OppAvgScore > d.PropAvgScore:
		d.WinnerTeamID = oppTeamID
	default:
		return d, ErrManualResolutionRequired
	}
	return d, nil
}
