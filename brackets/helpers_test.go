package brackets

import "github.com/Dosada05/debate-tab/models"

func ip(v int) *int { return &v }

// makeTeams returns n teams with ids and seeds 1..n, each from its own institution.
func makeTeams(n int) []*models.Team {
	teams := make([]*models.Team, n)
	for i := range teams {
		teams[i] = &models.Team{ID: i + 1, Seed: i + 1, Name: "Team", InstitutionID: ip(100 + i)}
	}
	return teams
}

func played(round, prop, opp, winner int) PairingRecord {
	return PairingRecord{RoundNumber: round, PropTeamID: ip(prop), OppTeamID: ip(opp), WinnerTeamID: ip(winner)}
}

func byeRecord(round, team int) PairingRecord {
	return PairingRecord{RoundNumber: round, PropTeamID: ip(team)}
}

func judge(id, rating int, institution *int) *models.Participation {
	return &models.Participation{ID: id, Role: models.RoleJudge, Rating: rating, InstitutionID: institution}
}
