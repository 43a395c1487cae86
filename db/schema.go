package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables. Safe to call on every start.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'organizer' CHECK (role IN ('admin', 'organizer')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT users_email_key UNIQUE (email)
);

CREATE TABLE IF NOT EXISTS tournaments (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'registration'
        CHECK (status IN ('registration', 'active', 'completed', 'canceled')),
    max_swap_attempts INT CHECK (max_swap_attempts > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS institutions (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT institutions_tournament_name_key UNIQUE (tournament_id, name)
);

CREATE TABLE IF NOT EXISTS teams (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    institution_id INT REFERENCES institutions(id) ON DELETE SET NULL,
    name TEXT NOT NULL,
    seed INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT teams_tournament_name_key UNIQUE (tournament_id, name)
);

CREATE INDEX IF NOT EXISTS idx_teams_tournament_id ON teams(tournament_id);

CREATE TABLE IF NOT EXISTS participations (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    user_id INT REFERENCES users(id) ON DELETE SET NULL,
    name TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('debater', 'judge')),
    team_id INT REFERENCES teams(id) ON DELETE CASCADE,
    institution_id INT REFERENCES institutions(id) ON DELETE SET NULL,
    rating INT NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 10),
    independent BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (role = 'debater' OR team_id IS NULL)
);

CREATE INDEX IF NOT EXISTS idx_participations_tournament_role ON participations(tournament_id, role);

CREATE TABLE IF NOT EXISTS rounds (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    number INT NOT NULL CHECK (number > 0),
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published')),
    motion TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT rounds_tournament_number_key UNIQUE (tournament_id, number)
);

CREATE TABLE IF NOT EXISTS pairings (
    id SERIAL PRIMARY KEY,
    round_id INT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    prop_team_id INT REFERENCES teams(id) ON DELETE RESTRICT,
    opp_team_id INT REFERENCES teams(id) ON DELETE RESTRICT,
    bracket INT NOT NULL DEFAULT 0,
    room_order INT NOT NULL DEFAULT 0,
    rematch BOOLEAN NOT NULL DEFAULT FALSE,
    same_institution BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (prop_team_id IS NOT NULL OR opp_team_id IS NOT NULL),
    CHECK (prop_team_id IS NULL OR opp_team_id IS NULL OR prop_team_id <> opp_team_id)
);

CREATE INDEX IF NOT EXISTS idx_pairings_round_id ON pairings(round_id);

CREATE TABLE IF NOT EXISTS pairing_judges (
    pairing_id INT NOT NULL REFERENCES pairings(id) ON DELETE CASCADE,
    judge_id INT NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
    is_chair BOOLEAN NOT NULL DEFAULT FALSE,
    CONSTRAINT pairing_judges_pkey PRIMARY KEY (pairing_id, judge_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS pairing_judges_one_chair ON pairing_judges(pairing_id) WHERE is_chair;

CREATE TABLE IF NOT EXISTS ballots (
    id SERIAL PRIMARY KEY,
    pairing_id INT NOT NULL REFERENCES pairings(id) ON DELETE CASCADE,
    judge_id INT NOT NULL REFERENCES participations(id) ON DELETE CASCADE,
    winner_team_id INT NOT NULL REFERENCES teams(id),
    prop_score DOUBLE PRECISION NOT NULL CHECK (prop_score >= 0),
    opp_score DOUBLE PRECISION NOT NULL CHECK (opp_score >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT ballots_pairing_judge_key UNIQUE (pairing_id, judge_id)
);

CREATE TABLE IF NOT EXISTS results (
    id SERIAL PRIMARY KEY,
    pairing_id INT NOT NULL REFERENCES pairings(id) ON DELETE CASCADE,
    winner_team_id INT REFERENCES teams(id),
    prop_votes INT NOT NULL DEFAULT 0,
    opp_votes INT NOT NULL DEFAULT 0,
    prop_avg_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    opp_avg_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    manual BOOLEAN NOT NULL DEFAULT FALSE,
    locked BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT results_pairing_id_key UNIQUE (pairing_id)
);

CREATE TABLE IF NOT EXISTS tournament_standings (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
    team_id INT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    wins INT NOT NULL DEFAULT 0,
    losses INT NOT NULL DEFAULT 0,
    prop_count INT NOT NULL DEFAULT 0,
    opp_count INT NOT NULL DEFAULT 0,
    opponent_strength DOUBLE PRECISION NOT NULL DEFAULT 0,
    rank INT NOT NULL DEFAULT 0,
    tied BOOLEAN NOT NULL DEFAULT FALSE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT tournament_standings_tournament_team_key UNIQUE (tournament_id, team_id)
);
`
