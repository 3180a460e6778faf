// Package validation turns raw form input into a MatchRequest.
package validation

import (
	"strconv"
	"strings"

	"github.com/okian/matchwinner/internal/domain/model"
)

// Validate checks f and returns the parsed request. Checks run in order and
// the first failure is returned:
//  1. every field is non-empty
//  2. home and away differ
//  3. both ranks parse as integers (a bad rank counts as an empty field)
func Validate(f model.Form) (model.MatchRequest, error) {
	home := strings.TrimSpace(f.HomeTeam)
	away := strings.TrimSpace(f.AwayTeam)
	homeRank := strings.TrimSpace(f.HomeRank)
	awayRank := strings.TrimSpace(f.AwayRank)

	switch {
	case home == "":
		return model.MatchRequest{}, &IncompleteFormError{Field: "home_team"}
	case away == "":
		return model.MatchRequest{}, &IncompleteFormError{Field: "away_team"}
	case homeRank == "":
		return model.MatchRequest{}, &IncompleteFormError{Field: "home_rank"}
	case awayRank == "":
		return model.MatchRequest{}, &IncompleteFormError{Field: "away_rank"}
	}

	if home == away {
		return model.MatchRequest{}, &DuplicateTeamError{Team: home}
	}

	hr, err := strconv.Atoi(homeRank)
	if err != nil {
		return model.MatchRequest{}, &IncompleteFormError{Field: "home_rank"}
	}
	ar, err := strconv.Atoi(awayRank)
	if err != nil {
		return model.MatchRequest{}, &IncompleteFormError{Field: "away_rank"}
	}

	return model.MatchRequest{
		HomeTeam: home,
		AwayTeam: away,
		HomeRank: hr,
		AwayRank: ar,
	}, nil
}
