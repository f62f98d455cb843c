// Package analysis computes the descriptive statistics of a snapshot and
// renders them as the JSON summary and the Markdown report.
package analysis

import (
	"errors"
	"fmt"
	"sort"

	"ghscraper/pkg/models"
)

// UnknownLanguage is the bucket for repositories without a primary language
const UnknownLanguage = "Unknown"

// Summary is the content of analysis_results.json
type Summary struct {
	TotalUsers      int            `json:"total_users"`
	TotalRepos      int            `json:"total_repos"`
	HireableUsers   int            `json:"hireable_users"`
	Languages       map[string]int `json:"languages"`
	AvgStarsPerRepo float64        `json:"avg_stars_per_repo"`
	MostActiveUser  string         `json:"most_active_user"`
	MostStarredRepo string         `json:"most_starred_repo"`
}

// LanguageCount is one entry of a language ranking
type LanguageCount struct {
	Language string
	Count    int
}

// Analyze aggregates a snapshot. It only reads the snapshot, so the same
// input always yields the same summary.
func Analyze(s *models.Snapshot) *Summary {
	summary := &Summary{
		TotalUsers: len(s.Users),
		TotalRepos: len(s.Repositories),
		Languages:  make(map[string]int),
	}

	for _, u := range s.Users {
		if u.Hireable {
			summary.HireableUsers++
		}
	}

	var totalStars, mostStars int
	repoCounts := make(map[string]int)
	var firstSeen []string
	for _, r := range s.Repositories {
		lang := r.Language
		if lang == "" {
			lang = UnknownLanguage
		}
		summary.Languages[lang]++

		totalStars += r.StargazersCount
		if r.StargazersCount > mostStars {
			mostStars = r.StargazersCount
			summary.MostStarredRepo = r.FullName
		}

		if _, ok := repoCounts[r.Login]; !ok {
			firstSeen = append(firstSeen, r.Login)
		}
		repoCounts[r.Login]++
	}

	// Ties go to the login that appears first in the snapshot.
	bestCount := 0
	for _, login := range firstSeen {
		if repoCounts[login] > bestCount {
			bestCount = repoCounts[login]
			summary.MostActiveUser = login
		}
	}

	if len(s.Repositories) > 0 {
		summary.AvgStarsPerRepo = float64(totalStars) / float64(len(s.Repositories))
	}

	return summary
}

// TopLanguages returns at most n languages by repository count, ties broken
// by name. A negative n returns them all.
func TopLanguages(s *Summary, n int) []LanguageCount {
	ranking := make([]LanguageCount, 0, len(s.Languages))
	for lang, count := range s.Languages {
		ranking = append(ranking, LanguageCount{Language: lang, Count: count})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Count != ranking[j].Count {
			return ranking[i].Count > ranking[j].Count
		}
		return ranking[i].Language < ranking[j].Language
	})
	if n >= 0 && len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}

// CheckIntegrity verifies that logins are unique and that every repository
// owner is a known user
func CheckIntegrity(s *models.Snapshot) error {
	var errs []error

	users := make(map[string]bool, len(s.Users))
	for _, u := range s.Users {
		if users[u.Login] {
			errs = append(errs, fmt.Errorf("duplicate user %q", u.Login))
		}
		users[u.Login] = true
	}

	orphans := make(map[string]int)
	var order []string
	for _, r := range s.Repositories {
		if !users[r.Login] {
			if orphans[r.Login] == 0 {
				order = append(order, r.Login)
			}
			orphans[r.Login]++
		}
	}
	for _, login := range order {
		errs = append(errs, fmt.Errorf("%d repositories reference unknown user %q", orphans[login], login))
	}

	return errors.Join(errs...)
}
