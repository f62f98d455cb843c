package analysis

import (
	"bytes"
	"fmt"
	"text/template"
)

// ReportInfo describes the run a report is written for
type ReportInfo struct {
	Location         string
	MinFollowers     int
	UsersFile        string
	RepositoriesFile string
	AnalysisFile     string
}

var readmeTemplate = template.Must(template.New("readme").Parse(`# GitHub Users and Repositories Analysis for {{.Info.Location}}

- Data was scraped using GitHub's API with rate limiting and error handling, processing {{.Summary.TotalUsers}} users and {{.Summary.TotalRepos}} repositories.
- Analysis reveals {{.Python}} Python repositories and {{.Summary.HireableUsers}} developers open to job opportunities.
{{- if .TopLanguage}}
- Developers should focus on {{.TopLanguage}} projects, as it's the most popular language in the community.
{{- else}}
- No repositories were collected, so no language stands out.
{{- end}}

## Files
- ` + "`{{.Info.UsersFile}}`" + `: Information about GitHub users in {{.Info.Location}} with {{.Info.MinFollowers}}+ followers
- ` + "`{{.Info.RepositoriesFile}}`" + `: Details of public repositories for these users
- ` + "`{{.Info.AnalysisFile}}`" + `: Detailed analysis of the collected data

## Key Statistics
- Total Users: {{.Summary.TotalUsers}}
- Total Repositories: {{.Summary.TotalRepos}}
- Average Stars per Repository: {{.AvgStars}}
- Most Active User: {{.Summary.MostActiveUser}}
- Most Starred Repository: {{.Summary.MostStarredRepo}}

## Top Programming Languages
{{range .Top}}- {{.Language}}: {{.Count}} repositories
{{end}}`))

// RenderReadme renders the Markdown report for a summary
func RenderReadme(info ReportInfo, s *Summary) (string, error) {
	top := TopLanguages(s, 5)

	data := struct {
		Info        ReportInfo
		Summary     *Summary
		Python      int
		TopLanguage string
		AvgStars    string
		Top         []LanguageCount
	}{
		Info:     info,
		Summary:  s,
		Python:   s.Languages["Python"],
		AvgStars: fmt.Sprintf("%.2f", s.AvgStarsPerRepo),
		Top:      top,
	}
	if len(top) > 0 {
		data.TopLanguage = top[0].Language
	}

	var buf bytes.Buffer
	if err := readmeTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render readme: %w", err)
	}
	return buf.String(), nil
}
