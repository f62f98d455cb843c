package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	progressWidth = 24
	progressFull  = "━"
	progressEmpty = "─"
)

// StageProgress prints a one-line progress bar per collection stage
type StageProgress struct {
	mu        sync.Mutex
	stage     string
	startTime time.Time
}

// NewStageProgress creates a progress display
func NewStageProgress() *StageProgress {
	return &StageProgress{startTime: time.Now()}
}

// Update redraws the bar of stage. A new stage starts on a fresh line.
func (p *StageProgress) Update(stage string, done, total int) {
	if IsQuietMode() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != "" && p.stage != stage {
		printf("\n")
	}
	p.stage = stage

	printf("\r%s", ProgressLine(stage, done, total))
	if total > 0 && done >= total {
		printf("\n")
		p.stage = ""
	}
}

// Finish ends the current line and prints the elapsed time
func (p *StageProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != "" {
		printf("\n")
		p.stage = ""
	}
	printf("%s finished in %s\n", Green("✓"), FormatDuration(time.Since(p.startTime)))
}

// ProgressLine renders "<stage> [━━──] done/total"
func ProgressLine(stage string, done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * progressWidth / total
	}
	if filled > progressWidth {
		filled = progressWidth
	}
	bar := strings.Repeat(progressFull, filled) + strings.Repeat(progressEmpty, progressWidth-filled)
	return fmt.Sprintf("%-13s [%s] %d/%d", stage, bar, done, total)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
