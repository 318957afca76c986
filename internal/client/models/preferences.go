package models

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/trace/internal/common"
)

type SummaryStyle string

const (
	StyleQuick    SummaryStyle = "quick"
	StyleELI8     SummaryStyle = "eli8"
	StyleDetailed SummaryStyle = "detailed"
)

type ReaderType string

const (
	ReaderCasual       ReaderType = "casual"
	ReaderStudent      ReaderType = "student"
	ReaderProfessional ReaderType = "professional"
)

type ReadingLevel string

const (
	LevelBeginner     ReadingLevel = "beginner"
	LevelIntermediate ReadingLevel = "intermediate"
	LevelAdvanced     ReadingLevel = "advanced"
)

var (
	summaryStyles = []SummaryStyle{StyleQuick, StyleELI8, StyleDetailed}
	readerTypes   = []ReaderType{ReaderCasual, ReaderStudent, ReaderProfessional}
	readingLevels = []ReadingLevel{LevelBeginner, LevelIntermediate, LevelAdvanced}
)

// Preferences are owned by the backend; the worker caches the last copy it
// saw in durable storage.
type Preferences struct {
	SummaryStyle         SummaryStyle `json:"summary_style"`
	AutoSummarizeEnabled bool         `json:"auto_summarize_enabled"`
	NotificationsEnabled bool         `json:"notifications_enabled"`
	ReaderType           ReaderType   `json:"reader_type,omitempty"`
	ReadingLevel         ReadingLevel `json:"reading_level,omitempty"`
}

// DefaultPreferences mirrors the backend defaults for a new account.
func DefaultPreferences() Preferences {
	return Preferences{SummaryStyle: StyleELI8, NotificationsEnabled: true}
}

// Validate checks the enum fields. Reader type and reading level may be
// empty.
func (p Preferences) Validate() error {
	if !slices.Contains(summaryStyles, p.SummaryStyle) {
		return fmt.Errorf("%w: invalid summary_style %q, must be one of %v", common.ErrValidation, p.SummaryStyle, summaryStyles)
	}
	if p.ReaderType != "" && !slices.Contains(readerTypes, p.ReaderType) {
		return fmt.Errorf("%w: invalid reader_type %q", common.ErrValidation, p.ReaderType)
	}
	if p.ReadingLevel != "" && !slices.Contains(readingLevels, p.ReadingLevel) {
		return fmt.Errorf("%w: invalid reading_level %q", common.ErrValidation, p.ReadingLevel)
	}
	return nil
}
