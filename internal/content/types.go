package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Word is a single vocabulary entry
type Word struct {
	ID    string `json:"id"`
	En    string `json:"en"`
	Zh    string `json:"zh"`
	Audio string `json:"audio,omitempty"`
}

// Phrase is a short expression with optional icon and audio
type Phrase struct {
	ID    string `json:"id"`
	En    string `json:"en"`
	Zh    string `json:"zh"`
	Icon  string `json:"icon,omitempty"`
	Audio string `json:"audio,omitempty"`
}

// Pattern is a question/answer sentence pattern
type Pattern struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Pair is an English/Chinese matching pair used by wordmatching steps
type Pair struct {
	En    string `json:"en"`
	Zh    string `json:"zh"`
	Audio string `json:"audio,omitempty"`
}

// StepType discriminates the quest step variants
type StepType string

const (
	StepListen          StepType = "listen"
	StepSelect          StepType = "select"
	StepSpeak           StepType = "speak"
	StepReveal          StepType = "reveal"
	StepShow            StepType = "show"
	StepDrag            StepType = "drag"
	StepAction          StepType = "action"
	StepFillBlank       StepType = "fillblank"
	StepWordMatching    StepType = "wordmatching"
	StepSentenceSorting StepType = "sentencesorting"
	StepEnToZh          StepType = "entozh"
	StepZhToEn          StepType = "zhtoen"
)

var knownStepTypes = map[StepType]bool{
	StepListen: true, StepSelect: true, StepSpeak: true, StepReveal: true,
	StepShow: true, StepDrag: true, StepAction: true, StepFillBlank: true,
	StepWordMatching: true, StepSentenceSorting: true, StepEnToZh: true, StepZhToEn: true,
}

// Option is one choice in a select step. Content files write options either
// as plain strings or as {en, zh, audio} objects; both decode to Option.
type Option struct {
	En    string `json:"en"`
	Zh    string `json:"zh,omitempty"`
	Audio string `json:"audio,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form
func (o *Option) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		o.En = s
		return nil
	}
	type plain Option
	return json.Unmarshal(data, (*plain)(o))
}

// StringList accepts either a single JSON string or an array of strings
type StringList []string

// UnmarshalJSON accepts both forms
func (l *StringList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList{s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return err
	}
	*l = StringList(ss)
	return nil
}

// QuestStep is one interactive screen within a quest. The Type field selects
// the variant; each variant reads only the fields it needs.
type QuestStep struct {
	Type       StepType   `json:"type"`
	Text       string     `json:"text,omitempty"`
	Audio      string     `json:"audio,omitempty"`
	Image      string     `json:"image,omitempty"`
	Options    []Option   `json:"options,omitempty"`
	AnswerIndex *int      `json:"answerIndex,omitempty"`
	Answer     StringList `json:"answer,omitempty"`
	Recordable bool       `json:"recordable,omitempty"`
	Target     string     `json:"target,omitempty"`

	// wordmatching
	Pairs []Pair `json:"pairs,omitempty"`

	// sentencesorting
	Scrambled []string `json:"scrambled,omitempty"`
	Correct   []string `json:"correct,omitempty"`

	// entozh / zhtoen
	English          string   `json:"english,omitempty"`
	Chinese          string   `json:"chinese,omitempty"`
	ScrambledChinese []string `json:"scrambledChinese,omitempty"`
	CorrectChinese   []string `json:"correctChinese,omitempty"`
	ScrambledEnglish []string `json:"scrambledEnglish,omitempty"`
	CorrectEnglish   []string `json:"correctEnglish,omitempty"`
}

// Validate checks the variant-specific requirements of the step
func (s *QuestStep) Validate() error {
	if !knownStepTypes[s.Type] {
		return fmt.Errorf("unknown step type %q", s.Type)
	}
	switch s.Type {
	case StepSelect:
		if len(s.Options) == 0 {
			return fmt.Errorf("select step requires options")
		}
		if s.AnswerIndex == nil {
			return fmt.Errorf("select step requires answerIndex")
		}
		if *s.AnswerIndex < 0 || *s.AnswerIndex >= len(s.Options) {
			return fmt.Errorf("answerIndex %d out of range for %d options", *s.AnswerIndex, len(s.Options))
		}
	case StepFillBlank:
		if len(s.Answer) == 0 {
			return fmt.Errorf("fillblank step requires answer")
		}
	case StepWordMatching:
		if len(s.Pairs) == 0 {
			return fmt.Errorf("wordmatching step requires pairs")
		}
	case StepSentenceSorting:
		if err := validateScramble(s.Scrambled, s.Correct); err != nil {
			return fmt.Errorf("sentencesorting: %w", err)
		}
	case StepEnToZh:
		if err := validateScramble(s.ScrambledChinese, s.CorrectChinese); err != nil {
			return fmt.Errorf("entozh: %w", err)
		}
	case StepZhToEn:
		if err := validateScramble(s.ScrambledEnglish, s.CorrectEnglish); err != nil {
			return fmt.Errorf("zhtoen: %w", err)
		}
	}
	return nil
}

// validateScramble enforces the reordering invariant: the scrambled sequence
// and the correct sequence must be equal as multisets. The correct sequence
// defines the single accepted ordering.
func validateScramble(scrambled, correct []string) error {
	if len(correct) == 0 {
		return fmt.Errorf("missing correct sequence")
	}
	if len(scrambled) != len(correct) {
		return fmt.Errorf("scrambled has %d items, correct has %d", len(scrambled), len(correct))
	}
	a := append([]string{}, scrambled...)
	b := append([]string{}, correct...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return fmt.Errorf("scrambled and correct sequences differ as multisets")
		}
	}
	return nil
}

// Reward is granted once per quest completion
type Reward struct {
	Badge string `json:"badge,omitempty"`
	XP    int    `json:"xp"`
}

// Quest is a guided multi-step exercise within a module
type Quest struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Steps  []QuestStep `json:"steps"`
	Reward Reward      `json:"reward"`
}

// Practice is a loose self-study exercise (not tracked by progress)
type Practice struct {
	Type   string     `json:"type"`
	Text   string     `json:"text,omitempty"`
	Answer StringList `json:"answer,omitempty"`
	Cn     string     `json:"cn,omitempty"`
	En     []string   `json:"en,omitempty"`
}

// Module is one immutable thematic lesson
type Module struct {
	ModuleID        string     `json:"moduleId"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"durationMinutes"`
	Words           []Word     `json:"words"`
	Phrases         []Phrase   `json:"phrases"`
	Patterns        []Pattern  `json:"patterns"`
	Quests          []Quest    `json:"quests"`
	Practice        []Practice `json:"practice,omitempty"`
	FunFacts        []string   `json:"funFacts,omitempty"`
}

// Quest returns the quest with the given id, if present
func (m *Module) Quest(questID string) (*Quest, bool) {
	for i := range m.Quests {
		if m.Quests[i].ID == questID {
			return &m.Quests[i], true
		}
	}
	return nil, false
}

// Validate checks the structural requirements of a loaded module
func (m *Module) Validate() error {
	if _, err := ParseModuleID(m.ModuleID); err != nil {
		return err
	}
	if m.Title == "" {
		return fmt.Errorf("module %s: missing title", m.ModuleID)
	}
	if m.DurationMinutes <= 0 {
		return fmt.Errorf("module %s: durationMinutes must be positive", m.ModuleID)
	}
	if len(m.Words) == 0 {
		return fmt.Errorf("module %s: words must be non-empty", m.ModuleID)
	}
	if len(m.Quests) == 0 {
		return fmt.Errorf("module %s: quests must be non-empty", m.ModuleID)
	}
	seen := make(map[string]bool)
	for i := range m.Quests {
		q := &m.Quests[i]
		if q.ID == "" {
			return fmt.Errorf("module %s: quest %d has no id", m.ModuleID, i)
		}
		if seen[q.ID] {
			return fmt.Errorf("module %s: duplicate quest id %s", m.ModuleID, q.ID)
		}
		seen[q.ID] = true
		if len(q.Steps) == 0 {
			return fmt.Errorf("module %s: quest %s has no steps", m.ModuleID, q.ID)
		}
		for j := range q.Steps {
			if err := q.Steps[j].Validate(); err != nil {
				return fmt.Errorf("module %s: quest %s step %d: %w", m.ModuleID, q.ID, j, err)
			}
		}
	}
	return nil
}

// ModuleRef is the (grade, semester, number) triple encoded in a module id
type ModuleRef struct {
	Grade    int
	Semester string // upper or lower
	Number   int
	Legacy   bool // legacy module-NN naming (grade 6 upper)
}

// CanonicalID returns the full grade-qualified module id
func (r ModuleRef) CanonicalID() string {
	return fmt.Sprintf("grade%d-%s-mod-%02d", r.Grade, r.Semester, r.Number)
}

var (
	moduleIDPattern = regexp.MustCompile(`^grade(\d+)-(upper|lower)-mod-(\d+)$`)
	legacyIDPattern = regexp.MustCompile(`^module-(\d+)$`)
)

// ParseModuleID parses a canonical or legacy module id. Legacy ids
// (module-NN) predate the multi-book catalog and belong to grade 6 upper.
func ParseModuleID(id string) (ModuleRef, error) {
	if m := moduleIDPattern.FindStringSubmatch(id); m != nil {
		grade, _ := strconv.Atoi(m[1])
		number, _ := strconv.Atoi(m[3])
		if grade < 1 || grade > 6 {
			return ModuleRef{}, fmt.Errorf("module id %s: grade out of range", id)
		}
		return ModuleRef{Grade: grade, Semester: m[2], Number: number}, nil
	}
	if m := legacyIDPattern.FindStringSubmatch(id); m != nil {
		number, _ := strconv.Atoi(m[1])
		return ModuleRef{Grade: 6, Semester: "upper", Number: number, Legacy: true}, nil
	}
	return ModuleRef{}, fmt.Errorf("invalid module id %q", id)
}
