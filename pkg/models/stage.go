package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Stage is the lifecycle phase of a job application
type Stage uint8

const (
	StageNotStarted Stage = iota + 1
	StageApplied
	StageInProgress
	StageOffer
	StageRejected
	StageNoAnswer
)

var stageNames = map[Stage]string{
	StageNotStarted: "not_started",
	StageApplied:    "applied",
	StageInProgress: "in_progress",
	StageOffer:      "offer",
	StageRejected:   "rejected",
	StageNoAnswer:   "no_answer",
}

// Stages lists every stage in display order
var Stages = []Stage{StageNotStarted, StageApplied, StageInProgress, StageOffer, StageRejected, StageNoAnswer}

// ParseStage converts the wire form ("in_progress", also "IN_PROGRESS") into a Stage
func ParseStage(s string) (Stage, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for st, name := range stageNames {
		if name == key {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid stage %q (valid: %s)", s, strings.Join(StageNames(), ", "))
}

// StageNames returns the wire names of all stages
func StageNames() []string {
	names := make([]string, 0, len(Stages))
	for _, st := range Stages {
		names = append(names, stageNames[st])
	}
	return names
}

// Valid reports whether s is one of the declared stages
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// Label is a human readable form, e.g. "In Progress"
func (s Stage) Label() string {
	words := strings.Split(s.String(), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid stage %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	st, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Value stores the stage as its wire string
func (s Stage) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot store invalid stage %d", uint8(s))
	}
	return s.String(), nil
}

// Scan reads a stage stored as text
func (s *Stage) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Stage", src)
	}
}
