package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/models"
)

// ErrParse marks input that is not a readable Alpha Progression export.
var ErrParse = errors.New("malformed export")

const (
	columnHeader  = "#;KG;REPS;RIR"
	sessionLayout = "2006-01-02 15:04"
	fieldSep      = " · "
)

// Session is one workout from an Alpha Progression CSV export. Exercises hold
// working sets only; warm-ups are counted in WarmupSets and discarded.
type Session struct {
	Name       string
	Date       time.Time
	Duration   string
	Exercises  []models.ExerciseInput
	WarmupSets int
}

// Input converts the session to a workout payload. Exercises that had only
// warm-ups are left out.
func (s Session) Input() models.WorkoutInput {
	in := models.WorkoutInput{
		Date:  s.Date.Format(models.DateLayout),
		Notes: s.Name,
	}
	if s.Duration != "" {
		in.Notes = fmt.Sprintf("%s (%s)", s.Name, s.Duration)
	}
	for _, ex := range s.Exercises {
		if len(ex.Sets) > 0 {
			in.Exercises = append(in.Exercises, ex)
		}
	}
	return in
}

// parser accumulates sessions line by line.
type parser struct {
	sessions []Session
	session  *Session
	lineNo   int
}

// Parse reads an Alpha Progression CSV export. Errors wrap ErrParse.
func Parse(r io.Reader) ([]Session, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lineNo++
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("%w: line %d too long", ErrParse, p.lineNo+1)
		}
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

func (p *parser) fail(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrParse, p.lineNo, fmt.Sprintf(format, args...))
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		// blank line ends a session
		p.closeSession()
		return nil
	case line == columnHeader:
		return nil
	case strings.HasPrefix(line, `"`):
		return p.header(quotedFields(line))
	default:
		return p.set(line)
	}
}

// header handles quoted lines: session headers carry a "<date> h" second
// field, exercise headers start with "<n>. ".
func (p *parser) header(fields []string) error {
	if len(fields) == 3 && strings.HasSuffix(fields[1], " h") {
		p.closeSession()
		raw := strings.TrimSpace(strings.TrimSuffix(fields[1], " h"))
		date, err := time.Parse(sessionLayout, raw)
		if err != nil {
			return p.fail("session date %q", raw)
		}
		p.session = &Session{Name: fields[0], Date: date, Duration: fields[2]}
		return nil
	}

	name, ok := exerciseName(fields[0])
	if !ok {
		// notes and other free text
		return nil
	}
	if p.session == nil {
		return p.fail("exercise %q outside a session", name)
	}
	p.session.Exercises = append(p.session.Exercises, models.ExerciseInput{
		Name:     name,
		Category: string(InferCategory(name)),
	})
	if len(fields) > 1 {
		p.session.WarmupSets += countWarmups(fields[1])
	}
	return nil
}

// set handles a "#;KG;REPS;RIR" row. The RIR column is not kept.
func (p *parser) set(line string) error {
	cols := strings.Split(line, ";")
	if len(cols) != 4 {
		return nil
	}
	if _, err := strconv.Atoi(cols[0]); err != nil {
		return nil
	}
	if p.session == nil || len(p.session.Exercises) == 0 {
		return p.fail("set row %q outside an exercise", line)
	}

	weight, err := parseLoad(cols[1])
	if err != nil {
		return p.fail("weight %q", cols[1])
	}
	reps, err := strconv.Atoi(strings.TrimSpace(cols[2]))
	if err != nil {
		return p.fail("reps %q", cols[2])
	}

	ex := &p.session.Exercises[len(p.session.Exercises)-1]
	ex.Sets = append(ex.Sets, models.SetInput{
		SetNumber: len(ex.Sets) + 1,
		Reps:      reps,
		Weight:    weight,
	})
	return nil
}

func (p *parser) closeSession() {
	if p.session != nil {
		p.sessions = append(p.sessions, *p.session)
		p.session = nil
	}
}

// quotedFields splits `"a";"b";"c"` into its unquoted fields.
func quotedFields(line string) []string {
	parts := strings.Split(line, `";"`)
	for i, part := range parts {
		parts[i] = strings.Trim(part, `"`)
	}
	return parts
}

// exerciseName extracts "Bench Press" from "1. Bench Press · Barbell · 6 reps".
func exerciseName(field string) (string, bool) {
	num, rest, ok := strings.Cut(field, ". ")
	if !ok {
		return "", false
	}
	if _, err := strconv.Atoi(num); err != nil {
		return "", false
	}
	name, _, _ := strings.Cut(rest, fieldSep)
	name = strings.TrimSpace(name)
	return name, name != ""
}

// countWarmups counts "WU<n> · ..." entries in a <br>-joined warm-up note.
func countWarmups(note string) int {
	n := 0
	for _, part := range strings.Split(note, "<br>") {
		if strings.HasPrefix(strings.TrimSpace(part), "WU") {
			n++
		}
	}
	return n
}

// parseLoad reads a KG cell with a decimal comma. Bodyweight exercises are
// written "+35": only the added 35 kg is recorded, so a bodyweight set adds
// reps × added load to volume and "+0" adds nothing.
func parseLoad(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
