// Package report renders a completed, scored encounter as a PDF for
// download or instructor review.
package report

import (
	"bytes"
	"fmt"

	"github.com/signintech/gopdf"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
)

// defaultFontPaths are probed in order for a usable TTF font.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
}

// Renderer produces encounter report PDFs.
type Renderer struct {
	fontPaths []string
}

// NewRenderer creates a renderer. Extra font paths take precedence over
// the built-in probe list.
func NewRenderer(fontPaths ...string) *Renderer {
	return &Renderer{fontPaths: append(fontPaths, defaultFontPaths...)}
}

// Render produces the PDF bytes for a scored encounter.
func (r *Renderer) Render(sess *encounter.Session, def *clinicalcase.Definition) ([]byte, error) {
	if sess.Feedback == nil {
		return nil, fmt.Errorf("encounter %s has no feedback to render", sess.ID)
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := r.loadFont(&pdf); err != nil {
		return nil, err
	}

	if err := pdf.SetFont("report", "", 18); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Encounter Report")
	pdf.Br(26)

	if err := pdf.SetFont("report", "", 11); err != nil {
		return nil, err
	}
	for _, line := range Lines(sess, def) {
		if line == "" {
			pdf.Br(12)
			continue
		}
		wrapped, err := pdf.SplitText(line, 500)
		if err != nil {
			wrapped = []string{line}
		}
		for _, l := range wrapped {
			pdf.Cell(nil, l)
			pdf.Br(14)
		}
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range r.fontPaths {
		if err := pdf.AddTTFFont("report", path); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("no usable TTF font found: %w", lastErr)
}

// Lines builds the textual report body. An empty string marks a
// paragraph break. Split out so tests don't need a font installed.
func Lines(sess *encounter.Session, def *clinicalcase.Definition) []string {
	rep := sess.Feedback
	lines := []string{
		fmt.Sprintf("Case: %s (%s)", def.Title, def.ID),
		fmt.Sprintf("Patient: %s, %d, %s", def.Patient.Name, def.Patient.Age, def.Patient.Gender),
		fmt.Sprintf("Session: %s, level %d, %d turns", sess.ID, sess.Level, sess.CurrentTurn),
		"",
		fmt.Sprintf("Summary score: %d / 100", rep.SummaryScore),
		fmt.Sprintf("Diagnosis: %d / 20, intervention %d / 5", rep.Scores.Diagnosis, rep.Scores.Intervention),
		fmt.Sprintf("Critical actions: %d / 25", rep.Scores.CriticalActions),
		fmt.Sprintf("Communication: %d / 20", rep.Scores.Communication),
		fmt.Sprintf("Efficiency: %d / 30", rep.Scores.Efficiency),
	}

	if rep.Timing.TimeLimitSec > 0 {
		lines = append(lines, fmt.Sprintf(
			"Time: %ds of %ds (%.1f%%)",
			rep.Timing.ActualDurationSec, rep.Timing.TimeLimitSec, rep.Timing.TimeUsedPercent))
	}
	if sess.SubmittedDiagnosis != "" {
		lines = append(lines, "Submitted: "+sess.SubmittedDiagnosis)
	}

	lines = append(lines, "", "What went well:")
	for _, item := range rep.WhatWentWell {
		lines = append(lines, "- "+item)
	}
	if len(rep.Missed) > 0 {
		lines = append(lines, "", "Missed:")
		for _, item := range rep.Missed {
			lines = append(lines, "- "+item)
		}
	}
	if len(rep.RedFlagsMissed) > 0 {
		lines = append(lines, "", "Red flags missed:")
		for _, item := range rep.RedFlagsMissed {
			lines = append(lines, "- "+item)
		}
	}
	lines = append(lines, "", "Recommendations:")
	for _, item := range rep.Recommendations {
		lines = append(lines, "- "+item)
	}

	return lines
}
