// Package plan implements the section planner: it turns one content
// item plus a per-type timing table into the ordered section timeline
// a video is built from. Planning is pure and deterministic; the only
// later adjustment is Reconcile, which folds the measured narration
// length back into the timeline.
package plan

import (
	"fmt"

	"github.com/basilkensington1-hash/kiin-content-sub002/internal/content"
	"github.com/basilkensington1-hash/kiin-content-sub002/internal/textx"
	kiinerrors "github.com/basilkensington1-hash/kiin-content-sub002/pkg/core/errors"
)

// SectionName identifies the role of a section in the timeline
type SectionName string

const (
	SectionHook       SectionName = "hook"
	SectionTransition SectionName = "transition"
	SectionBody       SectionName = "body"
	SectionClosing    SectionName = "closing"
)

// Section is one titled, fixed-duration segment of the video
type Section struct {
	Name     SectionName
	Text     string
	Duration float64 // seconds, always > 0
}

// Timing is the per-type duration table in seconds. Transition of 0
// means no transition slide is planned.
type Timing struct {
	Hook       float64
	Transition float64
	Body       float64
	Closing    float64
}

// Spec carries everything the planner needs for one content type
type Spec struct {
	Timing         Timing
	TransitionText string
}

// Plan is the ordered section timeline for one video
type Plan struct {
	Sections []Section
}

// Build derives the section timeline for an item. Sections appear in
// fixed order (hook, optional transition, body, closing); blank body
// or closing text still yields a section so the visual rhythm stays
// constant across items. When the item sets a duration target the
// whole table is scaled proportionally to hit it.
func Build(item content.Item, spec Spec) (Plan, error) {
	if spec.Timing.Hook <= 0 || spec.Timing.Body <= 0 || spec.Timing.Closing <= 0 {
		return Plan{}, kiinerrors.New("timing table has non-positive section durations").
			WithCode(kiinerrors.CodeInvalidConfig).
			WithDetail("timing", fmt.Sprintf("%+v", spec.Timing))
	}

	sections := []Section{
		{Name: SectionHook, Text: textx.CollapseWhitespace(item.Hook), Duration: spec.Timing.Hook},
	}

	if !textx.IsBlank(spec.TransitionText) {
		if spec.Timing.Transition <= 0 {
			return Plan{}, kiinerrors.New("transition text configured without a positive transition duration").
				WithCode(kiinerrors.CodeInvalidConfig)
		}
		sections = append(sections, Section{
			Name:     SectionTransition,
			Text:     textx.CollapseWhitespace(spec.TransitionText),
			Duration: spec.Timing.Transition,
		})
	}

	sections = append(sections,
		Section{Name: SectionBody, Text: textx.CollapseWhitespace(item.Body), Duration: spec.Timing.Body},
		Section{Name: SectionClosing, Text: textx.CollapseWhitespace(item.Closing), Duration: spec.Timing.Closing},
	)

	p := Plan{Sections: sections}

	if item.DurationTarget > 0 {
		scale := item.DurationTarget / p.Total()
		for i := range p.Sections {
			p.Sections[i].Duration *= scale
		}
	}

	return p, nil
}

// Total returns the summed duration of all sections in seconds
func (p Plan) Total() float64 {
	var total float64
	for _, s := range p.Sections {
		total += s.Duration
	}
	return total
}

// Script joins the section texts into the narration script, in
// timeline order. Blank sections contribute nothing.
func (p Plan) Script() string {
	texts := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		texts = append(texts, s.Text)
	}
	return textx.JoinSentences(texts...)
}

// Reconcile adjusts the timeline to the measured narration duration by
// stretching or shrinking the last section, never below minSection.
// The returned plan is a copy; the bool reports whether anything
// changed. Residual drift after clamping stays in place instead of
// cascading into earlier sections; output verification tolerates it.
func (p Plan) Reconcile(measured, minSection float64) (Plan, bool) {
	if measured <= 0 || len(p.Sections) == 0 {
		return p.clone(), false
	}

	total := p.Total()
	delta := measured - total
	if delta == 0 {
		return p.clone(), false
	}

	out := p.clone()
	last := &out.Sections[len(out.Sections)-1]

	adjusted := last.Duration + delta
	if adjusted < minSection {
		adjusted = minSection
	}
	if adjusted == last.Duration {
		return out, false
	}

	last.Duration = adjusted
	return out, true
}

func (p Plan) clone() Plan {
	sections := make([]Section, len(p.Sections))
	copy(sections, p.Sections)
	return Plan{Sections: sections}
}
