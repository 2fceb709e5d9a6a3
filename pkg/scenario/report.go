package scenario

import (
	"github.com/mandelsoft/interedit/pkg/pipeline"
	"github.com/mandelsoft/interedit/pkg/sheet"
	"github.com/mandelsoft/interedit/pkg/sig"
)

// StepReport describes the outcome of a single operation.
type StepReport struct {
	Operation string       `json:"operation"`
	List      string       `json:"list,omitempty"`
	Tasks     int          `json:"tasks,omitempty"`
	Impacted  []sheet.Step `json:"impacted,omitempty"`
	Selection []string     `json:"selection,omitempty"`
	Error     string       `json:"error,omitempty"`
}

type HistoryReport struct {
	Length int `json:"length"`
	Cursor int `json:"cursor"`
}

type SystemReport struct {
	Id      int           `json:"id"`
	Staves  []sig.StaffId `json:"staves"`
	Content sig.Content   `json:"content"`
}

// Report is the final state of a session.
type Report struct {
	Name      string            `json:"name"`
	Steps     []StepReport      `json:"steps,omitempty"`
	Modified  bool              `json:"modified"`
	History   HistoryReport     `json:"history"`
	Systems   []SystemReport    `json:"systems"`
	Impacts   []pipeline.Impact `json:"impacts,omitempty"`
	Questions []string          `json:"questions,omitempty"`
}

func (s *Session) Report() *Report {
	h := s.controller.History()
	r := &Report{
		Name:      s.sheet.Name(),
		Steps:     append([]StepReport(nil), s.steps...),
		Modified:  s.sheet.IsModified(),
		History:   HistoryReport{Length: h.Len(), Cursor: h.Cursor()},
		Questions: s.prompter.Asked(),
	}
	for _, sys := range s.sheet.Systems() {
		sr := SystemReport{Id: sys.Id(), Content: sys.Graph().Content()}
		for _, st := range sys.Staves() {
			sr.Staves = append(sr.Staves, st.Id())
		}
		r.Systems = append(r.Systems, sr)
	}
	for _, st := range s.stages {
		if k, ok := st.(*pipeline.KindStage); ok {
			r.Impacts = append(r.Impacts, k.Impacts()...)
		}
	}
	return r
}
