package advisory

import (
	"context"
	"sync"

	"github.com/jon4hz/codevault/internal/catalog"
)

// View is the advisory state of one opened project detail view.
//
// The guide and the command explanation are each fetched at most once per view.
// Concurrent callers wait for the single in-flight request. A new view fetches again.
type View struct {
	advisor *Advisor
	project catalog.Project
	command string

	guide       memo
	explanation memo
}

type memo struct {
	once  sync.Once
	mu    sync.RWMutex
	value string
	done  bool
}

func (m *memo) get(fetch func() string) string {
	m.once.Do(func() {
		v := fetch()
		m.mu.Lock()
		m.value = v
		m.done = true
		m.mu.Unlock()
	})
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

func (m *memo) loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}

// NewView opens a detail view for p whose download command is command.
func (a *Advisor) NewView(p catalog.Project, command string) *View {
	return &View{
		advisor: a,
		project: p,
		command: command,
	}
}

// Project returns the project shown by the view.
func (v *View) Project() catalog.Project {
	return v.project
}

// Command returns the download command shown by the view.
func (v *View) Command() string {
	return v.command
}

// Guide returns the study guide, fetching it on first use.
func (v *View) Guide(ctx context.Context) string {
	return v.guide.get(func() string {
		return v.advisor.StudyGuide(ctx, v.project)
	})
}

// GuideLoaded reports whether the study guide has been fetched.
func (v *View) GuideLoaded() bool {
	return v.guide.loaded()
}

// Explanation returns the explanation of the download command, fetching it on first use.
func (v *View) Explanation(ctx context.Context) string {
	return v.explanation.get(func() string {
		return v.advisor.ExplainCommand(ctx, v.command)
	})
}

// ExplanationLoaded reports whether the command explanation has been fetched.
func (v *View) ExplanationLoaded() bool {
	return v.explanation.loaded()
}
