package emit

import (
	"strconv"
	"strings"
)

// writer builds indented source text line by line.
type writer struct {
	b      strings.Builder
	indent int
	step   string
}

func newWriter(step string) *writer {
	return &writer{step: step}
}

func (w *writer) line(s string) {
	if s != "" {
		for i := 0; i < w.indent; i++ {
			w.b.WriteString(w.step)
		}
		w.b.WriteString(s)
	}
	w.b.WriteString("\n")
}

func (w *writer) in()  { w.indent++ }
func (w *writer) out() { w.indent-- }

func (w *writer) String() string {
	return w.b.String()
}

// scopes maps source names to emitted names, renaming on redeclaration so
// targets without native shadowing stay well-formed. Frames mirror source
// block nesting.
type scopes struct {
	frames []map[string]string
	used   map[string]int
}

func newScopes() *scopes {
	return &scopes{
		frames: []map[string]string{{}},
		used:   make(map[string]int),
	}
}

func (s *scopes) push() {
	s.frames = append(s.frames, map[string]string{})
}

func (s *scopes) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// bind introduces name in the innermost frame and returns the emitted
// name, unique within the whole emission unit.
func (s *scopes) bind(name string) string {
	n := s.used[name]
	s.used[name]++

	emitted := name
	if n > 0 {
		emitted = name + "_" + strconv.Itoa(n)
	}
	s.frames[len(s.frames)-1][name] = emitted
	return emitted
}

// lookup finds the emitted name for a source name, innermost frame first.
func (s *scopes) lookup(name string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if emitted, ok := s.frames[i][name]; ok {
			return emitted, true
		}
	}
	return "", false
}

// resolve finds the emitted name for a source name, innermost frame first.
// Unknown names pass through unchanged.
func (s *scopes) resolve(name string) string {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if emitted, ok := s.frames[i][name]; ok {
			return emitted
		}
	}
	return name
}
