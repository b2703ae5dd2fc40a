// Package emit turns a merged model into the native artifacts of one
// platform. Emitters only build bytes; writing them is the job of package
// artifact.
package emit

import (
	"fmt"
	"slices"
	"sync"

	"github.com/sofmeright/bravedebloat/src/channel"
	"github.com/sofmeright/bravedebloat/src/extensions"
	"github.com/sofmeright/bravedebloat/src/policy"
	"github.com/sofmeright/bravedebloat/src/prefs"
)

// Artifact is one rendered output file.
type Artifact struct {
	Name       string
	Content    []byte
	Executable bool
}

// Input is everything an emitter renders from.
type Input struct {
	Context     channel.Context
	Policies    *policy.Model
	Extensions  []extensions.Entry
	Preferences *prefs.Preferences
}

// Emitter renders the artifacts of one platform.
type Emitter interface {
	Platform() channel.Platform
	Render(in Input) ([]Artifact, error)
}

var (
	registryMu sync.RWMutex
	registry   = map[channel.Platform]func() Emitter{}
)

// Register adds an emitter constructor to the global registry.
// Called from init() in each platform file.
func Register(p channel.Platform, constructor func() Emitter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[p]; exists {
		panic(fmt.Sprintf("emit: duplicate emitter registration: %s", p))
	}
	registry[p] = constructor
}

// Get returns a new emitter for the platform.
func Get(p channel.Platform) (Emitter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[p]
	if !ok {
		return nil, fmt.Errorf("emit: no emitter for platform %s", p)
	}
	return ctor(), nil
}

// All returns the registered platforms in channel.Platforms order.
func All() []channel.Platform {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]channel.Platform, 0, len(registry))
	for _, p := range channel.Platforms {
		if _, ok := registry[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// RenderError reports a value the target format cannot encode.
type RenderError struct {
	Platform channel.Platform
	Setting  string
	Reason   string
}

func (e *RenderError) Error() string {
	if e.Setting == "" {
		return fmt.Sprintf("render %s: %s", e.Platform, e.Reason)
	}
	return fmt.Sprintf("render %s: %s: %s", e.Platform, e.Setting, e.Reason)
}

// State is the lifecycle of one render.
type State int

const (
	Unrendered State = iota
	Rendering
	Rendered
	Failed
)

func (s State) String() string {
	switch s {
	case Unrendered:
		return "unrendered"
	case Rendering:
		return "rendering"
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of Render. Artifacts is empty unless State is
// Rendered.
type Result struct {
	Context   channel.Context
	State     State
	Artifacts []Artifact
	Err       error
}

// Render runs e against in. A failed render never returns partial
// artifacts.
func Render(e Emitter, in Input) Result {
	res := Result{Context: in.Context, State: Rendering}
	if e.Platform() != in.Context.Platform {
		res.State = Failed
		res.Err = &RenderError{Platform: e.Platform(), Reason: fmt.Sprintf("context is for %s", in.Context.Platform)}
		return res
	}
	if in.Policies == nil || in.Preferences == nil {
		res.State = Failed
		res.Err = &RenderError{Platform: e.Platform(), Reason: "input has no policy or preferences model"}
		return res
	}

	artifacts, err := e.Render(in)
	if err != nil {
		res.State = Failed
		res.Err = err
		return res
	}
	res.State = Rendered
	res.Artifacts = slices.Clone(artifacts)
	return res
}
