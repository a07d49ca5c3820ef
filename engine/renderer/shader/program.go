// program.go implements the shared shader program: rendering modules
// contribute named WGSL fragments during their build phase, and the renderer
// compiles the composed source once through the driver. Composition runs the
// fragments through the annotation pre-processor, then parses entry points,
// vertex buffer layouts, and bind group layout descriptors from the processed
// WGSL so callers never write layout descriptors by hand.
package shader

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

// fragment is one named WGSL source snippet registered on a program.
type fragment struct {
	name   string
	source string
}

// program is the implementation of the Program interface.
type program struct {
	label     string
	fragments []fragment
	pp        PreProcessor
	compiled  bool

	source        string
	declarations  []Annotation
	vertexEntry   string
	fragmentEntry string
	groupLayouts  map[int]wgpu.BindGroupLayoutDescriptor
	vertexLayouts []wgpu.VertexBufferLayout
	handle        driver.ProgramHandle
}

// Program composes WGSL fragments into one GPU shader program. Fragments are
// concatenated in registration order, so a fragment may reference structs,
// bindings, and functions declared by fragments registered before it.
//
// A program moves through two states: open (fragments may be added) and
// compiled. Adding a fragment to a compiled program is a caller ordering bug
// and panics; context-loss recovery builds a fresh program rather than
// reopening an old one.
type Program interface {
	// AddFragment registers a named WGSL source snippet. Fragment names exist
	// for diagnostics and duplicate detection; they do not appear in the
	// composed source. Panics if the program is already compiled or the name
	// is already registered.
	//
	// Parameters:
	//   - name: the unique fragment name
	//   - source: the raw WGSL snippet, may contain @helio: annotations
	AddFragment(name, source string)

	// Compile concatenates the registered fragments in registration order,
	// runs the annotation pre-processor over the composed source, parses the
	// entry points, vertex buffer layouts, and bind group layout descriptors
	// from the processed WGSL, and creates the GPU program through the
	// driver. Compile and link failures surface the underlying API's message
	// in the returned error. Panics when called twice.
	//
	// Parameters:
	//   - drv: the driver to compile through
	//
	// Returns:
	//   - error: an error if pre-processing, parsing, or compilation failed
	Compile(drv driver.Driver) error

	// Declarations returns the binding and provider declarations collected
	// during Compile, in source order. Nil before Compile. The renderer uses
	// these to wire GPU resources to bind groups semantically.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation

	// BindGroupLayoutDescriptors returns the bind group layout descriptors
	// parsed from the composed source, keyed by group index. Nil before
	// Compile.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts parsed from the
	// composed source, in source order. Nil before Compile.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the parsed vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// VertexEntry returns the first @vertex entry point name in the composed
	// source. Pipelines that need a different entry name it explicitly.
	//
	// Returns:
	//   - string: the default vertex entry point, empty before Compile
	VertexEntry() string

	// FragmentEntry returns the first @fragment entry point name in the
	// composed source, or empty for depth-only programs.
	//
	// Returns:
	//   - string: the default fragment entry point
	FragmentEntry() string

	// Source returns the composed, pre-processed WGSL. Empty before Compile.
	//
	// Returns:
	//   - string: the final source the driver compiled
	Source() string

	// Compiled reports whether Compile has succeeded.
	//
	// Returns:
	//   - bool: true once the program holds a live GPU handle
	Compiled() bool

	// Handle returns the compiled program's driver handle. Zero before Compile.
	//
	// Returns:
	//   - driver.ProgramHandle: the GPU program handle
	Handle() driver.ProgramHandle
}

var _ Program = &program{}

// NewProgram creates an empty, open program.
//
// Parameters:
//   - label: a debug label attached to the compiled GPU objects
//
// Returns:
//   - Program: the new program, ready for AddFragment
func NewProgram(label string) Program {
	return &program{
		label: label,
		pp:    NewPreProcessor(),
	}
}

func (p *program) AddFragment(name, source string) {
	if p.compiled {
		panic("shader: AddFragment called after Compile")
	}
	for _, f := range p.fragments {
		if f.name == name {
			panic(fmt.Sprintf("shader: duplicate fragment %q", name))
		}
	}
	p.fragments = append(p.fragments, fragment{name: name, source: source})
}

func (p *program) Compile(drv driver.Driver) error {
	if drv == nil {
		panic("shader: Compile requires a non-nil driver")
	}
	if p.compiled {
		panic("shader: Compile called twice")
	}
	if len(p.fragments) == 0 {
		return fmt.Errorf("program %q has no fragments", p.label)
	}

	var sb strings.Builder
	for i, f := range p.fragments {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.source)
	}

	processed, err := p.pp.Process(sb.String())
	if err != nil {
		return fmt.Errorf("failed to pre-process program %q: %w", p.label, err)
	}

	vertexEntry := parseVertexEntry(processed)
	if vertexEntry == "" {
		return fmt.Errorf("program %q declares no @vertex entry point", p.label)
	}
	fragmentEntry := parseFragmentEntry(processed)

	visibility := wgpu.ShaderStageVertex
	if fragmentEntry != "" {
		visibility |= wgpu.ShaderStageFragment
	}
	groupLayouts := parseBindGroupLayouts(processed, visibility)
	vertexLayouts := parseVertexLayouts(processed)

	handle, err := drv.CreateProgram(driver.ProgramDescriptor{
		Label:            p.label,
		Source:           processed,
		VertexEntry:      vertexEntry,
		FragmentEntry:    fragmentEntry,
		BindGroupLayouts: groupLayouts,
		VertexLayouts:    vertexLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to compile program %q: %w", p.label, err)
	}

	p.source = processed
	p.declarations = append([]Annotation(nil), p.pp.Declarations()...)
	p.vertexEntry = vertexEntry
	p.fragmentEntry = fragmentEntry
	p.groupLayouts = groupLayouts
	p.vertexLayouts = vertexLayouts
	p.handle = handle
	p.compiled = true
	return nil
}

func (p *program) Declarations() []Annotation {
	return p.declarations
}

func (p *program) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.groupLayouts
}

func (p *program) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *program) VertexEntry() string {
	return p.vertexEntry
}

func (p *program) FragmentEntry() string {
	return p.fragmentEntry
}

func (p *program) Source() string {
	return p.source
}

func (p *program) Compiled() bool {
	return p.compiled
}

func (p *program) Handle() driver.ProgramHandle {
	return p.handle
}
