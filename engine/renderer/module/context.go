package module

import (
	"fmt"
	"sort"
	"strings"

	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// Context is the renderer-owned state handed to every stage during Init and
// Render. Beyond the obvious references it carries the shared bind group
// assembly: during Init each stage contributes the GPU resource for every
// binding it declared in the composed program, the renderer validates the
// contributions against the program's declarations, and the resulting bind
// groups are shared by all draws of the frame.
type Context struct {
	// Driver is the GPU boundary all stages create resources through.
	Driver driver.Driver

	// Program is the shared shader program the modules composed.
	Program shader.Program

	// Camera is the view the frame renders from. Its frustum is current by
	// the time listeners run.
	Camera camera.Camera

	// Scene is the world being rendered.
	Scene scene.Scene

	// Traverser walks the scene each frame; stages register their collection
	// listeners on it during Init.
	Traverser spatial.Traverser

	bindings map[int]map[uint32]driver.BindGroupEntry
	shared   map[int]driver.BindGroupHandle
	groups   int
}

// ContributeBinding registers the GPU resource serving one binding of the
// composed program's shared bind groups. Stages call this during Init;
// AssembleSharedGroups consumes the contributions.
//
// Parameters:
//   - group: the @group index the entry belongs to
//   - entry: the binding index and resource reference
func (c *Context) ContributeBinding(group int, entry driver.BindGroupEntry) {
	if c.bindings == nil {
		c.bindings = make(map[int]map[uint32]driver.BindGroupEntry)
	}
	if c.bindings[group] == nil {
		c.bindings[group] = make(map[uint32]driver.BindGroupEntry)
	}
	c.bindings[group][entry.Binding] = entry
}

// BindingFor locates the @group/@binding pair declared for a struct type key
// in the composed program. Array bindings match their element key, so the
// lights storage array is found by the light key.
//
// Parameters:
//   - key: the struct type key (e.g. shader.AnnotationArgLight)
//
// Returns:
//   - int: the group index
//   - int: the binding index
//   - bool: false when the program declares no such binding
func (c *Context) BindingFor(key shader.AnnotationArg) (int, int, bool) {
	return findBinding(c.Program.Declarations(), key)
}

// ProviderBinding locates the @group/@binding pair of a provider declaration
// by identity and role.
//
// Parameters:
//   - identity: the provider identity (e.g. shader.AnnotationArgShadow)
//   - role: the binding role within the provider group
//
// Returns:
//   - int: the group index
//   - int: the binding index
//   - bool: false when the program declares no such provider binding
func (c *Context) ProviderBinding(identity, role shader.AnnotationArg) (int, int, bool) {
	return findProviderBinding(c.Program.Declarations(), identity, role)
}

// AssembleSharedGroups validates that every binding the composed program
// declares received a contribution, then creates one bind group per group
// index. The renderer calls this once, after all stages initialized.
//
// Returns:
//   - error: an error naming the first unserved declaration, or a bind group creation failure
func (c *Context) AssembleSharedGroups() error {
	for _, d := range c.Program.Declarations() {
		if d.Group == nil || d.Binding == nil {
			continue
		}
		group, ok := c.bindings[*d.Group]
		if !ok {
			return fmt.Errorf("no resource contributed for group %d binding %d (%s)", *d.Group, *d.Binding, d.Args[0])
		}
		if _, ok := group[uint32(*d.Binding)]; !ok {
			return fmt.Errorf("no resource contributed for group %d binding %d (%s)", *d.Group, *d.Binding, d.Args[0])
		}
	}

	c.shared = make(map[int]driver.BindGroupHandle, len(c.bindings))
	c.groups = 0
	for group, byBinding := range c.bindings {
		entries := make([]driver.BindGroupEntry, 0, len(byBinding))
		for _, e := range byBinding {
			entries = append(entries, e)
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })

		h, err := c.Driver.CreateBindGroup(driver.BindGroupDescriptor{
			Label:   fmt.Sprintf("shared group %d", group),
			Program: c.Program.Handle(),
			Group:   group,
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("failed to create shared bind group %d: %w", group, err)
		}
		c.shared[group] = h
		if group+1 > c.groups {
			c.groups = group + 1
		}
	}
	return nil
}

// SharedGroup returns the assembled bind group for a group index. Zero before
// AssembleSharedGroups or for groups nothing contributed to.
//
// Parameters:
//   - group: the @group index
//
// Returns:
//   - driver.BindGroupHandle: the shared bind group, or zero
func (c *Context) SharedGroup(group int) driver.BindGroupHandle {
	return c.shared[group]
}

// FillBindGroups writes the shared bind group set into dst, growing it as
// needed, and returns it. Draws that override one group (per-material
// textures) patch the returned slice before encoding.
//
// Parameters:
//   - dst: a scratch slice to reuse across draws, may be nil
//
// Returns:
//   - []driver.BindGroupHandle: the shared set, indexed by group
func (c *Context) FillBindGroups(dst []driver.BindGroupHandle) []driver.BindGroupHandle {
	if cap(dst) < c.groups {
		dst = make([]driver.BindGroupHandle, c.groups)
	}
	dst = dst[:c.groups]
	for i := range dst {
		dst[i] = c.shared[i]
	}
	return dst
}

// ReleaseSharedGroups destroys the assembled bind groups and forgets all
// contributions. Part of context-loss teardown.
func (c *Context) ReleaseSharedGroups() {
	for _, h := range c.shared {
		c.Driver.DestroyBindGroup(h)
	}
	c.shared = nil
	c.bindings = nil
	c.groups = 0
}

// findBinding scans binding-group declarations for a struct type key,
// matching array bindings by their element type.
func findBinding(decls []shader.Annotation, key shader.AnnotationArg) (int, int, bool) {
	for _, d := range decls {
		if d.Type != shader.AnnotationTypeBindingGroup || d.Group == nil || d.Binding == nil {
			continue
		}
		t := string(d.Args[2])
		if inner, ok := strings.CutPrefix(t, "array<"); ok {
			t = strings.TrimSuffix(inner, ">")
		}
		if shader.AnnotationArg(t) == key {
			return *d.Group, *d.Binding, true
		}
	}
	return 0, 0, false
}

// findProviderBinding scans provider declarations for an identity and role.
func findProviderBinding(decls []shader.Annotation, identity, role shader.AnnotationArg) (int, int, bool) {
	for _, d := range decls {
		if d.Type != shader.AnnotationTypeProvider || d.Group == nil || d.Binding == nil {
			continue
		}
		if d.Args[0] != identity {
			continue
		}
		if len(d.Args) > 1 && d.Args[1] == role {
			return *d.Group, *d.Binding, true
		}
	}
	return 0, 0, false
}
