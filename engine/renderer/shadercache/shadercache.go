// Package shadercache allocates stable slots inside fixed-capacity GPU
// uniform buffers. Shader-visible objects (lights, shadows, materials) are
// assigned an integer slot on first caching and keep it for the session;
// per-frame synchronization re-uploads only the blocks whose owners report
// themselves dirty. The owning module runs one cheap pass per frame:
//
//	if !cache.IsCached(obj) {
//		cache.Cache(obj)
//	} else if obj.Dirty() {
//		cache.Update(obj)
//	}
package shadercache

import (
	"fmt"

	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

// UnassignedSlot is the slot value of an object that is not resident in any cache.
const UnassignedSlot = -1

// Cacheable is implemented by objects that occupy a slot in a shader cache.
// The object stores its own slot assignment; UnassignedSlot marks it
// non-resident.
type Cacheable interface {
	// Slot returns the object's current slot index, or UnassignedSlot.
	//
	// Returns:
	//   - int: the slot index
	Slot() int

	// SetSlot stores a slot assignment on the object. Called by the cache only.
	//
	// Parameters:
	//   - slot: the assigned slot index, or UnassignedSlot on Clear
	SetSlot(slot int)

	// Dirty reports whether the object's CPU-side state has changed since it
	// was last uploaded.
	//
	// Returns:
	//   - bool: true if the GPU block is stale
	Dirty() bool

	// Marshal serializes the object to its GPU block layout. The result must
	// be exactly the cache's block size.
	//
	// Returns:
	//   - []byte: the GPU-ready block
	Marshal() []byte
}

// Cache assigns slots in a GPU buffer to Cacheable objects and pushes their
// marshaled blocks to slot*blockSize offsets. Capacity is fixed at
// construction; exceeding it is a configuration panic, as is updating an
// object that was never cached.
type Cache interface {
	// Cache makes an object resident. A non-resident object receives the next
	// free slot and its block is uploaded. Caching an already-resident object
	// re-uploads its block at its existing slot, so Cache is idempotent.
	// Panics when a new object would exceed capacity.
	//
	// Parameters:
	//   - obj: the object to make resident
	Cache(obj Cacheable)

	// Update re-uploads the block of an already-resident object. Panics when
	// the object was never cached.
	//
	// Parameters:
	//   - obj: the resident object to re-upload
	Update(obj Cacheable)

	// IsCached reports whether an object is resident.
	//
	// Parameters:
	//   - obj: the object to test
	//
	// Returns:
	//   - bool: true if the object holds a slot in this cache
	IsCached(obj Cacheable) bool

	// NumCached returns the number of resident objects.
	//
	// Returns:
	//   - int: the occupancy count
	NumCached() int

	// Capacity returns the fixed slot capacity.
	//
	// Returns:
	//   - int: the capacity
	Capacity() int

	// Clear evicts every resident object, setting each object's slot to
	// UnassignedSlot and resetting slot allocation to zero. GPU memory is not
	// zeroed; stale blocks are overwritten as objects are re-cached.
	Clear()
}

type cache struct {
	drv       driver.Driver
	buffer    driver.BufferHandle
	capacity  int
	blockSize int

	next     int
	resident map[Cacheable]struct{}
}

var _ Cache = &cache{}

// NewCache creates a slot cache over a GPU buffer. The buffer must hold at
// least capacity*blockSize bytes.
//
// Parameters:
//   - drv: the driver the cache writes through
//   - buffer: the GPU buffer blocks are uploaded into
//   - capacity: the fixed number of slots
//   - blockSize: the byte size of one marshaled block
//
// Returns:
//   - Cache: the empty cache
func NewCache(drv driver.Driver, buffer driver.BufferHandle, capacity, blockSize int) Cache {
	if drv == nil {
		panic("shadercache: NewCache requires a non-nil driver")
	}
	if capacity <= 0 {
		panic(fmt.Sprintf("shadercache: capacity must be positive, got %d", capacity))
	}
	if blockSize <= 0 {
		panic(fmt.Sprintf("shadercache: block size must be positive, got %d", blockSize))
	}
	return &cache{
		drv:       drv,
		buffer:    buffer,
		capacity:  capacity,
		blockSize: blockSize,
		resident:  make(map[Cacheable]struct{}, capacity),
	}
}

func (c *cache) Cache(obj Cacheable) {
	if _, ok := c.resident[obj]; ok {
		c.upload(obj)
		return
	}
	if len(c.resident) >= c.capacity {
		panic(fmt.Sprintf("shadercache: capacity %d exceeded", c.capacity))
	}
	obj.SetSlot(c.next)
	c.next++
	c.resident[obj] = struct{}{}
	c.upload(obj)
}

func (c *cache) Update(obj Cacheable) {
	if _, ok := c.resident[obj]; !ok {
		panic("shadercache: Update called on an object that was never cached")
	}
	c.upload(obj)
}

func (c *cache) upload(obj Cacheable) {
	data := obj.Marshal()
	if len(data) != c.blockSize {
		panic(fmt.Sprintf("shadercache: marshaled block is %d bytes, cache expects %d", len(data), c.blockSize))
	}
	c.drv.WriteBuffer(c.buffer, uint64(obj.Slot())*uint64(c.blockSize), data)
}

func (c *cache) IsCached(obj Cacheable) bool {
	_, ok := c.resident[obj]
	return ok
}

func (c *cache) NumCached() int {
	return len(c.resident)
}

func (c *cache) Capacity() int {
	return c.capacity
}

func (c *cache) Clear() {
	for obj := range c.resident {
		obj.SetSlot(UnassignedSlot)
	}
	clear(c.resident)
	c.next = 0
}
