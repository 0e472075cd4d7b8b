package engine

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/born-ml/graphite/internal/shapes"
)

var (
	bufferHeaderSize    = uint64(unsafe.Sizeof(Buffer{}))
	operationHeaderSize = uint64(unsafe.Sizeof(Operation{}))
)

// Stats summarizes everything an Allocator has allocated and released.
// Object headers are counted when registered, storage when initialized.
type Stats struct {
	Allocations      uint64
	Deallocations    uint64
	BytesAllocated   uint64
	BytesDeallocated uint64
	BytesInUse       uint64
}

// String renders the stats one counter per line.
func (s Stats) String() string {
	return fmt.Sprintf("total_allocations: %d\ntotal_deallocations: %d\nbytes_allocated: %d\nbytes_deallocated: %d\nbytes_currently_allocated: %d",
		s.Allocations, s.Deallocations, s.BytesAllocated, s.BytesDeallocated, s.BytesInUse)
}

// Allocator is the arena owning every Buffer and Operation of one graph
// instance. It is not safe for concurrent use.
type Allocator struct {
	id      uuid.UUID
	logger  *slog.Logger
	buffers arena[Buffer]
	ops     arena[Operation]
	stats   Stats
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger used for teardown diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logger
	}
}

// NewAllocator creates an empty allocator.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		id:     uuid.New(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("allocator", a.id.String())
	return a
}

// ID returns the allocator's identity.
func (a *Allocator) ID() uuid.UUID {
	return a.id
}

// Logger returns the allocator's logger.
func (a *Allocator) Logger() *slog.Logger {
	return a.logger
}

// Stats returns a snapshot of the allocation counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}

// LiveBuffers returns the number of registered buffers not yet freed.
func (a *Allocator) LiveBuffers() int {
	return a.buffers.live
}

// LiveOperations returns the number of registered operations not yet freed.
func (a *Allocator) LiveOperations() int {
	return a.ops.live
}

// LogStats writes the counters to the allocator's logger at Info level.
func (a *Allocator) LogStats() {
	a.logger.Info("allocator stats",
		"allocations", a.stats.Allocations,
		"deallocations", a.stats.Deallocations,
		"bytes_allocated", a.stats.BytesAllocated,
		"bytes_deallocated", a.stats.BytesDeallocated,
		"bytes_in_use", a.stats.BytesInUse,
		"live_buffers", a.buffers.live,
		"live_operations", a.ops.live,
	)
}

// NewBuffer registers an uninitialized buffer.
func (a *Allocator) NewBuffer(shape shapes.Shape, dtype shapes.DataType) *Buffer {
	if err := shape.Validate(); err != nil {
		panic(errors.Wrap(err, "buffer: invalid shape"))
	}
	if !dtype.Valid() {
		panic(errors.Errorf("buffer: bad data type %d", int(dtype)))
	}

	b := &Buffer{
		alloc: a,
		dtype: dtype,
		shape: shape.Clone(),
	}
	b.id = BufferID{a.buffers.insert(b)}
	a.charge(bufferHeaderSize)
	return b
}

// NewBufferLike registers a buffer with src's shape and dtype. When src is
// initialized its data is copied.
func (a *Allocator) NewBufferLike(src *Buffer) *Buffer {
	b := a.NewBuffer(src.shape, src.dtype)
	if src.Initialized() {
		b.CopyFrom(src)
	}
	return b
}

// NewCastBuffer registers an uninitialized buffer with src's shape and a new
// dtype. No data is copied.
func (a *Allocator) NewCastBuffer(src *Buffer, dtype shapes.DataType) *Buffer {
	return a.NewBuffer(src.shape, dtype)
}

// Buffer resolves id. The second result is false when the buffer was freed.
func (a *Allocator) Buffer(id BufferID) (*Buffer, bool) {
	return a.buffers.get(id.handle)
}

// Operation resolves id. The second result is false when the operation was freed.
func (a *Allocator) Operation(id OpID) (*Operation, bool) {
	return a.ops.get(id.handle)
}

// OwnsBuffer reports whether b is a live buffer of this allocator.
func (a *Allocator) OwnsBuffer(b *Buffer) bool {
	got, ok := a.buffers.get(b.id.handle)
	return ok && got == b
}

// OwnsOperation reports whether op is a live operation of this allocator.
func (a *Allocator) OwnsOperation(op *Operation) bool {
	got, ok := a.ops.get(op.id.handle)
	return ok && got == op
}

// FreeBuffer releases b's storage and its slot. Freeing a buffer that is no
// longer live is a logged no-op.
func (a *Allocator) FreeBuffer(b *Buffer) {
	if !a.OwnsBuffer(b) {
		a.logger.Warn("free of buffer that is not live", "buffer", b.id.String())
		return
	}

	released := bufferHeaderSize + uint64(len(b.data))
	b.data = nil
	b.owners = 0
	a.buffers.remove(b.id.handle)
	a.discharge(released)
}

// SetOutput rebinds op's output to b, keeping owner counts exact. The
// previous output is freed when op was its last owner.
func (a *Allocator) SetOutput(op *Operation, b *Buffer) {
	if !a.OwnsBuffer(b) {
		panic(errors.Errorf("allocator: output buffer %s is not live", b.id))
	}
	prev := op.Output()
	if prev == b {
		return
	}
	b.owners++
	op.output = b.id
	a.release(prev)
}

// Detach moves op onto a private copy of its current output. The copy keeps
// the recorded writer, so a computed op still reads as its own result.
func (a *Allocator) Detach(op *Operation) {
	out := op.Output()
	b := a.NewBufferLike(out)
	b.writer = out.writer
	a.SetOutput(op, b)
}

// FreeOperation releases op alone: its slot, its claim on its output buffer
// and its consumer claims on its operands. It returns the operands that are
// left without consumers.
func (a *Allocator) FreeOperation(op *Operation) []*Operation {
	if !a.OwnsOperation(op) {
		a.logger.Warn("free of operation that is not live", "operation", op.id.String(), "kind", op.kind.String())
		return nil
	}

	var orphans []*Operation
	for _, id := range op.operands {
		parent, ok := a.ops.get(id.handle)
		if !ok {
			continue
		}
		parent.consumers--
		if parent.consumers == 0 {
			orphans = append(orphans, parent)
		}
	}

	if out, ok := a.buffers.get(op.output.handle); ok {
		a.release(out)
	}

	a.ops.remove(op.id.handle)
	a.discharge(operationHeaderSize)
	return orphans
}

// UprootOperation frees op and every ancestor that no other live operation
// consumes. Shared ancestors and their buffers survive.
func (a *Allocator) UprootOperation(op *Operation) {
	if !a.OwnsOperation(op) {
		a.logger.Warn("uproot of operation that is not live", "operation", op.id.String())
		return
	}
	if op.consumers > 0 {
		a.logger.Warn("uprooting operation that still has consumers",
			"operation", op.id.String(), "kind", op.kind.String(), "consumers", op.consumers)
	}

	freedOps := 0
	stack := []*Operation{op}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !a.OwnsOperation(n) {
			continue
		}
		stack = append(stack, a.FreeOperation(n)...)
		freedOps++
	}

	a.logger.Debug("uprooted operation", "operations_freed", freedOps,
		"live_operations", a.ops.live, "live_buffers", a.buffers.live)
}

// Uproot frees every buffer and operation the allocator tracks.
func (a *Allocator) Uproot() {
	ops, bufs := a.ops.live, a.buffers.live

	a.ops.each(func(h handle, _ *Operation) {
		a.ops.remove(h)
		a.discharge(operationHeaderSize)
	})
	a.buffers.each(func(h handle, b *Buffer) {
		released := bufferHeaderSize + uint64(len(b.data))
		b.data = nil
		b.owners = 0
		a.buffers.remove(h)
		a.discharge(released)
	})

	a.logger.Debug("uprooted allocator", "operations_freed", ops, "buffers_freed", bufs)
}

// allocate gives b zeroed storage.
func (a *Allocator) allocate(b *Buffer) {
	if !a.OwnsBuffer(b) {
		panic(errors.Errorf("allocator: initialize of buffer %s that is not live", b.id))
	}
	b.data = make([]byte, b.ByteSize())
	a.stats.BytesAllocated += uint64(len(b.data))
	a.stats.BytesInUse += uint64(len(b.data))
}

// release drops one owner claim on b, freeing it when none remain.
func (a *Allocator) release(b *Buffer) {
	b.owners--
	if b.owners <= 0 {
		a.FreeBuffer(b)
	}
}

func (a *Allocator) charge(bytes uint64) {
	a.stats.Allocations++
	a.stats.BytesAllocated += bytes
	a.stats.BytesInUse += bytes
}

func (a *Allocator) discharge(bytes uint64) {
	a.stats.Deallocations++
	a.stats.BytesDeallocated += bytes
	a.stats.BytesInUse -= bytes
}
