// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

// buffer is a byte sink with a fixed capacity seeded at construction; its
// length never exceeds capacity (spec.md §3 invariant 1). It is allocated
// once and never reallocated during normal operation (spec.md §5).
type buffer struct {
	data []byte
	cap  int
}

func newBuffer(capacity int) *buffer {
	return &buffer{data: make([]byte, 0, capacity), cap: capacity}
}

func (b *buffer) len() int      { return len(b.data) }
func (b *buffer) capacity() int { return b.cap }
func (b *buffer) bytes() []byte { return b.data }

// append grows the buffer in place. The caller is responsible for checking
// capacity beforehand (Sender.Emit does this per spec.md §4.4 step 3).
func (b *buffer) append(p []byte) { b.data = append(b.data, p...) }

func (b *buffer) clear() { b.data = b.data[:0] }
