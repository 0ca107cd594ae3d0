// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package lot

import (
	"container/heap"
	"sort"

	"github.com/shopspring/decimal"
)

// lotHeap is a min-heap of lots ordered by (AcquiredAt, seq).
type lotHeap []Lot

func (h lotHeap) Len() int           { return len(h) }
func (h lotHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h lotHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *lotHeap) Push(x any) { *h = append(*h, x.(Lot)) }

func (h *lotHeap) Pop() any {
	old := *h
	n := len(old)
	l := old[n-1]
	*h = old[:n-1]
	return l
}

// Book is the FIFO queue of open lots for one token. The sum of remaining
// volumes always equals acquired minus consumed volume, and the book never
// holds a lot with volume <= 0. A Book is not safe for concurrent use.
type Book struct {
	lots     lotHeap
	seq      uint64
	total    decimal.Decimal
	acquired decimal.Decimal
	consumed decimal.Decimal
}

func NewBook() *Book {
	return &Book{}
}

// Add inserts l in O(log n). Lots without positive volume are ignored.
func (b *Book) Add(l Lot) {
	if !l.Volume.IsPositive() {
		return
	}
	b.seq++
	l.seq = b.seq
	heap.Push(&b.lots, l)
	b.total = b.total.Add(l.Volume)
	b.acquired = b.acquired.Add(l.Volume)
}

// Consume removes volume from the oldest lots first and returns one
// Consumption per lot touched, oldest first. The second return value is the
// volume that could not be matched; it is zero unless the book ran dry.
func (b *Book) Consume(volume decimal.Decimal) ([]Consumption, decimal.Decimal) {
	var trail []Consumption
	remaining := volume
	for remaining.IsPositive() && b.lots.Len() > 0 {
		head := b.lots[0]
		if head.Volume.GreaterThan(remaining) {
			// Key is unchanged, so the heap stays valid without Fix.
			b.lots[0] = head.WithVolume(head.Volume.Sub(remaining))
			trail = append(trail, Consumption{
				AcquiredAt: head.AcquiredAt,
				CostBasis:  head.CostBasis,
				Volume:     remaining,
				Partial:    true,
			})
			b.take(remaining)
			remaining = decimal.Zero
			break
		}
		heap.Pop(&b.lots)
		trail = append(trail, Consumption{
			AcquiredAt: head.AcquiredAt,
			CostBasis:  head.CostBasis,
			Volume:     head.Volume,
		})
		b.take(head.Volume)
		remaining = remaining.Sub(head.Volume)
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return trail, remaining
}

func (b *Book) take(v decimal.Decimal) {
	b.total = b.total.Sub(v)
	b.consumed = b.consumed.Add(v)
}

// Remaining is the total open volume.
func (b *Book) Remaining() decimal.Decimal { return b.total }

// Acquired is the total volume ever added.
func (b *Book) Acquired() decimal.Decimal { return b.acquired }

// Consumed is the total volume removed by Consume.
func (b *Book) Consumed() decimal.Decimal { return b.consumed }

func (b *Book) Len() int { return b.lots.Len() }

// Lots returns the open lots in FIFO order. The slice is a copy.
func (b *Book) Lots() []Lot {
	out := make([]Lot, len(b.lots))
	copy(out, b.lots)
	sort.Slice(out, func(i, j int) bool { return out[i].before(out[j]) })
	return out
}
