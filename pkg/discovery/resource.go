// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/optional"
	"github.com/cespare/xxhash"
)

// hashSentinel replaces a computed hash of zero, which marks "not computed".
const hashSentinel uint64 = 0x9e3779b97f4a7c15

// Link holds the fields of one discovered link. It is the mutable input to
// New; Resource is the immutable result.
type Link struct {
	Path          string
	Observable    bool
	Title         optional.Optional[string]
	Interfaces    []string
	ResourceTypes []string
	Size          optional.Optional[string]
	ContentTypes  []string
}

// Resource is one discovered resource. It is immutable and safe for
// concurrent use.
type Resource struct {
	path          string
	observable    bool
	title         optional.Optional[string]
	interfaces    []string
	resourceTypes []string
	size          optional.Optional[string]
	contentTypes  []string

	hash atomic.Uint64
}

// New creates a resource from l. The path is required.
func New(l Link) (*Resource, error) {
	if l.Path == "" {
		return nil, fmt.Errorf("%w: missing path", errors.ErrInvalidLink)
	}
	return &Resource{
		path:          l.Path,
		observable:    l.Observable,
		title:         l.Title,
		interfaces:    slices.Clone(l.Interfaces),
		resourceTypes: slices.Clone(l.ResourceTypes),
		size:          l.Size,
		contentTypes:  slices.Clone(l.ContentTypes),
	}, nil
}

// Path returns the resource path.
func (r *Resource) Path() string {
	return r.path
}

// Observable reports whether the resource carries the obs flag.
func (r *Resource) Observable() bool {
	return r.observable
}

// Title returns the title, if any.
func (r *Resource) Title() (string, bool) {
	return r.title.Get()
}

// Interfaces returns a copy of the interface descriptions (if).
func (r *Resource) Interfaces() []string {
	return slices.Clone(r.interfaces)
}

// ResourceTypes returns a copy of the resource types (rt).
func (r *Resource) ResourceTypes() []string {
	return slices.Clone(r.resourceTypes)
}

// Size returns the size estimate (sz), if any.
func (r *Resource) Size() (string, bool) {
	return r.size.Get()
}

// ContentTypes returns a copy of the content types (ct).
func (r *Resource) ContentTypes() []string {
	return slices.Clone(r.contentTypes)
}

// Link returns the fields of r as a Link.
func (r *Resource) Link() Link {
	return Link{
		Path:          r.path,
		Observable:    r.observable,
		Title:         r.title,
		Interfaces:    r.Interfaces(),
		ResourceTypes: r.ResourceTypes(),
		Size:          r.size,
		ContentTypes:  r.ContentTypes(),
	}
}

// HasResourceType reports whether rt is one of the resource types.
func (r *Resource) HasResourceType(rt string) bool {
	return slices.Contains(r.resourceTypes, rt)
}

// Compare orders resources by path, observable, title, interfaces,
// resource types, size and content types. Absent title and size sort last;
// shorter lists sort first.
func Compare(a, b *Resource) int {
	if c := strings.Compare(a.path, b.path); c != 0 {
		return c
	}
	if a.observable != b.observable {
		if a.observable {
			return 1
		}
		return -1
	}
	if c := compareOptional(a.title, b.title); c != 0 {
		return c
	}
	if c := compareList(a.interfaces, b.interfaces); c != 0 {
		return c
	}
	if c := compareList(a.resourceTypes, b.resourceTypes); c != 0 {
		return c
	}
	if c := compareOptional(a.size, b.size); c != 0 {
		return c
	}
	return compareList(a.contentTypes, b.contentTypes)
}

func compareOptional(a, b optional.Optional[string]) int {
	av, aok := a.Get()
	bv, bok := b.Get()
	switch {
	case aok && bok:
		return strings.Compare(av, bv)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}

func compareList(a, b []string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return slices.Compare(a, b)
}

// Compare is Compare(r, o).
func (r *Resource) Compare(o *Resource) int {
	return Compare(r, o)
}

// Equal reports whether r and o compare equal.
func (r *Resource) Equal(o *Resource) bool {
	return Compare(r, o) == 0
}

// Hash returns a non-zero hash of all fields. It is computed once.
func (r *Resource) Hash() uint64 {
	if h := r.hash.Load(); h != 0 {
		return h
	}
	h := r.computeHash()
	r.hash.CompareAndSwap(0, h)
	return h
}

func (r *Resource) computeHash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	writeString := func(s string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(s)))
		d.Write(buf[:])
		d.Write([]byte(s))
	}
	writeOptional := func(o optional.Optional[string]) {
		if s, ok := o.Get(); ok {
			d.Write([]byte{1})
			writeString(s)
			return
		}
		d.Write([]byte{0})
	}
	writeList := func(l []string) {
		binary.BigEndian.PutUint64(buf[:], uint64(len(l)))
		d.Write(buf[:])
		for _, s := range l {
			writeString(s)
		}
	}

	writeString(r.path)
	if r.observable {
		d.Write([]byte{1})
	} else {
		d.Write([]byte{0})
	}
	writeOptional(r.title)
	writeList(r.interfaces)
	writeList(r.resourceTypes)
	writeOptional(r.size)
	writeList(r.contentTypes)

	if h := d.Sum64(); h != 0 {
		return h
	}
	return hashSentinel
}

// String returns the link-format form of r.
func (r *Resource) String() string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(r.path)
	sb.WriteString(">")
	if t, ok := r.title.Get(); ok {
		sb.WriteString(";title=")
		sb.WriteString(quote(t))
	}
	writeList := func(name string, l []string) {
		if len(l) > 0 {
			sb.WriteString(";" + name + "=")
			sb.WriteString(quote(strings.Join(l, " ")))
		}
	}
	writeList("if", r.interfaces)
	writeList("rt", r.resourceTypes)
	if sz, ok := r.size.Get(); ok {
		sb.WriteString(";sz=")
		sb.WriteString(sz)
	}
	writeList("ct", r.contentTypes)
	if r.observable {
		sb.WriteString(";obs")
	}
	return sb.String()
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

// Sort sorts resources in place by Compare.
func Sort(rs []*Resource) {
	slices.SortFunc(rs, Compare)
}

// Dedup returns the sorted resources with duplicates removed. The input is
// not modified.
func Dedup(rs []*Resource) []*Resource {
	out := slices.Clone(rs)
	Sort(out)
	return slices.CompactFunc(out, (*Resource).Equal)
}

// Diff compares two discovery results and returns the resources only in
// next (added) and only in prev (removed), both sorted.
func Diff(prev, next []*Resource) (added, removed []*Resource) {
	p, n := Dedup(prev), Dedup(next)
	i, j := 0, 0
	for i < len(p) && j < len(n) {
		switch c := Compare(p[i], n[j]); {
		case c < 0:
			removed = append(removed, p[i])
			i++
		case c > 0:
			added = append(added, n[j])
			j++
		default:
			i++
			j++
		}
	}
	removed = append(removed, p[i:]...)
	added = append(added, n[j:]...)
	return added, removed
}
