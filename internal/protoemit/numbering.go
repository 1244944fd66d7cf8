package protoemit

import (
	"hash/fnv"
	"sort"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// allocateFieldNumbers assigns stable tag numbers so that adding or removing
// a field never renumbers its siblings:
//  1. candidate = (FNV32a(name) % 31767) + 1 (range 1..31767)
//  2. the reserved block [19000,19999] is skipped
//  3. collisions probe linearly (wrapping to 1), resolved in sorted name
//     order for stability
func allocateFieldNumbers(fieldBuilders []*protobuilder.FieldBuilder) {
	names := make([]string, len(fieldBuilders))
	for i, fb := range fieldBuilders {
		names[i] = string(fb.Name())
	}
	numbers := allocateNumbers(names)
	for i, fb := range fieldBuilders {
		fb.SetNumber(protoreflect.FieldNumber(numbers[i]))
	}
}

func allocateNumbers(names []string) []int {
	if len(names) == 0 {
		return nil
	}
	type item struct {
		name string
		idx  int
	}
	items := make([]item, len(names))
	for i, n := range names {
		items[i] = item{name: n, idx: i}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })

	out := make([]int, len(names))
	used := make(map[int]struct{}, len(names))
	const max = 31767
	for _, it := range items {
		start := int(fnv32(it.name)%31767) + 1
		cand := start
		for {
			if cand >= 19000 && cand <= 19999 {
				cand = 20000
				continue
			}
			if _, ok := used[cand]; !ok {
				used[cand] = struct{}{}
				out[it.idx] = cand
				break
			}
			cand++
			if cand > max {
				cand = 1
			}
			if cand == start {
				panic("allocateNumbers: exhausted tag space")
			}
		}
	}
	return out
}

func fnv32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
