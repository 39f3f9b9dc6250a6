// Package docmerge implements the recursive document merge used for all
// override resolution in the composition engine. It operates on decoded
// JSON values (map[string]any, []any, scalars), never mutates its inputs
// and never fails: a malformed patch is treated as a literal replacement
// value.
package docmerge

import "sort"

// ArrayMode controls how an array patch combines with an array target.
type ArrayMode int

const (
	// ArrayReplace swaps the target array wholesale for the patch array.
	ArrayReplace ArrayMode = iota
	// ArrayAppend concatenates the patch array onto the target array.
	ArrayAppend
)

// Options tunes merge behaviour. The zero value is NOT the engine
// default; use DefaultOptions.
type Options struct {
	// NullRemoves deletes a key when its patch value is null. When false
	// the key is kept and explicitly set to null.
	NullRemoves bool
	Arrays      ArrayMode
}

// DefaultOptions is the policy used everywhere else in the system:
// null deletes keys, arrays replace wholesale.
func DefaultOptions() Options {
	return Options{NullRemoves: true, Arrays: ArrayReplace}
}

// Merge combines patch into target and returns the result. Inputs are
// left untouched; the result shares no mutable state with either input.
//
// Rules: object into object merges key-by-key; array into array follows
// Options.Arrays; anything else replaces the target wholesale. Keys are
// processed in lexicographic order so repeated merges of the same pair
// are byte-identical after canonical serialization.
func Merge(target, patch any, opts Options) any {
	switch p := patch.(type) {
	case map[string]any:
		t, ok := target.(map[string]any)
		if !ok {
			return deepCopy(p)
		}
		return mergeObjects(t, p, opts)
	case []any:
		t, ok := target.([]any)
		if !ok {
			return deepCopy(p)
		}
		if opts.Arrays == ArrayAppend {
			out := make([]any, 0, len(t)+len(p))
			for _, v := range t {
				out = append(out, deepCopy(v))
			}
			for _, v := range p {
				out = append(out, deepCopy(v))
			}
			return out
		}
		return deepCopy(p)
	default:
		return patch
	}
}

// MergeDocuments is Merge constrained to object documents, the shape
// every stored config column uses. A nil target merges as empty.
func MergeDocuments(target, patch map[string]any, opts Options) map[string]any {
	return mergeObjects(target, patch, opts)
}

func mergeObjects(target, patch map[string]any, opts Options) map[string]any {
	out := make(map[string]any, len(target)+len(patch))
	for k, v := range target {
		out[k] = deepCopy(v)
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pv := patch[k]
		if pv == nil {
			if opts.NullRemoves {
				delete(out, k)
			} else {
				out[k] = nil
			}
			continue
		}
		out[k] = Merge(out[k], pv, opts)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
