package analysis

import "errors"

// Kind tags the shape of a Result so formatting never probes structure.
type Kind int

const (
	KindScalar Kind = iota
	KindFlatMap
	KindNestedMap
	KindListMap
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindFlatMap:
		return "flat_map"
	case KindNestedMap:
		return "nested_map"
	case KindListMap:
		return "list_map"
	case KindText:
		return "text"
	}
	return "unknown"
}

// Entry is one key of an ordered mapping.
type Entry struct {
	Key   string
	Value any
}

// Map is an insertion-ordered mapping. Values are scalars (float64, int,
// string, ...), nested Maps, or []float64 depending on the Result kind.
type Map []Entry

// Get returns the value stored under key.
func (m Map) Get(key string) (any, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (m Map) Keys() []string {
	out := make([]string, len(m))
	for i, e := range m {
		out[i] = e.Key
	}
	return out
}

// Result is the raw output of a statistics operation.
type Result struct {
	Kind  Kind
	Value any // KindScalar, KindText
	Map   Map // map kinds
}

func Scalar(v any) Result { return Result{Kind: KindScalar, Value: v} }

func Text(s string) Result { return Result{Kind: KindText, Value: s} }

func FlatMap(m Map) Result { return Result{Kind: KindFlatMap, Map: m} }

func NestedMap(m Map) Result { return Result{Kind: KindNestedMap, Map: m} }

func ListMap(m Map) Result { return Result{Kind: KindListMap, Map: m} }

var (
	// ErrNoNumericColumns is returned by numeric-only operations on a dataset without int/float columns.
	ErrNoNumericColumns = errors.New("no numeric columns")
	// ErrNoCategoricalColumns is returned by categorical-only operations on a dataset without text columns.
	ErrNoCategoricalColumns = errors.New("no categorical columns")
	// ErrInsufficientData is returned when clustering has nothing left to partition.
	ErrInsufficientData = errors.New("insufficient data")
)
