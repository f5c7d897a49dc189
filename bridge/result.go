package bridge

// Kind classifies an evaluation result. It mirrors the guest's type tag
// through a fixed table; tags the host does not recognize map to
// KindUnknown and never propagate raw guest-internal codes.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTrue
	KindFalse
	KindElement
	KindAttribute
	KindArray
	KindUnknown
)

var kindNames = map[Kind]string{
	KindNull:      "Null",
	KindString:    "String",
	KindNumber:    "Number",
	KindTrue:      "True",
	KindFalse:     "False",
	KindElement:   "Element",
	KindAttribute: "Attribute",
	KindArray:     "Array",
	KindUnknown:   "Unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

var kindByTag = map[string]Kind{
	"Null":      KindNull,
	"String":    KindString,
	"Number":    KindNumber,
	"True":      KindTrue,
	"False":     KindFalse,
	"Element":   KindElement,
	"Attribute": KindAttribute,
	"Array":     KindArray,
}

// KindFromTag maps a guest type tag to its Kind. Unrecognized tags
// become KindUnknown.
func KindFromTag(tag string) Kind {
	if k, ok := kindByTag[tag]; ok {
		return k
	}
	return KindUnknown
}

// Result is a successful evaluation: the guest's four-tuple passed
// through unchanged, with the type tag mapped to Kind.
type Result struct {
	Value  string
	Raw    string
	Kind   Kind
	Index  int
	Exists bool
}
