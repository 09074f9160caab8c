package domain

// MutationType categorizes a MutationRecord.
type MutationType string

const (
	MutationChildList  MutationType = "childList"
	MutationAttributes MutationType = "attributes"
)

// MutationRecord describes a single change to a target node.
// For child list changes exactly one of AddedNodes/RemovedNodes is populated by
// the in-memory Document, but observers must tolerate records carrying several.
type MutationRecord struct {
	Type            MutationType
	Target          *Node
	AddedNodes      []*Node
	RemovedNodes    []*Node
	PreviousSibling *Node
	NextSibling     *Node
	AttributeName   string
	OldValue        string
}

// ObserveOptions selects which changes of a target are reported.
type ObserveOptions struct {
	ChildList       bool
	Attributes      bool
	AttributeFilter []string
}

// Matches reports whether rec should be delivered under these options.
func (o ObserveOptions) Matches(rec MutationRecord) bool {
	switch rec.Type {
	case MutationChildList:
		return o.ChildList
	case MutationAttributes:
		if !o.Attributes {
			return false
		}
		if len(o.AttributeFilter) == 0 {
			return true
		}
		for _, name := range o.AttributeFilter {
			if name == rec.AttributeName {
				return true
			}
		}
		return false
	default:
		return false
	}
}
