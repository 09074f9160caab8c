package domain

// Well-known names shared by coordinators, animators and adapters.
const (
	// PresenceTag is the tag of container nodes that host a coordinator.
	PresenceTag = "animate-presence"

	// KeyAttribute is the attribute observed alongside the child list, used for re-keying.
	KeyAttribute = "data-key"

	// IndexProperty is the custom property carrying the ordering index.
	IndexProperty = "--i"

	// VisibilityProperty is the style property set by the hide disposal method.
	VisibilityProperty = "visibility"

	// ExitCompleteEvent is the event type fired when a coordinator finishes its exit cascade.
	ExitCompleteEvent = "exitComplete"
)
