package sky

// Candidate is one unvalidated answer from a name resolver.
type Candidate struct {
	CanonicalName string
	RA            float64
	Dec           float64
	Resolver      string
	ObjectType    string
}

// Resolution is a validated name lookup.
type Resolution struct {
	Query         string
	CanonicalName string
	Position      Position
	Resolver      string
	ObjectType    string
}
