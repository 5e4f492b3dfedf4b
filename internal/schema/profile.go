package schema

// Profile accumulates the evidence seen for one column during inference.
// A Profile is owned by a single inference run and is not safe for
// concurrent use.
type Profile struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Nullable    bool   `json:"nullable"`
	SampleCount uint64 `json:"sample_count"`
	NullCount   uint64 `json:"null_count"`
}

// NewProfile returns an empty profile for the named column. Its type starts
// at Null and widens as values are observed.
func NewProfile(name string) Profile {
	return Profile{Name: name, Type: Null, Nullable: true}
}

// Observe folds one raw value into the profile.
func (p *Profile) Observe(v string) {
	p.SampleCount++
	t := Infer(v)
	if t == Null {
		p.NullCount++
	}
	p.Type = Merge(p.Type, t)
}

// Finalize settles the column after sampling: a column that never saw a
// non-null value becomes Text, and the column is nullable iff a null was
// observed.
func (p *Profile) Finalize() {
	if p.Type == Null {
		p.Type = Text
	}
	p.Nullable = p.NullCount > 0
}

// Confidence is an advisory score in [0, 1]: the non-null ratio weighted by
// how specific the inferred type is.
func (p Profile) Confidence() float64 {
	if p.SampleCount == 0 {
		return 0
	}
	nonNull := 1 - float64(p.NullCount)/float64(p.SampleCount)

	weight := 1.0
	switch p.Type {
	case Text:
		weight = 0.6
	case Null:
		weight = 0.3
	}
	return nonNull * weight
}
