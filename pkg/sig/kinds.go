package sig

// Kind is the shape tag of an interpretation.
type Kind string

const (
	KIND_HEAD          Kind = "head"
	KIND_STEM          Kind = "stem"
	KIND_HEAD_CHORD    Kind = "head-chord"
	KIND_REST          Kind = "rest"
	KIND_REST_CHORD    Kind = "rest-chord"
	KIND_BEAM          Kind = "beam"
	KIND_FLAG          Kind = "flag"
	KIND_DOT           Kind = "augmentation-dot"
	KIND_SLUR          Kind = "slur"
	KIND_BARLINE       Kind = "barline"
	KIND_THICK_BARLINE Kind = "thick-barline"
	KIND_STAFF_BARLINE Kind = "staff-barline"
	KIND_CONNECTOR     Kind = "connector"
	KIND_THICK_CONN    Kind = "thick-connector"
	KIND_WORD          Kind = "word"
	KIND_LYRIC_ITEM    Kind = "lyric-item"
	KIND_SENTENCE      Kind = "sentence"
	KIND_LYRIC_LINE    Kind = "lyric-line"
	KIND_CHORD_NAME    Kind = "chord-name"

	// KIND_TEXT and KIND_LYRICS are only used to request text insertion,
	// they never appear in a graph.
	KIND_TEXT   Kind = "text"
	KIND_LYRICS Kind = "lyrics"
)

func (k Kind) String() string {
	return string(k)
}

// IsEnsemble reports whether interpretations of this kind own members
// via containment.
func (k Kind) IsEnsemble() bool {
	switch k {
	case KIND_HEAD_CHORD, KIND_REST_CHORD, KIND_SENTENCE, KIND_LYRIC_LINE, KIND_CHORD_NAME:
		return true
	}
	return false
}

// IsChord reports whether the kind is a chord-like ensemble.
func (k Kind) IsChord() bool {
	return k == KIND_HEAD_CHORD || k == KIND_REST_CHORD
}

// IsBarline reports whether the kind is a (part of a) barline.
func (k Kind) IsBarline() bool {
	return k == KIND_BARLINE || k == KIND_THICK_BARLINE || k == KIND_STAFF_BARLINE
}

func (k Kind) IsText() bool {
	return k == KIND_TEXT || k == KIND_LYRICS
}

////////////////////////////////////////////////////////////////////////////////

// RelationKind describes a relation type together with its cardinality
// constraints.
type RelationKind struct {
	Name string `json:"name"`
	// SingleSource: a target may have at most one incoming relation of
	// this kind.
	SingleSource bool `json:"singleSource,omitempty"`
	// SingleTarget: a source may have at most one outgoing relation of
	// this kind.
	SingleTarget bool `json:"singleTarget,omitempty"`
	// Support marks relations expressing a mutual support between
	// partners. Those are transferred when an ensemble is replaced.
	Support bool `json:"support,omitempty"`
}

func (k *RelationKind) String() string {
	return k.Name
}

var (
	REL_CONTAINMENT    = defineRelationKind("containment", true, false, false)
	REL_HEAD_STEM      = defineRelationKind("head-stem", false, false, true)
	REL_CHORD_STEM     = defineRelationKind("chord-stem", false, true, true)
	REL_BEAM_STEM      = defineRelationKind("beam-stem", false, false, true)
	REL_FLAG_STEM      = defineRelationKind("flag-stem", false, true, true)
	REL_AUGMENTATION   = defineRelationKind("augmentation", true, true, true)
	REL_SLUR_HEAD      = defineRelationKind("slur-head", false, false, true)
	REL_CHORD_SYLLABLE = defineRelationKind("chord-syllable", false, true, true)
	REL_MIRROR         = defineRelationKind("mirror", true, true, false)
	REL_BAR_CONNECTION = defineRelationKind("bar-connection", true, true, false)
)

var relationKinds = map[string]*RelationKind{}

func defineRelationKind(name string, singleSource, singleTarget, support bool) *RelationKind {
	k := &RelationKind{
		Name:         name,
		SingleSource: singleSource,
		SingleTarget: singleTarget,
		Support:      support,
	}
	relationKinds[name] = k
	return k
}

// GetRelationKind returns the registered relation kind for a name or nil.
func GetRelationKind(name string) *RelationKind {
	return relationKinds[name]
}
