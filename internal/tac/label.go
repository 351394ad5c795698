package tac

// LabelGen generates unique labels for a single function. Grounded on the
// teacher's util/label.go generator (a monotone counter per label type),
// simplified from its goroutine/channel form to a plain counter: each
// function is compiled sequentially by a single goroutine (see spec.md
// §5), so the concurrency-safe indirection the teacher needed for its
// worker-pool compilation has no job to do here.
type LabelGen struct {
	next int
}

// New returns a fresh label of kind k, unique within the function this
// generator was created for.
func (g *LabelGen) New(k LabelKind) Label {
	n := g.next
	g.next++
	return Label{Kind: k, N: n}
}
