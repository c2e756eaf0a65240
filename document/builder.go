package document

import (
	"go.uber.org/zap"

	"github.com/lw64/graphdoc/graph"
	"github.com/lw64/graphdoc/hash"
	"github.com/lw64/graphdoc/invariant"
	"github.com/lw64/graphdoc/operation"
)

// Document is the immutable, materialised result of folding a validated
// operation set. Its id is the id of the CREATE operation, its author is
// the CREATE's signer, and its schema is the schema every operation in the
// set shares.
type Document struct {
	id     hash.Hash
	author string
	schema hash.Hash
	view   *View

	deleted          bool
	edited           bool
	operations       []operation.WithMeta
	currentGraphTips []hash.Hash
}

// ID returns the document id.
func (d *Document) ID() hash.Hash { return d.id }

// Author returns the public key of the CREATE operation's signer.
func (d *Document) Author() string { return d.author }

// Schema returns the schema hash shared by every operation in the set.
func (d *Document) Schema() hash.Hash { return d.schema }

// View returns the materialised field view.
func (d *Document) View() *View { return d.view }

// IsDeleted reports whether a DELETE operation is present in the set.
func (d *Document) IsDeleted() bool { return d.deleted }

// IsEdited reports whether more than one operation contributed to the
// document (i.e. the set has more than just the CREATE).
func (d *Document) IsEdited() bool { return d.edited }

// Operations returns the operations in deterministic sort order.
func (d *Document) Operations() []operation.WithMeta {
	out := make([]operation.WithMeta, len(d.operations))
	copy(out, d.operations)
	return out
}

// CurrentGraphTips returns the current graph tips in sorted order.
func (d *Document) CurrentGraphTips() []hash.Hash {
	return append([]hash.Hash(nil), d.currentGraphTips...)
}

// Builder validates an operation set, builds its causal graph, sorts it
// deterministically, and folds the result into a Document.
type Builder struct {
	operations []operation.WithMeta
	logger     *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger attaches a structured logger; Build emits Debug-level spans
// for graph construction, sort and materialisation, and an Error-level
// event on failure. If unset or nil, a no-op logger is used.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder returns a Builder over the given operation set. The set is
// treated as unordered input (spec §5): the final ordering is derived
// entirely from previous_operations plus the deterministic tie-breaker,
// never from the order operations appear in this slice.
func NewBuilder(operations []operation.WithMeta, opts ...Option) *Builder {
	b := &Builder{
		operations: append([]operation.WithMeta(nil), operations...),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build validates the operation set and materialises a Document.
func (b *Builder) Build() (*Document, error) {
	root, schema, err := b.locateCreate()
	if err != nil {
		b.logger.Error("locate create failed", zap.Error(err))
		return nil, err
	}
	b.logger.Debug("located create operation", zap.String("operation_id", root.OperationID.String()))

	if err := b.checkSchemaUniformity(schema); err != nil {
		b.logger.Error("schema uniformity check failed", zap.Error(err))
		return nil, err
	}

	g, err := b.buildGraph()
	if err != nil {
		b.logger.Error("graph construction failed", zap.Error(err))
		return nil, err
	}
	b.logger.Debug("built operation graph",
		zap.String("document_id", root.OperationID.String()),
		zap.Int("node_count", g.Len()),
	)

	sorted, err := g.Sort()
	if err != nil {
		b.logger.Error("topological sort failed", zap.Error(err))
		return nil, err
	}
	b.logger.Debug("sorted operation graph",
		zap.String("document_id", root.OperationID.String()),
		zap.Int("operation_count", len(sorted.Sequence)),
	)

	doc, err := b.materialise(root, schema, sorted)
	if err != nil {
		b.logger.Error("materialisation failed", zap.Error(err), zap.String("document_id", root.OperationID.String()))
		return nil, err
	}
	b.logger.Debug("materialised document",
		zap.String("document_id", root.OperationID.String()),
		zap.Bool("deleted", doc.deleted),
	)
	return doc, nil
}

func (b *Builder) locateCreate() (operation.WithMeta, hash.Hash, error) {
	var root operation.WithMeta
	found := 0
	for _, op := range b.operations {
		if op.Operation.IsCreate() {
			found++
			root = op
		}
	}
	switch found {
	case 0:
		return operation.WithMeta{}, hash.Hash{}, ErrNoCreateOperation
	case 1:
		return root, root.Operation.Schema(), nil
	default:
		return operation.WithMeta{}, hash.Hash{}, ErrMoreThanOneCreateOperation
	}
}

func (b *Builder) checkSchemaUniformity(schema hash.Hash) error {
	for _, op := range b.operations {
		if !op.Operation.Schema().Equal(schema) {
			return ErrOperationSchemaNotMatching
		}
	}
	return nil
}

func (b *Builder) buildGraph() (*graph.Graph[operation.WithMeta], error) {
	g := graph.New[operation.WithMeta]()
	for _, op := range b.operations {
		g.AddNode(op.OperationID, op)
	}
	for _, op := range b.operations {
		if op.Operation.IsCreate() {
			continue
		}
		for _, prev := range op.Operation.PreviousOperations() {
			if !g.AddLink(prev, op.OperationID) {
				return nil, invalidOperationLink(op.OperationID)
			}
		}
	}
	return g, nil
}

func (b *Builder) materialise(root operation.WithMeta, schema hash.Hash, sorted *graph.Sorted[operation.WithMeta]) (*Document, error) {
	invariant.Precondition(len(sorted.Sequence) > 0, "sorted sequence must not be empty")

	firstID := sorted.Sequence[0]
	first, ok := sorted.Payload(firstID)
	invariant.Invariant(ok, "first sorted node must exist in graph")
	invariant.Invariant(first.Operation.IsCreate(), "first sorted operation must be the create")

	view, err := TryFromCreate(first.Operation)
	if err != nil {
		return nil, err
	}

	ordered := make([]operation.WithMeta, 0, len(sorted.Sequence))
	ordered = append(ordered, first)

	deleted := false
	for _, id := range sorted.Sequence[1:] {
		op, ok := sorted.Payload(id)
		invariant.Invariant(ok, "sorted node must exist in graph")
		ordered = append(ordered, op)

		switch {
		case op.Operation.IsUpdate():
			view.ApplyUpdate(op.Operation)
		case op.Operation.IsDelete():
			deleted = true
		}
	}

	doc := &Document{
		id:               root.OperationID,
		author:           root.PublicKey,
		schema:           schema,
		view:             view,
		deleted:          deleted,
		edited:           len(sorted.Sequence) > 1,
		operations:       ordered,
		currentGraphTips: sorted.Tips,
	}
	return doc, nil
}
