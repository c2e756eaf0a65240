package document_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lw64/graphdoc/document"
	"github.com/lw64/graphdoc/graph"
	"github.com/lw64/graphdoc/hash"
	"github.com/lw64/graphdoc/opfields"
	"github.com/lw64/graphdoc/operation"
	"github.com/lw64/graphdoc/opvalue"
)

// documentCmpOpts lets cmp.Diff reach into every unexported field
// transitively reachable from a *document.Document, the same way the
// teacher's tests reach for cmp.AllowUnexported instead of hand-rolling
// exported getters for comparison alone.
var documentCmpOpts = cmp.AllowUnexported(
	document.Document{},
	document.View{},
	operation.Operation{},
	opfields.Fields{},
	opvalue.Value{},
	hash.Hash{},
)

func testHash(t *testing.T, seed byte) hash.Hash {
	t.Helper()
	digest := mh.Sum([]byte{seed, seed, seed, seed, seed, seed}, mh.SHA2_256, -1)
	h, err := hash.FromBytes(digest)
	require.NoError(t, err)
	return h
}

func withMeta(t *testing.T, op operation.Operation, id hash.Hash, schema hash.Hash, author string) operation.WithMeta {
	t.Helper()
	return operation.WithMeta{Operation: op, OperationID: id, PublicKey: author, Schema: schema}
}

// buildCafeScenario reproduces spec.md's "Polar Bear Cafe" walkthrough
// (Scenarios A-D): a CREATE, a linear UPDATE, a concurrent UPDATE whose id
// is hex-greater than the linear one, a merge UPDATE, and a final DELETE.
func buildCafeScenario(t *testing.T) (schema hash.Hash, all []operation.WithMeta, p1, p2, p3, p4, p5 hash.Hash) {
	t.Helper()
	schema = testHash(t, 1)

	p1 = testHash(t, 10)

	createFields := opfields.New()
	require.NoError(t, createFields.Add("name", opvalue.Text("Polar Bear Cafe")))
	require.NoError(t, createFields.Add("owner", opvalue.Text("Polar Bear")))
	require.NoError(t, createFields.Add("house-number", opvalue.Int(12)))
	create, err := operation.NewCreate(schema, createFields)
	require.NoError(t, err)

	// Find two candidate ids for p2/p3 and assign the hex-larger one to
	// p3, matching Scenario B's explicit requirement hex(p3) > hex(p2).
	candA, candB := testHash(t, 20), testHash(t, 21)
	p2, p3 = candA, candB
	if p3.Less(p2) {
		p2, p3 = p3, p2
	}

	fields2 := opfields.New()
	require.NoError(t, fields2.Add("name", opvalue.Text("ʕ •ᴥ•ʔ Cafe!")))
	require.NoError(t, fields2.Add("owner", opvalue.Text("しろくま")))
	update2, err := operation.NewUpdate(schema, p1, []hash.Hash{p1}, fields2)
	require.NoError(t, err)

	fields3 := opfields.New()
	require.NoError(t, fields3.Add("name", opvalue.Text("🐼 Cafe!")))
	update3, err := operation.NewUpdate(schema, p1, []hash.Hash{p1}, fields3)
	require.NoError(t, err)

	p4 = testHash(t, 30)
	fields4 := opfields.New()
	require.NoError(t, fields4.Add("house-number", opvalue.Int(102)))
	update4, err := operation.NewUpdate(schema, p1, []hash.Hash{p3, p2}, fields4)
	require.NoError(t, err)

	p5 = testHash(t, 40)
	del, err := operation.NewDelete(schema, p1, []hash.Hash{p4})
	require.NoError(t, err)

	all = []operation.WithMeta{
		withMeta(t, create, p1, schema, "polar"),
		withMeta(t, update2, p2, schema, "sirokuma"),
		withMeta(t, update3, p3, schema, "panda"),
		withMeta(t, update4, p4, schema, "polar"),
		withMeta(t, del, p5, schema, "polar"),
	}
	return schema, all, p1, p2, p3, p4, p5
}

func TestScenarioALinearEdit(t *testing.T) {
	schema := testHash(t, 1)
	p1 := testHash(t, 10)

	createFields := opfields.New()
	require.NoError(t, createFields.Add("name", opvalue.Text("Polar Bear Cafe")))
	require.NoError(t, createFields.Add("owner", opvalue.Text("Polar Bear")))
	require.NoError(t, createFields.Add("house-number", opvalue.Int(12)))
	create, err := operation.NewCreate(schema, createFields)
	require.NoError(t, err)

	p2 := testHash(t, 20)
	fields2 := opfields.New()
	require.NoError(t, fields2.Add("name", opvalue.Text("ʕ •ᴥ•ʔ Cafe!")))
	require.NoError(t, fields2.Add("owner", opvalue.Text("しろくま")))
	update2, err := operation.NewUpdate(schema, p1, []hash.Hash{p1}, fields2)
	require.NoError(t, err)

	ops := []operation.WithMeta{
		withMeta(t, create, p1, schema, "polar"),
		withMeta(t, update2, p2, schema, "sirokuma"),
	}

	doc, err := document.NewBuilder(ops).Build()
	require.NoError(t, err)

	name, ok := doc.View().Get("name")
	require.True(t, ok)
	nameVal, _ := name.AsText()
	assert.Equal(t, "ʕ •ᴥ•ʔ Cafe!", nameVal)

	owner, _ := doc.View().Get("owner")
	ownerVal, _ := owner.AsText()
	assert.Equal(t, "しろくま", ownerVal)

	houseNumber, _ := doc.View().Get("house-number")
	houseVal, _ := houseNumber.AsInt()
	assert.Equal(t, int64(12), houseVal)

	assert.True(t, doc.IsEdited())
	assert.False(t, doc.IsDeleted())
	require.Len(t, doc.CurrentGraphTips(), 1)
	assert.True(t, doc.CurrentGraphTips()[0].Equal(p2))
}

func TestScenarioBConcurrentBranch(t *testing.T) {
	schema, all, p1, p2, p3, _, _ := buildCafeScenario(t)
	_ = p1

	ops := all[:3] // create, update2, update3
	doc, err := document.NewBuilder(ops).Build()
	require.NoError(t, err)
	_ = schema

	name, _ := doc.View().Get("name")
	nameVal, _ := name.AsText()
	assert.Equal(t, "🐼 Cafe!", nameVal)

	owner, _ := doc.View().Get("owner")
	ownerVal, _ := owner.AsText()
	assert.Equal(t, "しろくま", ownerVal)

	houseNumber, _ := doc.View().Get("house-number")
	houseVal, _ := houseNumber.AsInt()
	assert.Equal(t, int64(12), houseVal)

	tips := doc.CurrentGraphTips()
	require.Len(t, tips, 2)
	assert.True(t, tips[0].Equal(p2))
	assert.True(t, tips[1].Equal(p3))
}

func TestScenarioCMerge(t *testing.T) {
	_, all, _, _, _, p4, _ := buildCafeScenario(t)

	ops := all[:4] // create, update2, update3, update4
	doc, err := document.NewBuilder(ops).Build()
	require.NoError(t, err)

	name, _ := doc.View().Get("name")
	nameVal, _ := name.AsText()
	assert.Equal(t, "🐼 Cafe!", nameVal)

	houseNumber, _ := doc.View().Get("house-number")
	houseVal, _ := houseNumber.AsInt()
	assert.Equal(t, int64(102), houseVal)

	tips := doc.CurrentGraphTips()
	require.Len(t, tips, 1)
	assert.True(t, tips[0].Equal(p4))
}

func TestScenarioDDelete(t *testing.T) {
	_, all, _, _, _, _, p5 := buildCafeScenario(t)

	doc, err := document.NewBuilder(all).Build()
	require.NoError(t, err)

	assert.True(t, doc.IsDeleted())
	tips := doc.CurrentGraphTips()
	require.Len(t, tips, 1)
	assert.True(t, tips[0].Equal(p5))
}

func TestScenarioFRejectionNoCreate(t *testing.T) {
	schema := testHash(t, 1)
	p1 := testHash(t, 10)
	p2 := testHash(t, 20)

	fields := opfields.New()
	require.NoError(t, fields.Add("name", opvalue.Text("x")))
	update, err := operation.NewUpdate(schema, p1, []hash.Hash{p1}, fields)
	require.NoError(t, err)

	ops := []operation.WithMeta{withMeta(t, update, p2, schema, "author")}
	_, err = document.NewBuilder(ops).Build()
	assert.ErrorIs(t, err, document.ErrNoCreateOperation)
}

func TestScenarioFRejectionTwoCreates(t *testing.T) {
	schema := testHash(t, 1)
	fields := opfields.New()
	require.NoError(t, fields.Add("name", opvalue.Text("x")))
	create1, err := operation.NewCreate(schema, fields)
	require.NoError(t, err)
	create2, err := operation.NewCreate(schema, fields)
	require.NoError(t, err)

	ops := []operation.WithMeta{
		withMeta(t, create1, testHash(t, 1), schema, "a"),
		withMeta(t, create2, testHash(t, 2), schema, "b"),
	}
	_, err = document.NewBuilder(ops).Build()
	assert.ErrorIs(t, err, document.ErrMoreThanOneCreateOperation)
}

func TestScenarioFRejectionInvalidLink(t *testing.T) {
	schema := testHash(t, 1)
	createFields := opfields.New()
	require.NoError(t, createFields.Add("name", opvalue.Text("x")))
	create, err := operation.NewCreate(schema, createFields)
	require.NoError(t, err)
	p1 := testHash(t, 1)

	missing := testHash(t, 99)
	fields := opfields.New()
	require.NoError(t, fields.Add("name", opvalue.Text("y")))
	update, err := operation.NewUpdate(schema, p1, []hash.Hash{missing}, fields)
	require.NoError(t, err)

	ops := []operation.WithMeta{
		withMeta(t, create, p1, schema, "a"),
		withMeta(t, update, testHash(t, 2), schema, "a"),
	}
	_, err = document.NewBuilder(ops).Build()

	var linkErr *document.InvalidOperationLinkError
	require.ErrorAs(t, err, &linkErr)
	assert.ErrorIs(t, err, document.ErrInvalidOperationLinkSentinel)
}

func TestDeterminismAcrossPermutations(t *testing.T) {
	_, all, _, _, _, _, _ := buildCafeScenario(t)

	reversed := make([]operation.WithMeta, len(all))
	for i, op := range all {
		reversed[len(all)-1-i] = op
	}

	docA, err := document.NewBuilder(all).Build()
	require.NoError(t, err)
	docB, err := document.NewBuilder(reversed).Build()
	require.NoError(t, err)

	if diff := cmp.Diff(docA, docB, documentCmpOpts); diff != "" {
		t.Errorf("documents built from permuted input sets differ (-A +B):\n%s", diff)
	}
}

func TestCacheSoundnessAcrossPermutations(t *testing.T) {
	_, all, _, _, _, _, _ := buildCafeScenario(t)
	reversed := make([]operation.WithMeta, len(all))
	for i, op := range all {
		reversed[len(all)-1-i] = op
	}

	cache, err := document.NewCache(8)
	require.NoError(t, err)

	docCold, err := cache.Build(all)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	docWarm, err := cache.Build(reversed)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len(), "identical operation set under a different order must hit the same cache entry")
	assert.Same(t, docCold, docWarm)
}

func TestGraphDotOutputIsValidForBuiltGraph(t *testing.T) {
	_, all, _, _, _, _, _ := buildCafeScenario(t)

	g := graph.New[operation.WithMeta]()
	for _, op := range all {
		g.AddNode(op.OperationID, op)
	}
	for _, op := range all {
		if op.Operation.IsCreate() {
			continue
		}
		for _, prev := range op.Operation.PreviousOperations() {
			require.True(t, g.AddLink(prev, op.OperationID))
		}
	}

	out := g.Dot(func(payload operation.WithMeta) string { return payload.Operation.Action().String() })
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "digraph"))

	for _, op := range all {
		assert.Contains(t, out, op.OperationID.String()[:8])
	}
}
