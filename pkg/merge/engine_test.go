// SPDX-License-Identifier: MPL-2.0

package merge

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spmkit/spm/internal/testutil/projecttest"
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/registry"
	"github.com/spmkit/spm/pkg/types"
)

// fakeStore records payload traffic instead of touching the filesystem.
type fakeStore struct {
	files   map[string]bool
	copied  []string
	removed []string
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{files: map[string]bool{}}
	for _, f := range existing {
		s.files[f] = true
	}
	return s
}

func (s *fakeStore) Copy(_ context.Context, _, filename string) error {
	s.copied = append(s.copied, filename)
	s.files[filename] = true
	return nil
}

func (s *fakeStore) Remove(_ context.Context, filename string) error {
	s.removed = append(s.removed, filename)
	delete(s.files, filename)
	return nil
}

func newHost(targetOpts ...projecttest.TargetOption) Host {
	main := projecttest.NewTarget("Main", targetOpts...)
	return Host{Project: projecttest.NewProject(main), Target: main}
}

func scenarioHost() Host {
	return newHost(
		projecttest.WithBlock("b1", projecttest.Stack("motion_movesteps", "b2", "")),
		projecttest.WithBlock("b2", projecttest.Stack("looks_show", "", "b1")),
	)
}

func scenarioModule() Module {
	return Module{
		Name:    "mod",
		Version: "1.0.0",
		Target: projecttest.NewTarget("Main",
			projecttest.WithBlock("def1", projecttest.Definition("proto1", "call1")),
			projecttest.WithBlock("proto1", projecttest.Prototype("def1", "greet", nil)),
			projecttest.WithBlock("call1", projecttest.Call("", "def1", "greet")),
		),
		AssetDir: "/modules/mod",
	}
}

func costumeModule(name namespace.ModuleName, version types.SemVer, costumes ...string) Module {
	opts := []projecttest.TargetOption{
		projecttest.WithBlock("s", projecttest.Stack("looks_nextcostume", "", "")),
	}
	for _, c := range costumes {
		opts = append(opts, projecttest.WithCostume(c, string(name)+"-"+c+".svg"))
	}
	return Module{Name: name, Version: version, Target: projecttest.NewTarget("Main", opts...), AssetDir: "/modules/" + string(name)}
}

func sortedIDs(blocks map[string]*project.Block) []string {
	ids := make([]string, 0, len(blocks))
	for id := range blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func snapshot(t *testing.T, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func readRegistry(t *testing.T, host Host) *registry.Registry {
	t.Helper()

	r, err := registry.Read(host.Target)
	require.NoError(t, err)
	return r
}

// ============================================================================
// Scenarios
// ============================================================================

func TestAddThenRemoveProcedureModule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := scenarioHost()
	engine := NewEngine(newFakeStore(), DefaultOptions())

	res, err := engine.AddModule(ctx, host, scenarioModule())
	require.NoError(t, err)
	assert.Equal(t, ChangeInstall, res.Change)
	assert.Equal(t, 3, res.BlocksAdded)
	assert.Equal(t,
		[]string{"b1", "b2", "modΩcall1", "modΩdef1", "modΩproto1"},
		sortedIDs(host.Target.Blocks))
	assert.Equal(t, "modΩcall1", host.Target.Blocks["modΩdef1"].Next)
	assert.True(t, readRegistry(t, host).Has("mod"))

	res, err = engine.RemoveModule(ctx, host, "mod")
	require.NoError(t, err)
	assert.True(t, res.Removed)
	assert.Equal(t, 3, res.Removal.Blocks)
	assert.Equal(t, []string{"b1", "b2"}, sortedIDs(host.Target.Blocks))
	assert.False(t, readRegistry(t, host).Has("mod"))
}

func TestCostumeFirstOwnerWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := newHost()
	store := newFakeStore()
	engine := NewEngine(store, DefaultOptions())

	_, err := engine.AddModule(ctx, host, costumeModule("A", "1.0.0", "cat"))
	require.NoError(t, err)
	res, err := engine.AddModule(ctx, host, costumeModule("B", "1.0.0", "cat"))
	require.NoError(t, err)
	assert.Empty(t, res.CostumesAdded)
	assert.Equal(t, []string{"A-cat.svg"}, store.copied)

	reg := readRegistry(t, host)
	assert.Equal(t, namespace.ModuleName("A"), reg.Costumes["cat"])
	require.Len(t, host.Target.Costumes, 1)
	assert.Equal(t, "A-cat.svg", host.Target.Costumes[0].MD5Ext)

	res, err = engine.RemoveModule(ctx, host, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, res.Removal.Costumes)
	assert.Equal(t, []string{"A-cat.svg"}, res.Removal.Payloads)
	assert.Nil(t, host.Target.FindAsset(project.KindCostume, "cat"))
	reg = readRegistry(t, host)
	assert.NotContains(t, reg.Costumes, "cat")
	assert.True(t, reg.Has("B"))

	_, err = engine.AddModule(ctx, host, costumeModule("A", "1.0.0", "cat"))
	require.NoError(t, err)
	assert.NotNil(t, host.Target.FindAsset(project.KindCostume, "cat"))
	assert.Equal(t, namespace.ModuleName("A"), readRegistry(t, host).Costumes["cat"])
}

// ============================================================================
// Properties
// ============================================================================

func TestAddDoesNotTouchHostBlocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := scenarioHost()
	require.NoError(t, namespace.Namespace(host.Target, "game"))
	before := map[string]string{}
	for id, b := range host.Target.Blocks {
		before[id] = snapshot(t, b)
	}

	mod := scenarioModule()
	engine := NewEngine(newFakeStore(), DefaultOptions())
	_, err := engine.AddModule(ctx, host, mod)
	require.NoError(t, err)

	for id, want := range before {
		b, ok := host.Target.Blocks[id]
		require.True(t, ok, "host block %s disappeared", id)
		assert.Equal(t, want, snapshot(t, b), "host block %s changed", id)
	}
	for id := range mod.Target.Blocks {
		assert.Contains(t, host.Target.Blocks, id)
	}
}

func TestAddRemoveRestoresHostBlocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := scenarioHost()
	require.NoError(t, namespace.Namespace(host.Target, "game"))
	before := snapshot(t, host.Target.Blocks)

	engine := NewEngine(newFakeStore(), DefaultOptions())
	_, err := engine.AddModule(ctx, host, scenarioModule())
	require.NoError(t, err)
	_, err = engine.AddModule(ctx, host, costumeModule("other", "0.1.0", "dog"))
	require.NoError(t, err)

	_, err = engine.RemoveModule(ctx, host, "mod")
	require.NoError(t, err)
	_, err = engine.RemoveModule(ctx, host, "other")
	require.NoError(t, err)
	assert.JSONEq(t, before, snapshot(t, host.Target.Blocks))
}

func TestRegistryMatchesInstalledCostumes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := newHost(projecttest.WithCostume("hero", "hero.svg"))
	engine := NewEngine(newFakeStore(), DefaultOptions())

	type step struct {
		add  bool
		name namespace.ModuleName
	}
	costumes := map[namespace.ModuleName][]string{
		"A": {"cat", "hero"},
		"B": {"cat", "dog"},
		"C": {"bird"},
	}
	steps := []step{
		{true, "A"}, {true, "B"}, {true, "C"}, {false, "A"}, {true, "A"},
		{false, "B"}, {true, "B"}, {true, "B"}, {false, "C"}, {false, "C"},
	}

	for i, s := range steps {
		var err error
		if s.add {
			_, err = engine.AddModule(ctx, host, costumeModule(s.name, "1.0.0", costumes[s.name]...))
		} else {
			_, err = engine.RemoveModule(ctx, host, s.name)
		}
		require.NoError(t, err, "step %d", i)

		reg := readRegistry(t, host)
		for asset, owner := range reg.Costumes {
			assert.True(t, reg.Has(owner), "step %d: %s owned by uninstalled %s", i, asset, owner)
			assert.NotNil(t, host.Target.FindAsset(project.KindCostume, asset), "step %d: %s owned but missing", i, asset)
			assert.Contains(t, costumes[owner], asset, "step %d: %s not contributed by %s", i, asset, owner)
		}
		for _, a := range host.Target.Costumes {
			if a.Name == "hero" {
				continue
			}
			assert.Contains(t, reg.Costumes, a.Name, "step %d: module costume %s has no owner", i, a.Name)
		}
	}
	assert.NotContains(t, readRegistry(t, host).Costumes, "hero")
}

// ============================================================================
// Policies
// ============================================================================

func TestPrivateAndHiddenDefinitions(t *testing.T) {
	t.Parallel()

	mod := Module{
		Name: "lib",
		Target: projecttest.NewTarget("Main",
			projecttest.WithBlock("pub", projecttest.Definition("pubProto", "")),
			projecttest.WithBlock("pubProto", projecttest.Prototype("pub", "jump %s", map[string]string{"h": "hArg"})),
			projecttest.WithBlock("hArg", projecttest.ArgumentReporter("pubProto", "height")),
			projecttest.WithBlock("priv", projecttest.Definition("privProto", "privBody")),
			projecttest.WithBlock("privProto", projecttest.Prototype("priv", "#helper", nil)),
			projecttest.WithBlock("privBody", projecttest.Stack("motion_turnright", "", "priv")),
			projecttest.WithBlock("hid", projecttest.Definition("hidProto", "")),
			projecttest.WithBlock("hidProto", projecttest.Prototype("hid", "_internal", nil)),
		),
	}
	host := newHost()
	engine := NewEngine(newFakeStore(), DefaultOptions())

	res, err := engine.AddModule(context.Background(), host, mod)
	require.NoError(t, err)
	assert.Equal(t, 1, res.BlocksFiltered)
	assert.Equal(t,
		[]string{"libΩhArg", "libΩhid", "libΩhidProto", "libΩprivBody", "libΩprivProto", "libΩpub", "libΩpubProto"},
		sortedIDs(host.Target.Blocks))
	assert.NotContains(t, host.Target.Blocks, "libΩpriv")
	assert.Equal(t, "libΩpriv", host.Target.Blocks["libΩprivBody"].Parent)
	assert.True(t, host.Target.Blocks["libΩhid"].Shadow)
	assert.False(t, host.Target.Blocks["libΩpub"].Shadow)
}

func TestTopLevelBlocksMoveToOrigin(t *testing.T) {
	t.Parallel()

	mod := Module{
		Name: "pos",
		Target: projecttest.NewTarget("Main",
			projecttest.WithList("l1", "items"),
			projecttest.WithBlock("flag", projecttest.Stack("event_whenflagclicked", "", "")),
			projecttest.WithBlock("loose", projecttest.CanvasRef(project.PrimitiveList, "items", "l1", 300, 200)),
		),
	}

	host := newHost()
	_, err := NewEngine(newFakeStore(), DefaultOptions()).AddModule(context.Background(), host, mod)
	require.NoError(t, err)

	flag := host.Target.Blocks["posΩflag"]
	assert.Zero(t, *flag.X)
	assert.Zero(t, *flag.Y)
	assert.Equal(t, `[13,"items","items",0,0]`, snapshot(t, host.Target.Blocks["posΩloose"]))
}

func TestPositionResetCanBeDisabled(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.ResetPositions = false
	host := newHost()
	_, err := NewEngine(newFakeStore(), opts).AddModule(context.Background(), host, scenarioModule())
	require.NoError(t, err)
	assert.Equal(t, 48.0, *host.Target.Blocks["modΩdef1"].X)
}

func TestVariablesUnionAndSurviveRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := newHost(
		projecttest.WithVariable("score", "score", 1),
		projecttest.WithVariable("lives", "lives", 3),
	)
	mod := Module{
		Name: "vars",
		Target: projecttest.NewTarget("Main",
			projecttest.WithVariable("x1", "score", 100),
			projecttest.WithVariable("x2", "speed", 5),
			projecttest.WithList("x3", "queue"),
		),
	}
	engine := NewEngine(newFakeStore(), DefaultOptions())

	res, err := engine.AddModule(ctx, host, mod)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Variables)
	assert.Equal(t, 1, res.Lists)
	assert.JSONEq(t, "100", string(host.Target.Variables["score"].Value))
	assert.Contains(t, host.Target.Variables, "lives")
	assert.Contains(t, host.Target.Variables, "speed")

	_, err = engine.RemoveModule(ctx, host, "vars")
	require.NoError(t, err)
	assert.Contains(t, host.Target.Variables, "speed")
	assert.Contains(t, host.Target.Lists, "queue")
}

func TestBroadcastsJoinHostStageByName(t *testing.T) {
	t.Parallel()

	stage := projecttest.NewStage(projecttest.WithBroadcast("h1", "go"))
	main := projecttest.NewTarget("Main")
	host := Host{Project: projecttest.NewProject(stage, main), Target: main}

	mod := Module{
		Name:       "radio",
		Broadcasts: map[string]string{"m1": "go", "m2": "stop"},
		Target: projecttest.NewTarget("Main",
			projecttest.WithBlock("send", projecttest.Stack("event_broadcast", "", "",
				projecttest.WithShadowedInput("BROADCAST_INPUT",
					project.Slot{},
					projecttest.Ref(project.PrimitiveBroadcast, "go", "m1")),
			)),
		),
	}

	res, err := NewEngine(newFakeStore(), DefaultOptions()).AddModule(context.Background(), host, mod)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Broadcasts)
	assert.Equal(t, map[string]string{"h1": "go", "m2": "stop"}, stage.Broadcasts)

	ref := host.Target.Blocks["radioΩsend"].Inputs["BROADCAST_INPUT"].Slots[1].Primitive
	assert.Equal(t, "h1", ref.RefID())
}

func TestCommentsFollowKeptBlocks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mod := scenarioModule()
	mod.Target.Comments["note"] = project.NewComment("explains greet")
	mod.Target.Comments["note"].BlockID = "def1"
	mod.Target.Comments["loose"] = project.NewComment("not attached")

	host := scenarioHost()
	engine := NewEngine(newFakeStore(), DefaultOptions())
	_, err := engine.AddModule(ctx, host, mod)
	require.NoError(t, err)
	assert.Contains(t, host.Target.Comments, "modΩnote")
	assert.NotContains(t, host.Target.Comments, "modΩloose")

	_, err = engine.RemoveModule(ctx, host, "mod")
	require.NoError(t, err)
	assert.NotContains(t, host.Target.Comments, "modΩnote")
}

// ============================================================================
// Re-add and remove edge cases
// ============================================================================

func TestReAddReplacesAndReportsVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := newHost()
	engine := NewEngine(newFakeStore(), DefaultOptions())

	_, err := engine.AddModule(ctx, host, costumeModule("A", "1.0.0", "cat"))
	require.NoError(t, err)

	tests := []struct {
		version types.SemVer
		want    VersionChange
	}{
		{"1.2.0", ChangeUpgrade},
		{"1.2.0", ChangeReinstall},
		{"v1.1.0", ChangeDowngrade},
	}
	for _, tt := range tests {
		res, err := engine.AddModule(ctx, host, costumeModule("A", tt.version, "cat"))
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Change, "version %s", tt.version)
	}

	reg := readRegistry(t, host)
	require.Len(t, reg.Modules, 1)
	assert.Equal(t, types.SemVer("1.1.0"), reg.Modules[0].Version)
	assert.Len(t, host.Target.Costumes, 1)
	assert.Equal(t, []string{"AΩs"}, sortedIDs(host.Target.Blocks))
}

func TestRemoveUnknownModuleIsNoop(t *testing.T) {
	t.Parallel()

	host := scenarioHost()
	before := snapshot(t, host.Target)

	res, err := NewEngine(newFakeStore(), DefaultOptions()).RemoveModule(context.Background(), host, "ghost")
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, before, snapshot(t, host.Target))
}

func TestRemoveKeepsSharedPayloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	host := newHost(projecttest.WithCostume("host-cat", "A-cat.svg"))
	store := newFakeStore()
	engine := NewEngine(store, DefaultOptions())

	_, err := engine.AddModule(ctx, host, costumeModule("A", "1.0.0", "cat"))
	require.NoError(t, err)
	res, err := engine.RemoveModule(ctx, host, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, res.Removal.Costumes)
	assert.Empty(t, res.Removal.Payloads)
	assert.Empty(t, store.removed)
}

func TestAddRejectsMalformedModule(t *testing.T) {
	t.Parallel()

	mod := scenarioModule()
	mod.Target.Blocks["proto1"].Mutation = nil
	host := scenarioHost()
	before := snapshot(t, host.Target)

	_, err := NewEngine(newFakeStore(), DefaultOptions()).AddModule(context.Background(), host, mod)
	require.ErrorIs(t, err, namespace.ErrMalformedGraph)
	assert.Equal(t, before, snapshot(t, host.Target))
}

func TestAddRequiresHost(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(newFakeStore(), DefaultOptions()).AddModule(context.Background(), Host{}, scenarioModule())
	require.ErrorIs(t, err, ErrNoHostTarget)
}
