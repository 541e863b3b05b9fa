// SPDX-License-Identifier: MPL-2.0

package namespace

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/spmkit/spm/internal/testutil/projecttest"
	"github.com/spmkit/spm/pkg/project"
)

func blockIDs(t *project.Target) []string {
	ids := make([]string, 0, len(t.Blocks))
	for id := range t.Blocks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func mustMarshal(t *testing.T, v any) string {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	return string(data)
}

// richTarget exercises every kind of edge the namespacer rewrites.
func richTarget() *project.Target {
	return projecttest.NewTarget("Main",
		projecttest.WithVariable("v1", "score", 0),
		projecttest.WithList("l1", "items"),
		projecttest.WithBlock("flag", projecttest.Stack("event_whenflagclicked", "set", "")),
		projecttest.WithBlock("set", projecttest.Stack("data_setvariableto", "say", "flag",
			projecttest.WithVariableField("score", "v1"),
			projecttest.WithCommentRef("k1"),
		)),
		projecttest.WithBlock("say", projecttest.Stack("looks_say", "", "set",
			projecttest.WithShadowedInput("MESSAGE",
				project.Slot{Primitive: projecttest.Ref(project.PrimitiveVariable, "score", "v1")},
				projecttest.Literal(project.PrimitiveText, "hi"),
			),
		)),
		projecttest.WithBlock("loose", projecttest.CanvasRef(project.PrimitiveList, "items", "l1", 10, 20)),
		projecttest.WithBlock("def", projecttest.Definition("proto", "")),
		projecttest.WithBlock("proto", projecttest.Prototype("def", "jump %s", map[string]string{"a1": "arg"})),
		projecttest.WithBlock("arg", projecttest.ArgumentReporter("proto", "height")),
		projecttest.WithBlock("call", projecttest.Call("", "", "jump %s", "a1")),
		projecttest.WithComment("k1", "set", "sets the score"),
		projecttest.WithComment(project.RegistryCommentID, "", `{"name":"mod"}`),
	)
}

// ============================================================================
// Scenario and properties
// ============================================================================

func TestNamespaceDefinitionAndCall(t *testing.T) {
	t.Parallel()

	target := projecttest.NewTarget("Main",
		projecttest.WithBlock("def1", projecttest.Definition("proto1", "call1")),
		projecttest.WithBlock("proto1", projecttest.Prototype("def1", "go", nil)),
		projecttest.WithBlock("call1", projecttest.Call("", "def1", "go")),
	)

	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("Namespace() error = %v", err)
	}

	want := []string{"modΩcall1", "modΩdef1", "modΩproto1"}
	if got := blockIDs(target); !reflect.DeepEqual(got, want) {
		t.Fatalf("block ids = %v, want %v", got, want)
	}
	def := target.Blocks["modΩdef1"]
	if def.Next != "modΩcall1" {
		t.Errorf("def1.next = %q, want modΩcall1", def.Next)
	}
	if got := def.Inputs[project.InputCustomBlock].Slots[0].ID; got != "modΩproto1" {
		t.Errorf("custom_block = %q, want modΩproto1", got)
	}
	if got := target.Blocks["modΩcall1"].Parent; got != "modΩdef1" {
		t.Errorf("call1.parent = %q, want modΩdef1", got)
	}
}

func TestNamespaceIsIdempotent(t *testing.T) {
	t.Parallel()

	target := richTarget()
	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("first Namespace() error = %v", err)
	}
	once := mustMarshal(t, target)

	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("second Namespace() error = %v", err)
	}
	if twice := mustMarshal(t, target); twice != once {
		t.Errorf("second pass changed the target\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestNamespaceLeavesForeignTagsAlone(t *testing.T) {
	t.Parallel()

	target := richTarget()
	if err := Namespace(target, "host"); err != nil {
		t.Fatalf("Namespace(host) error = %v", err)
	}
	before := mustMarshal(t, target)

	if err := Namespace(target, "other"); err != nil {
		t.Fatalf("Namespace(other) error = %v", err)
	}
	if after := mustMarshal(t, target); after != before {
		t.Errorf("namespacing a tagged graph under another name changed it")
	}
}

// ============================================================================
// Edge rewriting
// ============================================================================

func TestNamespaceProcedureArguments(t *testing.T) {
	t.Parallel()

	target := richTarget()
	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("Namespace() error = %v", err)
	}

	proto := target.Blocks["modΩproto"]
	ids, err := proto.Mutation.ArgIDs()
	if err != nil {
		t.Fatalf("ArgIDs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"modΩa1"}) {
		t.Errorf("prototype argumentids = %v", ids)
	}
	in, ok := proto.Inputs["modΩa1"]
	if !ok {
		t.Fatalf("prototype inputs = %v, want key modΩa1", proto.Inputs)
	}
	if in.Slots[0].ID != "modΩarg" {
		t.Errorf("prototype input reference = %q, want modΩarg", in.Slots[0].ID)
	}

	call := target.Blocks["modΩcall"]
	if _, ok := call.Inputs["modΩa1"]; !ok {
		t.Errorf("call inputs = %v, want key modΩa1", call.Inputs)
	}
	if *call.Mutation.ArgumentIDs != `["modΩa1"]` {
		t.Errorf("call argumentids = %s", *call.Mutation.ArgumentIDs)
	}
	if target.Blocks["modΩarg"].Parent != "modΩproto" {
		t.Errorf("argument reporter parent = %q", target.Blocks["modΩarg"].Parent)
	}
}

func TestNamespaceVariablesAndLists(t *testing.T) {
	t.Parallel()

	target := richTarget()
	target.Blocks["global"] = projecttest.Stack("data_changevariableby", "", "",
		projecttest.WithVariableField("stage var", "g1"))

	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("Namespace() error = %v", err)
	}

	if _, ok := target.Variables["score"]; !ok || len(target.Variables) != 1 {
		t.Errorf("variables = %v, want keyed by name", target.Variables)
	}
	if _, ok := target.Lists["items"]; !ok || len(target.Lists) != 1 {
		t.Errorf("lists = %v, want keyed by name", target.Lists)
	}
	if got := target.Blocks["modΩset"].Fields[project.FieldVariable].ID(); got != "score" {
		t.Errorf("VARIABLE field id = %q, want score", got)
	}
	if got := target.Blocks["modΩsay"].Inputs["MESSAGE"].Slots[0].Primitive.RefID(); got != "score" {
		t.Errorf("variable reporter id = %q, want score", got)
	}
	loose := target.Blocks["modΩloose"].Primitive
	if loose.RefID() != "items" {
		t.Errorf("canvas list id = %q, want items", loose.RefID())
	}
	if got := target.Blocks["modΩglobal"].Fields[project.FieldVariable].ID(); got != "g1" {
		t.Errorf("non-local variable id = %q, want g1 untouched", got)
	}
}

func TestNamespaceCollapsesNonLocalReporters(t *testing.T) {
	t.Parallel()

	target := projecttest.NewTarget("Main",
		projecttest.WithBlock("say", projecttest.Stack("looks_say", "", "",
			projecttest.WithShadowedInput("MESSAGE",
				project.Slot{Primitive: projecttest.Ref(project.PrimitiveVariable, "score", "globalVarId")},
				projecttest.Literal(project.PrimitiveText, "hi"),
			),
		)),
		projecttest.WithBlock("show", projecttest.Stack("data_showlist", "", "",
			projecttest.WithShadowedInput("LIST",
				project.Slot{Primitive: projecttest.Ref(project.PrimitiveList, "scores", "globalListId")},
				projecttest.Literal(project.PrimitiveText, ""),
			),
		)),
		projecttest.WithBlock("loose", projecttest.CanvasRef(project.PrimitiveVariable, "score", "globalVarId", 5, 5)),
	)

	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("Namespace() error = %v", err)
	}

	say := target.Blocks["modΩsay"].Inputs["MESSAGE"]
	if got := mustMarshal(t, say); got != `[3,[12,"score","score"],[10,"hi"]]` {
		t.Errorf("MESSAGE input = %s, want variable id collapsed to its name", got)
	}
	if got := target.Blocks["modΩloose"].Primitive.RefID(); got != "score" {
		t.Errorf("canvas variable id = %q, want score", got)
	}
	if got := target.Blocks["modΩshow"].Inputs["LIST"].Slots[0].Primitive.RefID(); got != "globalListId" {
		t.Errorf("non-local list reporter id = %q, want globalListId untouched", got)
	}
}

func TestNamespaceComments(t *testing.T) {
	t.Parallel()

	target := richTarget()
	if err := Namespace(target, "mod"); err != nil {
		t.Fatalf("Namespace() error = %v", err)
	}

	c, ok := target.Comments["modΩk1"]
	if !ok {
		t.Fatalf("comments = %v, want modΩk1", target.Comments)
	}
	if c.BlockID != "modΩset" {
		t.Errorf("comment blockId = %q, want modΩset", c.BlockID)
	}
	if got := target.Blocks["modΩset"].CommentID(); got != "modΩk1" {
		t.Errorf("block comment = %q, want modΩk1", got)
	}
	if _, ok := target.Comments[project.RegistryCommentID]; !ok {
		t.Error("registry comment key must not be renamed")
	}
}

// ============================================================================
// Failures
// ============================================================================

func TestNamespaceRejectsMalformedGraphs(t *testing.T) {
	t.Parallel()

	bad := "[not json"
	tests := []struct {
		name   string
		mutate func(*project.Target)
	}{
		{"definition without custom_block", func(t *project.Target) {
			delete(t.Blocks["def"].Inputs, project.InputCustomBlock)
		}},
		{"prototype without mutation", func(t *project.Target) {
			t.Blocks["proto"].Mutation = nil
		}},
		{"unparsable argument ids", func(t *project.Target) {
			t.Blocks["call"].Mutation.ArgumentIDs = &bad
		}},
		{"dangling input reference", func(t *project.Target) {
			t.Blocks["proto"].Inputs["a1"].Slots[0].ID = "gone"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := richTarget()
			tt.mutate(target)
			before := mustMarshal(t, target)

			err := Namespace(target, "mod")
			if !errors.Is(err, ErrMalformedGraph) {
				t.Fatalf("Namespace() error = %v, want ErrMalformedGraph", err)
			}
			var graphErr *MalformedGraphError
			if !errors.As(err, &graphErr) || graphErr.Target != "Main" {
				t.Errorf("error should be *MalformedGraphError for Main, got %#v", err)
			}
			if after := mustMarshal(t, target); after != before {
				t.Error("a failed Namespace() must leave the target unchanged")
			}
		})
	}
}

func TestNamespaceRejectsInvalidName(t *testing.T) {
	t.Parallel()

	err := Namespace(richTarget(), "bad name")
	if !errors.Is(err, ErrInvalidModuleName) {
		t.Errorf("Namespace() error = %v, want ErrInvalidModuleName", err)
	}
}
