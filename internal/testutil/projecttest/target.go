// SPDX-License-Identifier: MPL-2.0

package projecttest

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/spmkit/spm/pkg/project"
)

// TargetOption configures a test target.
type TargetOption func(*project.Target)

// NewTarget creates an empty sprite with the given options applied.
func NewTarget(name string, opts ...TargetOption) *project.Target {
	t := project.NewTarget(name, false)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewStage creates an empty stage named "Stage".
func NewStage(opts ...TargetOption) *project.Target {
	t := project.NewTarget("Stage", true)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewProject wraps targets in a project, prepending a stage when none is given.
func NewProject(targets ...*project.Target) *project.Project {
	hasStage := false
	for _, t := range targets {
		if t.IsStage {
			hasStage = true
		}
	}
	if !hasStage {
		targets = append([]*project.Target{NewStage()}, targets...)
	}
	return &project.Project{Targets: targets}
}

// WithBlock adds a block under id.
func WithBlock(id string, b *project.Block) TargetOption {
	return func(t *project.Target) {
		t.Blocks[id] = b
	}
}

// WithVariable adds a variable entry with a JSON-encodable value.
func WithVariable(id, name string, value any) TargetOption {
	return func(t *project.Target) {
		raw, err := json.Marshal(value)
		if err != nil {
			raw = json.RawMessage("0")
		}
		t.Variables[id] = &project.Variable{Name: name, Value: raw}
	}
}

// WithList adds an empty list entry.
func WithList(id, name string) TargetOption {
	return func(t *project.Target) {
		t.Lists[id] = &project.List{Name: name, Values: json.RawMessage("[]")}
	}
}

// WithBroadcast adds a broadcast message.
func WithBroadcast(id, name string) TargetOption {
	return func(t *project.Target) {
		t.Broadcasts[id] = name
	}
}

// WithComment adds a comment, optionally attached to blockID.
func WithComment(id, blockID, text string) TargetOption {
	return func(t *project.Target) {
		c := project.NewComment(text)
		c.BlockID = blockID
		c.Minimized = false
		t.Comments[id] = c
	}
}

// WithCostume appends a costume backed by the given payload file name.
func WithCostume(name, md5ext string) TargetOption {
	return func(t *project.Target) {
		t.Costumes = append(t.Costumes, NewAsset(name, md5ext))
	}
}

// WithSound appends a sound backed by the given payload file name.
func WithSound(name, md5ext string) TargetOption {
	return func(t *project.Target) {
		t.Sounds = append(t.Sounds, NewAsset(name, md5ext))
	}
}

// NewAsset builds an asset descriptor from a "<hash>.<ext>" payload name.
func NewAsset(name, md5ext string) *project.Asset {
	a := &project.Asset{Name: name, MD5Ext: md5ext}
	for i := len(md5ext) - 1; i >= 0; i-- {
		if md5ext[i] == '.' {
			a.AssetID = md5ext[:i]
			a.DataFormat = md5ext[i+1:]
			break
		}
	}
	return a
}

// PayloadName returns the content-addressed payload name for data.
func PayloadName(data []byte, ext string) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]) + "." + ext
}
