// SPDX-License-Identifier: MPL-2.0

package merge

import (
	"encoding/json"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/spmkit/spm/pkg/project"
)

// unionBroadcasts adds the module's broadcast messages to the host stage by
// name and returns the host id of every module broadcast id.
func unionBroadcasts(host Host, mod Module) map[string]string {
	dst := host.Project.Stage()
	if dst == nil {
		dst = host.Target
	}

	byName := make(map[string]string, len(dst.Broadcasts))
	for _, id := range slices.Sorted(maps.Keys(dst.Broadcasts)) {
		if _, ok := byName[dst.Broadcasts[id]]; !ok {
			byName[dst.Broadcasts[id]] = id
		}
	}

	src := make(map[string]string, len(mod.Broadcasts)+len(mod.Target.Broadcasts))
	maps.Copy(src, mod.Broadcasts)
	maps.Copy(src, mod.Target.Broadcasts)

	remap := make(map[string]string, len(src))
	for _, id := range slices.Sorted(maps.Keys(src)) {
		name := src[id]
		hostID, ok := byName[name]
		if !ok {
			hostID = id
			if _, taken := dst.Broadcasts[hostID]; taken {
				hostID = mod.Name.Tag().Apply(id)
			}
			dst.Broadcasts[hostID] = name
			byName[name] = hostID
		}
		remap[id] = hostID
	}
	return remap
}

// remapBroadcasts points broadcast references of b at the host ids.
func remapBroadcasts(b *project.Block, remap map[string]string) {
	if len(remap) == 0 {
		return
	}
	if b.Primitive != nil {
		remapPrimitive(b.Primitive, remap)
		return
	}
	for _, in := range b.Inputs {
		for _, slot := range in.Slots {
			if slot.Primitive != nil {
				remapPrimitive(slot.Primitive, remap)
			}
		}
	}
	if f, ok := b.Fields[project.FieldBroadcast]; ok && len(f) > 1 {
		if hostID, ok := remap[f.ID()]; ok {
			raw, err := json.Marshal(hostID)
			if err == nil {
				f[1] = raw
			}
		}
	}
}

func remapPrimitive(p *project.Primitive, remap map[string]string) {
	if p.Type != project.PrimitiveBroadcast {
		return
	}
	if hostID, ok := remap[p.RefID()]; ok {
		p.SetRefID(hostID)
	}
}
