// SPDX-License-Identifier: MPL-2.0

package project

// Asset kinds.
const (
	KindCostume AssetKind = "costume"
	KindSound   AssetKind = "sound"
)

type (
	// AssetKind distinguishes costumes from sounds.
	AssetKind string

	// Asset is a costume or sound entry. The payload file it refers to lives
	// next to project.json in the archive under Filename().
	Asset struct {
		Name       string
		AssetID    string
		MD5Ext     string
		DataFormat string

		extra members
	}
)

// Filename returns the archive payload name of the asset.
func (a *Asset) Filename() string {
	if a.MD5Ext != "" {
		return a.MD5Ext
	}
	if a.AssetID == "" {
		return ""
	}
	return a.AssetID + "." + a.DataFormat
}

// Clone returns a deep enough copy to append to another target.
func (a *Asset) Clone() *Asset {
	c := *a
	c.extra = a.extra.clone()
	return &c
}

// UnmarshalJSON decodes the asset keeping rotation centers, rates and other members.
func (a *Asset) UnmarshalJSON(data []byte) error {
	m, err := readMembers(data)
	if err != nil {
		return err
	}
	for key, dst := range map[string]*string{
		"name":       &a.Name,
		"assetId":    &a.AssetID,
		"md5ext":     &a.MD5Ext,
		"dataFormat": &a.DataFormat,
	} {
		if err := m.decode(key, dst); err != nil {
			return err
		}
	}
	a.extra = m
	return nil
}

// MarshalJSON encodes the asset.
func (a *Asset) MarshalJSON() ([]byte, error) {
	out := a.extra.clone()
	for key, val := range map[string]string{
		"name":       a.Name,
		"assetId":    a.AssetID,
		"md5ext":     a.MD5Ext,
		"dataFormat": a.DataFormat,
	} {
		if val == "" && key != "name" {
			continue
		}
		if err := out.set(key, val); err != nil {
			return nil, err
		}
	}
	return out.marshal()
}
