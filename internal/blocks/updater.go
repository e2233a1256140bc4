package blocks

import (
	"errors"

	"github.com/debemdeboas/inkpad/internal/document"
)

// Target is the document a block lives in.
type Target interface {
	UpdateAttrs(id document.NodeID, patch document.Attrs) error
	Attrs(id document.NodeID) (document.Attrs, error)
}

// AttrUpdater pushes attribute patches into one node. Patches aimed at a node that no longer
// exists are dropped.
type AttrUpdater struct {
	target Target
	id     document.NodeID
}

func Bind(target Target, id document.NodeID) *AttrUpdater {
	return &AttrUpdater{target: target, id: id}
}

func (u *AttrUpdater) ID() document.NodeID {
	return u.id
}

// Update applies patch and reports whether the node was still there.
func (u *AttrUpdater) Update(patch document.Attrs) bool {
	err := u.target.UpdateAttrs(u.id, patch)
	switch {
	case err == nil:
		return true
	case errors.Is(err, document.ErrDetached):
		blocksLogger.Debug().Int("node_id", int(u.id)).Msg("Dropping attribute update for a removed block")
	default:
		blocksLogger.Warn().Err(err).Int("node_id", int(u.id)).Msg("Attribute update failed")
	}
	return false
}

// Attrs returns the node's current attributes, or false once it is gone.
func (u *AttrUpdater) Attrs() (document.Attrs, bool) {
	attrs, err := u.target.Attrs(u.id)
	if err != nil {
		return nil, false
	}
	return attrs, true
}

// Edit puts the block back into its input form.
func (u *AttrUpdater) Edit() bool {
	return u.Update(document.Attrs{document.AttrEditing: true})
}
