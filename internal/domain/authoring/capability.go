// Package authoring holds the pure authoring rules: the admin capability, the
// long-text splitter, inline image detection and the generator templates.
package authoring

import "github.com/AtRiskMedia/storyreader-go/internal/domain/apperr"

// Capability is the caller's authoring permission, derived from the admin token
// by the transport layer and passed explicitly into every mutating call.
type Capability struct {
	Admin bool
}

// AdminCapability is the capability granted to a verified admin.
var AdminCapability = Capability{Admin: true}

// Require returns ErrNotAuthorized unless c carries admin rights.
func (c Capability) Require() error {
	if !c.Admin {
		return apperr.ErrNotAuthorized
	}
	return nil
}
