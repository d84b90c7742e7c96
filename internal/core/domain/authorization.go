package domain

// IsRegulator reports ministry-wide (cross-SACCO) visibility
func (a Actor) IsRegulator() bool {
	return a.Role.IsMinistry()
}

// IsSuperAdmin reports whether the actor may administer users and SACCOs
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSystemAdmin
}

// CanViewSacco reports whether the actor may read data of saccoID
func (a Actor) CanViewSacco(saccoID uint) bool {
	if a.IsRegulator() {
		return true
	}
	id, ok := a.SaccoID()
	return ok && id == saccoID
}

// CanEditSacco reports whether the actor may edit a SACCO record
func (a Actor) CanEditSacco() bool {
	return a.IsSuperAdmin()
}

// CanSubmitReturn reports whether the actor may prepare and submit returns for saccoID
func (a Actor) CanSubmitReturn(saccoID uint) bool {
	if !a.Role.IsSaccoScoped() {
		return false
	}
	id, ok := a.SaccoID()
	return ok && id == saccoID
}

// CanReviewReturn reports whether the actor may review returns
func (a Actor) CanReviewReturn() bool {
	return a.IsRegulator()
}
