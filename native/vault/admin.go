package vault

import "github.com/holiman/uint256"

func (e *Engine) requireAdmin(caller [20]byte) (*Params, error) {
	params, err := e.loadParams()
	if err != nil {
		return nil, err
	}
	if isZeroAddress(params.Admin) {
		return nil, ErrAdminNotSet
	}
	if params.Admin != caller {
		return nil, ErrUnauthorized
	}
	return params, nil
}

// IsAdmin reports whether id is the current administrator.
func (e *Engine) IsAdmin(id [20]byte) bool {
	if e == nil || e.state == nil || isZeroAddress(id) {
		return false
	}
	params, err := e.loadParams()
	if err != nil {
		return false
	}
	return params.Admin == id
}

// Bootstrap installs the first administrator. It fails once an admin exists.
func (e *Engine) Bootstrap(admin [20]byte) error {
	return e.execute(func() error {
		if isZeroAddress(admin) {
			return ErrZeroAddress
		}
		params, err := e.loadParams()
		if err != nil {
			return err
		}
		if !isZeroAddress(params.Admin) {
			return ErrAdminAlreadySet
		}
		params.Admin = admin
		if err := e.state.VaultParamsPut(params); err != nil {
			return err
		}
		e.emit(ParamsUpdatedEvent("admin", identityString(admin)))
		return nil
	})
}

// TransferAdmin hands administration to next.
func (e *Engine) TransferAdmin(caller, next [20]byte) error {
	return e.execute(func() error {
		params, err := e.requireAdmin(caller)
		if err != nil {
			return err
		}
		if isZeroAddress(next) {
			return ErrZeroAddress
		}
		if params.Admin == next {
			return ErrNoChange
		}
		params.Admin = next
		if err := e.state.VaultParamsPut(params); err != nil {
			return err
		}
		e.emit(ParamsUpdatedEvent("admin", identityString(next)))
		return nil
	})
}

// SetTreasury configures where swept excess is sent.
func (e *Engine) SetTreasury(caller, treasury [20]byte) error {
	return e.execute(func() error {
		params, err := e.requireAdmin(caller)
		if err != nil {
			return err
		}
		if isZeroAddress(treasury) {
			return ErrZeroAddress
		}
		if err := e.requireHolder(treasury); err != nil {
			return err
		}
		if params.Treasury == treasury {
			return ErrNoChange
		}
		params.Treasury = treasury
		if err := e.state.VaultParamsPut(params); err != nil {
			return err
		}
		e.emit(ParamsUpdatedEvent("treasury", identityString(treasury)))
		return nil
	})
}

// SetDepositCap sets the per-account balance ceiling. Zero disables the cap.
func (e *Engine) SetDepositCap(caller [20]byte, limit *uint256.Int) error {
	return e.execute(func() error {
		params, err := e.requireAdmin(caller)
		if err != nil {
			return err
		}
		next := cloneInt(limit)
		if next.Gt(maxLedgerValue) {
			return ErrOverflow
		}
		if next.Eq(params.DepositCap) {
			return ErrNoChange
		}
		params.DepositCap = next
		if err := e.state.VaultParamsPut(params); err != nil {
			return err
		}
		e.emit(ParamsUpdatedEvent("depositCap", next.Dec()))
		return nil
	})
}

// SetRole adds or removes member from one of the keyed permission sets.
func (e *Engine) SetRole(caller [20]byte, role Role, member [20]byte, enabled bool) error {
	return e.execute(func() error {
		if _, err := e.requireAdmin(caller); err != nil {
			return err
		}
		if !role.Valid() {
			return ErrInvalidRole
		}
		if isZeroAddress(member) {
			return ErrZeroAddress
		}
		current, err := e.state.VaultRoleHas(role, member)
		if err != nil {
			return err
		}
		if current == enabled {
			return ErrNoChange
		}
		if err := e.state.VaultRoleSet(role, member, enabled); err != nil {
			return err
		}
		e.emit(RoleUpdatedEvent(role, member, enabled))
		return nil
	})
}

// BindRight routes purchases of rightID to destination. Approval of the
// destination is checked at participation time.
func (e *Engine) BindRight(caller [20]byte, rightID [32]byte, destination [20]byte) error {
	return e.execute(func() error {
		if _, err := e.requireAdmin(caller); err != nil {
			return err
		}
		if isZeroAddress(destination) {
			return ErrZeroAddress
		}
		current, bound, err := e.state.VaultRightGet(rightID)
		if err != nil {
			return err
		}
		if bound && current == destination {
			return ErrNoChange
		}
		if err := e.state.VaultRightPut(rightID, destination); err != nil {
			return err
		}
		e.emit(RightBoundEvent(rightID, destination))
		return nil
	})
}

// Pause blocks new inflows and obligations. Exits stay open.
func (e *Engine) Pause(caller [20]byte) error { return e.setPaused(caller, true) }

// Unpause lifts a pause.
func (e *Engine) Unpause(caller [20]byte) error { return e.setPaused(caller, false) }

func (e *Engine) setPaused(caller [20]byte, paused bool) error {
	return e.execute(func() error {
		if _, err := e.requireAdmin(caller); err != nil {
			return err
		}
		if e.state.IsPaused(ModuleName) == paused {
			return ErrNoChange
		}
		if err := e.state.SetModulePaused(ModuleName, paused); err != nil {
			return err
		}
		e.emit(PauseToggledEvent(paused))
		return nil
	})
}
