package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	membership "workforce-console/backend/internal/membership/domain"
)

// Precondition sentinels. They reach callers wrapped in a *PreconditionError.
var (
	ErrEmptySelection    = errors.New("selection is empty")
	ErrInvalidTargetRole = errors.New("target role must be admin or member")
	ErrOwnerRoleChange   = errors.New("the organization owner's role cannot be changed")
	ErrNoOpRoleChange    = errors.New("selected members already have the target role")
	ErrNothingApplicable = errors.New("no applicable action for the selection")
	ErrForbidden         = errors.New("caller is not allowed to perform this action")
	ErrDeclined          = errors.New("confirmation declined")
)

// PreconditionError is returned when a batch is rejected before any remote call.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string { return "bulk precondition: " + e.Err.Error() }
func (e *PreconditionError) Unwrap() error { return e.Err }

// Reason is the user-facing message for the rejection.
func (e *PreconditionError) Reason() string { return e.Err.Error() }

func reject(err error) error { return &PreconditionError{Err: err} }

// ActionKind names a bulk action.
type ActionKind string

const (
	KindRemove     ActionKind = "remove"
	KindChangeRole ActionKind = "change_role"
)

// Action is what the batch does to each applicable item.
type Action struct {
	Kind       ActionKind
	TargetRole membership.Role
}

// ActionRemove cancels pending invitations and removes active members.
var ActionRemove = Action{Kind: KindRemove}

// ActionChangeRole sets members to role. Invitations are not applicable.
func ActionChangeRole(role membership.Role) Action {
	return Action{Kind: KindChangeRole, TargetRole: role}
}

func (a Action) String() string {
	if a.Kind == KindChangeRole {
		return fmt.Sprintf("%s(%s)", a.Kind, a.TargetRole)
	}
	return string(a.Kind)
}

// Item is one selected row: a member or an invitation.
type Item struct {
	Member     *membership.Member
	Invitation *membership.Invitation
}

// MemberItem selects m.
func MemberItem(m membership.Member) Item { return Item{Member: &m} }

// InvitationItem selects inv.
func InvitationItem(inv membership.Invitation) Item { return Item{Invitation: &inv} }

// Label identifies the item in logs and reports.
func (it Item) Label() string {
	switch {
	case it.Member != nil:
		if id := it.Member.Identifier(); id != "" {
			return "member:" + id
		}
		return "member:?"
	case it.Invitation != nil:
		if it.Invitation.ID != "" {
			return "invitation:" + it.Invitation.ID
		}
		return "invitation:" + it.Invitation.Email
	default:
		return "empty"
	}
}

// OpKind is a single remote mutation.
type OpKind string

const (
	OpCancelInvitation OpKind = "cancel_invitation"
	OpRemoveMember     OpKind = "remove_member"
	OpUpdateRole       OpKind = "update_role"
)

// Op is one remote call the batch will issue.
type Op struct {
	Kind   OpKind
	Target string
	Role   membership.Role
}

// Plan is the deterministic partition of a selection. Ops keep selection order.
type Plan struct {
	Ops []Op
	// NotApplicable lists items no path applies to; they are reported, never executed.
	NotApplicable []Item
	// Unchanged lists members skipped because they already hold the target role.
	Unchanged []Item
}

// Partition splits selection into remote operations for action at now. Preconditions that
// fail return a *PreconditionError together with the partial Plan for reporting.
func Partition(action Action, selection []Item, now time.Time) (Plan, error) {
	var plan Plan
	if len(selection) == 0 {
		return plan, reject(ErrEmptySelection)
	}
	switch action.Kind {
	case KindRemove:
	case KindChangeRole:
		role, ok := membership.ParseRole(string(action.TargetRole))
		if !ok || role == membership.RoleOwner {
			return plan, reject(ErrInvalidTargetRole)
		}
		action.TargetRole = role
		for _, it := range selection {
			if it.Member != nil && it.Member.IsOwner() {
				return plan, reject(ErrOwnerRoleChange)
			}
		}
	default:
		return plan, reject(fmt.Errorf("unknown action %q", action.Kind))
	}

	seen := make(map[Op]struct{}, len(selection))
	add := func(op Op) {
		if _, dup := seen[op]; dup {
			return
		}
		seen[op] = struct{}{}
		plan.Ops = append(plan.Ops, op)
	}
	for _, it := range selection {
		switch {
		case it.Invitation != nil && action.Kind == KindRemove && it.Invitation.Cancellable(now):
			add(Op{Kind: OpCancelInvitation, Target: strings.TrimSpace(it.Invitation.ID)})
		case it.Member != nil && it.Member.Status == membership.MemberStatusActive:
			if action.Kind == KindRemove {
				if id := it.Member.Identifier(); id != "" {
					add(Op{Kind: OpRemoveMember, Target: id})
					continue
				}
				plan.NotApplicable = append(plan.NotApplicable, it)
				continue
			}
			id := strings.TrimSpace(it.Member.ID)
			if id == "" {
				plan.NotApplicable = append(plan.NotApplicable, it)
				continue
			}
			if it.Member.Role == action.TargetRole {
				plan.Unchanged = append(plan.Unchanged, it)
				continue
			}
			add(Op{Kind: OpUpdateRole, Target: id, Role: action.TargetRole})
		default:
			plan.NotApplicable = append(plan.NotApplicable, it)
		}
	}

	if len(plan.Ops) == 0 {
		if len(plan.Unchanged) > 0 {
			return plan, reject(ErrNoOpRoleChange)
		}
		return plan, reject(ErrNothingApplicable)
	}
	return plan, nil
}
