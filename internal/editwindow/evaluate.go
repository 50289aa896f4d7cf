package editwindow

// Evaluate decides whether the actor may modify the entity at actor.Now.
// It is total and deterministic: malformed input (unknown kind, missing
// reference timestamp) denies with no-permission instead of panicking, and
// identical inputs always produce identical decisions.
func Evaluate(entity Entity, actor Actor) Decision {
	if !entity.Kind.Known() || entity.CreatedAt.IsZero() {
		return deny(ReasonNoPermission)
	}

	rule, ok := RuleFor(actor.Role, entity.Kind)
	if !ok {
		return deny(ReasonNoPermission)
	}

	if rule.Override {
		return Decision{Allowed: true}
	}

	reference := entity.CreatedAt
	switch rule.Reference {
	case RefSessionStart:
		reference = entity.SessionStartsAt
	case RefDueDate:
		reference = entity.DueAt
	}
	if reference.IsZero() {
		return deny(ReasonNoPermission)
	}

	if rule.Unlimited {
		return Decision{Allowed: true}
	}

	// elapsed == window is still allowed: the boundary is inclusive.
	elapsed := actor.Now.Sub(reference)
	if elapsed <= rule.Window {
		return Decision{Allowed: true, Remaining: rule.Window - elapsed}
	}
	return Decision{
		Allowed:       false,
		Reason:        ReasonWindowExpired,
		ElapsedOverBy: elapsed - rule.Window,
	}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}
