package editwindow

import "time"

// Reference selects the timestamp an edit window is measured from.
type Reference int

const (
	// RefCreation measures from the entity's original creation instant.
	RefCreation Reference = iota
	// RefSessionStart measures from the course session's scheduled start.
	RefSessionStart
	// RefDueDate measures from the assignment due date: the window is
	// open while the due date has not passed.
	RefDueDate
)

// Rule is one row of the policy table.
type Rule struct {
	Window    time.Duration
	Unlimited bool
	Override  bool
	Reference Reference
}

type policyKey struct {
	role Role
	kind Kind
}

// policyTable is the single source of truth for edit rights. The thresholds
// were previously duplicated across portal pages; a change here applies
// everywhere, client hints and server enforcement alike.
var policyTable = map[policyKey]Rule{
	{RoleAdmin, kindAny}: {Unlimited: true, Override: true},

	{RoleTeacher, KindGrade}:      {Window: 48 * time.Hour, Reference: RefCreation},
	{RoleTeacher, KindAssignment}: {Reference: RefDueDate},

	{RoleGuardian, KindGrade}:            {Window: 30 * 24 * time.Hour, Reference: RefCreation},
	{RoleGuardian, KindAttendanceRecord}: {Window: 48 * time.Hour, Reference: RefSessionStart},
}

// RuleFor looks up the rule for a role and kind. The second return is false
// when the role has no edit rights on the kind at all.
func RuleFor(role Role, kind Kind) (Rule, bool) {
	if rule, ok := policyTable[policyKey{role, kind}]; ok {
		return rule, true
	}
	if rule, ok := policyTable[policyKey{role, kindAny}]; ok {
		return rule, true
	}
	return Rule{}, false
}
