package editwindow

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

func gradeEntity(createdAt time.Time) Entity {
	return Entity{ID: "grade-1", Kind: KindGrade, CreatedAt: createdAt}
}

func TestEvaluateScenarios(t *testing.T) {
	created := baseTime
	sessionStart := baseTime
	due := baseTime.Add(7 * 24 * time.Hour)

	cases := []struct {
		name        string
		entity      Entity
		actor       Actor
		wantAllowed bool
		wantReason  Reason
		wantRemain  time.Duration
		wantOver    time.Duration
	}{
		{
			name:        "teacher inside grade window",
			entity:      gradeEntity(created),
			actor:       Actor{Role: RoleTeacher, Now: created.Add(47*time.Hour + 59*time.Minute)},
			wantAllowed: true,
			wantRemain:  time.Minute,
		},
		{
			name:       "teacher past grade window",
			entity:     gradeEntity(created),
			actor:      Actor{Role: RoleTeacher, Now: created.Add(48*time.Hour + time.Minute)},
			wantReason: ReasonWindowExpired,
			wantOver:   time.Minute,
		},
		{
			name:        "guardian inside thirty day grade window",
			entity:      gradeEntity(created),
			actor:       Actor{Role: RoleGuardian, Now: created.Add(29 * 24 * time.Hour)},
			wantAllowed: true,
			wantRemain:  24 * time.Hour,
		},
		{
			name:       "guardian past thirty day grade window",
			entity:     gradeEntity(created),
			actor:      Actor{Role: RoleGuardian, Now: created.Add(31 * 24 * time.Hour)},
			wantReason: ReasonWindowExpired,
			wantOver:   24 * time.Hour,
		},
		{
			name:        "admin long after creation",
			entity:      gradeEntity(created),
			actor:       Actor{Role: RoleAdmin, Now: created.Add(400 * 24 * time.Hour)},
			wantAllowed: true,
		},
		{
			name: "guardian attendance measured from session start",
			entity: Entity{
				ID:              "att-1",
				Kind:            KindAttendanceRecord,
				CreatedAt:       sessionStart.Add(10 * time.Hour), // recorded late
				SessionStartsAt: sessionStart,
			},
			actor:       Actor{Role: RoleGuardian, Now: sessionStart.Add(47 * time.Hour)},
			wantAllowed: true,
			wantRemain:  time.Hour,
		},
		{
			name: "guardian attendance expired even though record is fresh",
			entity: Entity{
				ID:              "att-2",
				Kind:            KindAttendanceRecord,
				CreatedAt:       sessionStart.Add(72 * time.Hour),
				SessionStartsAt: sessionStart,
			},
			actor:      Actor{Role: RoleGuardian, Now: sessionStart.Add(72 * time.Hour)},
			wantReason: ReasonWindowExpired,
			wantOver:   24 * time.Hour,
		},
		{
			name: "teacher assignment before due date",
			entity: Entity{
				ID:        "asg-1",
				Kind:      KindAssignment,
				CreatedAt: created,
				DueAt:     due,
			},
			actor:       Actor{Role: RoleTeacher, Now: due.Add(-2 * time.Hour)},
			wantAllowed: true,
			wantRemain:  2 * time.Hour,
		},
		{
			name: "teacher assignment after due date",
			entity: Entity{
				ID:        "asg-1",
				Kind:      KindAssignment,
				CreatedAt: created,
				DueAt:     due,
			},
			actor:      Actor{Role: RoleTeacher, Now: due.Add(3 * time.Hour)},
			wantReason: ReasonWindowExpired,
			wantOver:   3 * time.Hour,
		},
		{
			name:       "student never edits grades",
			entity:     gradeEntity(created),
			actor:      Actor{Role: RoleStudent, Now: created},
			wantReason: ReasonNoPermission,
		},
		{
			name:       "staff has no edit rule",
			entity:     gradeEntity(created),
			actor:      Actor{Role: RoleStaff, Now: created},
			wantReason: ReasonNoPermission,
		},
		{
			name:       "teacher has no attendance rule",
			entity:     Entity{ID: "att-3", Kind: KindAttendanceRecord, CreatedAt: created, SessionStartsAt: sessionStart},
			actor:      Actor{Role: RoleTeacher, Now: created},
			wantReason: ReasonNoPermission,
		},
		{
			name:       "unknown kind fails closed",
			entity:     Entity{ID: "x", Kind: Kind("timetable"), CreatedAt: created},
			actor:      Actor{Role: RoleAdmin, Now: created},
			wantReason: ReasonNoPermission,
		},
		{
			name:       "missing creation timestamp fails closed",
			entity:     Entity{ID: "x", Kind: KindGrade},
			actor:      Actor{Role: RoleTeacher, Now: created},
			wantReason: ReasonNoPermission,
		},
		{
			name:       "attendance without session start fails closed",
			entity:     Entity{ID: "att-4", Kind: KindAttendanceRecord, CreatedAt: created},
			actor:      Actor{Role: RoleGuardian, Now: created},
			wantReason: ReasonNoPermission,
		},
		{
			name:       "assignment without due date fails closed",
			entity:     Entity{ID: "asg-2", Kind: KindAssignment, CreatedAt: created},
			actor:      Actor{Role: RoleTeacher, Now: created},
			wantReason: ReasonNoPermission,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.entity, tc.actor)
			require.Equal(t, tc.wantAllowed, got.Allowed)
			require.Equal(t, tc.wantReason, got.Reason)
			require.Equal(t, tc.wantRemain, got.Remaining)
			require.Equal(t, tc.wantOver, got.ElapsedOverBy)
		})
	}
}

// The boundary is part of the contract: a check at exactly elapsed == window
// must still pass.
func TestEvaluateBoundaryInclusive(t *testing.T) {
	entity := gradeEntity(baseTime)

	at := Evaluate(entity, Actor{Role: RoleTeacher, Now: baseTime.Add(48 * time.Hour)})
	require.True(t, at.Allowed)
	require.Zero(t, at.Remaining)

	past := Evaluate(entity, Actor{Role: RoleTeacher, Now: baseTime.Add(48*time.Hour + time.Nanosecond)})
	require.False(t, past.Allowed)
	require.Equal(t, ReasonWindowExpired, past.Reason)
	require.Equal(t, time.Duration(time.Nanosecond), past.ElapsedOverBy)

	// Due-date windows share the same inclusive boundary.
	asg := Entity{ID: "asg", Kind: KindAssignment, CreatedAt: baseTime, DueAt: baseTime.Add(24 * time.Hour)}
	require.True(t, Evaluate(asg, Actor{Role: RoleTeacher, Now: asg.DueAt}).Allowed)
	require.False(t, Evaluate(asg, Actor{Role: RoleTeacher, Now: asg.DueAt.Add(time.Second)}).Allowed)
}

// Once a window has closed for a role it never reopens at a later instant.
func TestEvaluateMonotonicClosing(t *testing.T) {
	entity := gradeEntity(baseTime)
	closed := false
	for offset := time.Duration(0); offset <= 72*time.Hour; offset += 17 * time.Minute {
		d := Evaluate(entity, Actor{Role: RoleTeacher, Now: baseTime.Add(offset)})
		if closed {
			require.False(t, d.Allowed, "window reopened at offset %s", offset)
		}
		if !d.Allowed {
			closed = true
		}
	}
	require.True(t, closed, "window never closed")
}

func TestEvaluateAdminOverride(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []Kind{KindGrade, KindAttendanceRecord, KindAssignment}
	for i := 0; i < 200; i++ {
		entity := Entity{
			ID:              "e",
			Kind:            kinds[rng.Intn(len(kinds))],
			CreatedAt:       baseTime,
			SessionStartsAt: baseTime,
			DueAt:           baseTime,
		}
		now := baseTime.Add(time.Duration(rng.Int63n(int64(10000 * time.Hour))))
		d := Evaluate(entity, Actor{Role: RoleAdmin, Now: now})
		require.True(t, d.Allowed, "admin denied on %s at %s", entity.Kind, now)
	}
}

// Identical inputs always yield identical decisions.
func TestEvaluateDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	kinds := []Kind{KindGrade, KindAttendanceRecord, KindAssignment, Kind("bogus")}
	roles := []Role{RoleStudent, RoleTeacher, RoleGuardian, RoleAdmin, RoleStaff}
	for i := 0; i < 500; i++ {
		entity := Entity{
			ID:              "e",
			Kind:            kinds[rng.Intn(len(kinds))],
			CreatedAt:       baseTime.Add(time.Duration(rng.Int63n(int64(1000 * time.Hour)))),
			SessionStartsAt: baseTime.Add(time.Duration(rng.Int63n(int64(1000 * time.Hour)))),
			DueAt:           baseTime.Add(time.Duration(rng.Int63n(int64(1000 * time.Hour)))),
		}
		actor := Actor{
			Role: roles[rng.Intn(len(roles))],
			Now:  baseTime.Add(time.Duration(rng.Int63n(int64(2000 * time.Hour)))),
		}
		require.Equal(t, Evaluate(entity, actor), Evaluate(entity, actor))
	}
}

// Recording time must not influence the attendance decision; only the
// session start matters.
func TestEvaluateAttendanceIgnoresRecordingTime(t *testing.T) {
	sessionStart := baseTime
	check := Actor{Role: RoleGuardian, Now: sessionStart.Add(40 * time.Hour)}

	for _, lag := range []time.Duration{0, time.Hour, 10 * time.Hour, 100 * time.Hour} {
		entity := Entity{
			ID:              "att",
			Kind:            KindAttendanceRecord,
			CreatedAt:       sessionStart.Add(lag),
			SessionStartsAt: sessionStart,
		}
		d := Evaluate(entity, check)
		require.True(t, d.Allowed, "lag %s changed the decision", lag)
		require.Equal(t, 8*time.Hour, d.Remaining)
	}
}
