package timer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
)

func mustAction(t *testing.T, kind timer.ActionKind) timer.Action {
	t.Helper()
	a, err := timer.NewAction(string(kind), timer.Patch{})
	require.NoError(t, err)
	return a
}

func TestNewAction_ValidatesKindAndFields(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		kind    string
		patch   timer.Patch
		wantErr error
	}{
		{name: "Toggle", kind: "toggle"},
		{name: "Postpone", kind: "postpone"},
		{name: "Complete", kind: "complete"},
		{name: "Pin", kind: "pin"},
		{name: "Unpin", kind: "unpin"},
		{name: "UpdateTitle", kind: "update", patch: timer.Patch{Title: ptr("bread")}},
		{name: "Unknown", kind: "explode", wantErr: timer.ErrInvalidAction},
		{name: "Empty", kind: "", wantErr: timer.ErrInvalidAction},
		{name: "ToggleWithFields", kind: "toggle", patch: timer.Patch{Title: ptr("x")}, wantErr: timer.ErrInvalidPatch},
		{name: "UpdateWithoutFields", kind: "update", wantErr: timer.ErrInvalidPatch},
		{name: "UpdateBlankCategory", kind: "update", patch: timer.Patch{Category: ptr("  ")}, wantErr: timer.ErrInvalidCategory},
		{name: "UpdateBadUpgrade", kind: "update", patch: timer.Patch{UpgradeType: ptr("castle")}, wantErr: timer.ErrInvalidUpgrade},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			a, err := timer.NewAction(testCase.kind, testCase.patch)
			if testCase.wantErr != nil {
				require.ErrorIs(t, err, testCase.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, timer.ActionKind(testCase.kind), a.Kind)
		})
	}
}

func TestNewReminder_StartsActiveWithFullDuration(t *testing.T) {
	t.Parallel()

	r, err := timer.NewReminder(timer.NewReminderParams{
		UserID:      "u1",
		Title:       "  barracks  ",
		Category:    "cooking",
		UpgradeType: models.UpgradeBuilding,
		Minutes:     5,
		Order:       3,
	}, t0)
	require.NoError(t, err)

	want := models.Reminder{
		UserID:           "u1",
		Title:            ptr("barracks"),
		Category:         "cooking",
		UpgradeType:      models.UpgradeBuilding,
		TotalSeconds:     300,
		RemainingSeconds: 300,
		IsActive:         true,
		CreatedAt:        t0,
		EndTime:          t0 + 300_000,
		Order:            3,
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Fatalf("NewReminder mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, timer.PhaseActive, timer.PhaseOf(&r))
}

func TestNewReminder_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	base := timer.NewReminderParams{Category: "c", UpgradeType: models.UpgradeLab, Seconds: 1}

	zero := base
	zero.Seconds = 0
	_, err := timer.NewReminder(zero, t0)
	require.ErrorIs(t, err, timer.ErrInvalidDuration)

	negative := base
	negative.Minutes = -1
	_, err = timer.NewReminder(negative, t0)
	require.ErrorIs(t, err, timer.ErrInvalidDuration)

	huge := base
	huge.Hours = 3_000_000_000_000
	_, err = timer.NewReminder(huge, t0)
	require.ErrorIs(t, err, timer.ErrInvalidDuration)

	overYear := base
	overYear.Hours = 8760
	overYear.Seconds = 1
	_, err = timer.NewReminder(overYear, t0)
	require.ErrorIs(t, err, timer.ErrInvalidDuration)

	year := base
	year.Hours = 8760
	year.Seconds = 0
	r, err := timer.NewReminder(year, t0)
	require.NoError(t, err)
	assert.Equal(t, timer.MaxTotalSeconds, r.TotalSeconds)
	assert.Equal(t, t0+timer.MaxTotalSeconds*1000, r.EndTime)

	noCategory := base
	noCategory.Category = " "
	_, err = timer.NewReminder(noCategory, t0)
	require.ErrorIs(t, err, timer.ErrInvalidCategory)

	badUpgrade := base
	badUpgrade.UpgradeType = "none"
	_, err = timer.NewReminder(badUpgrade, t0)
	require.ErrorIs(t, err, timer.ErrInvalidUpgrade)

	blankTitle := base
	blankTitle.Title = "   "
	r, err = timer.NewReminder(blankTitle, t0)
	require.NoError(t, err)
	assert.Nil(t, r.Title)
}

func TestToggle_PausesAndResumes(t *testing.T) {
	t.Parallel()

	r := activeReminder(300, t0)

	paused, err := timer.Apply(r, mustAction(t, timer.ActionToggle), t0+100_000)
	require.NoError(t, err)
	assert.False(t, paused.Completed)
	assert.False(t, paused.Reminder.IsActive)
	assert.Equal(t, int64(200), paused.Reminder.RemainingSeconds)
	require.NotNil(t, paused.Reminder.PausedAt)
	assert.Equal(t, t0+100_000, *paused.Reminder.PausedAt)
	assert.Equal(t, timer.PhasePaused, timer.PhaseOf(&paused.Reminder))

	resumed, err := timer.Apply(paused.Reminder, mustAction(t, timer.ActionToggle), t0+150_000)
	require.NoError(t, err)
	assert.True(t, resumed.Reminder.IsActive)
	assert.Nil(t, resumed.Reminder.PausedAt)
	assert.Equal(t, t0+350_000, resumed.Reminder.EndTime)

	reconciled, completed := timer.Reconcile(resumed.Reminder, t0+349_000)
	assert.False(t, completed)
	assert.Equal(t, int64(1), reconciled.RemainingSeconds)

	// the input is never modified in place
	assert.True(t, r.IsActive)
	assert.Nil(t, r.PausedAt)
}

func TestToggle_PauseThenResumeAtSameInstantKeepsRemaining(t *testing.T) {
	t.Parallel()

	for _, offset := range []int64{0, 1, 999, 1_000, 42_500, 299_999} {
		r := activeReminder(300, t0)
		at := t0 + offset

		before, _ := timer.Reconcile(r, at)

		paused, err := timer.Apply(r, mustAction(t, timer.ActionToggle), at)
		require.NoError(t, err)
		resumed, err := timer.Apply(paused.Reminder, mustAction(t, timer.ActionToggle), at)
		require.NoError(t, err)

		assert.True(t, resumed.Reminder.IsActive)
		assert.Equal(t, at+paused.Reminder.RemainingSeconds*1000, resumed.Reminder.EndTime)

		after, _ := timer.Reconcile(resumed.Reminder, at)
		assert.Equal(t, before.RemainingSeconds, after.RemainingSeconds, "offset %d", offset)
	}
}

func TestToggle_RejectsCompletedReminder(t *testing.T) {
	t.Parallel()

	r := activeReminder(60, t0)
	done, err := timer.Apply(r, mustAction(t, timer.ActionComplete), t0)
	require.NoError(t, err)

	_, err = timer.Apply(done.Reminder, mustAction(t, timer.ActionToggle), t0+1_000)
	require.ErrorIs(t, err, timer.ErrCompleted)
}

func TestPostpone_ResetsFromAnyPhase(t *testing.T) {
	t.Parallel()

	active := activeReminder(60, t0)

	pausedRes, err := timer.Apply(active, mustAction(t, timer.ActionToggle), t0+10_000)
	require.NoError(t, err)

	completedRes, err := timer.Apply(active, mustAction(t, timer.ActionComplete), t0+10_000)
	require.NoError(t, err)

	t1 := t0 + 500_000
	for name, r := range map[string]models.Reminder{
		"active":    active,
		"paused":    pausedRes.Reminder,
		"completed": completedRes.Reminder,
	} {
		res, err := timer.Apply(r, mustAction(t, timer.ActionPostpone), t1)
		require.NoError(t, err, name)

		got := res.Reminder
		assert.Equal(t, int64(60), got.RemainingSeconds, name)
		assert.False(t, got.IsCompleted, name)
		assert.True(t, got.IsActive, name)
		assert.Equal(t, t1+60_000, got.EndTime, name)
		assert.Nil(t, got.PausedAt, name)
		assert.False(t, res.Completed, name)
	}
}

func TestComplete_IsTerminalAndReportedOnce(t *testing.T) {
	t.Parallel()

	r := activeReminder(60, t0)
	paused, err := timer.Apply(r, mustAction(t, timer.ActionToggle), t0+5_000)
	require.NoError(t, err)

	first, err := timer.Apply(paused.Reminder, mustAction(t, timer.ActionComplete), t0+6_000)
	require.NoError(t, err)
	assert.True(t, first.Completed)
	assert.True(t, first.Reminder.IsCompleted)
	assert.False(t, first.Reminder.IsActive)
	assert.Zero(t, first.Reminder.RemainingSeconds)
	// stale pause timestamp is kept, completion wins
	assert.NotNil(t, first.Reminder.PausedAt)
	assert.Equal(t, timer.PhaseCompleted, timer.PhaseOf(&first.Reminder))

	second, err := timer.Apply(first.Reminder, mustAction(t, timer.ActionComplete), t0+7_000)
	require.NoError(t, err)
	assert.False(t, second.Completed)
	if diff := cmp.Diff(first.Reminder, second.Reminder); diff != "" {
		t.Fatalf("second complete changed the reminder (-want +got):\n%s", diff)
	}
}

func TestPinAndUnpin_DoNotTouchTiming(t *testing.T) {
	t.Parallel()

	r := activeReminder(60, t0)

	pinned, err := timer.Apply(r, mustAction(t, timer.ActionPin), t0+30_000)
	require.NoError(t, err)
	assert.True(t, pinned.Reminder.Pinned)

	want := r
	want.Pinned = true
	if diff := cmp.Diff(want, pinned.Reminder); diff != "" {
		t.Fatalf("pin mismatch (-want +got):\n%s", diff)
	}

	unpinned, err := timer.Apply(pinned.Reminder, mustAction(t, timer.ActionUnpin), t0+31_000)
	require.NoError(t, err)
	if diff := cmp.Diff(r, unpinned.Reminder); diff != "" {
		t.Fatalf("unpin mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_PatchesOnlyDescriptiveFields(t *testing.T) {
	t.Parallel()

	r := activeReminder(60, t0)
	r.Title = ptr("old")

	a, err := timer.NewAction("update", timer.Patch{
		Title:       ptr("  "),
		Category:    ptr(" research "),
		UpgradeType: ptr(models.UpgradePet),
	})
	require.NoError(t, err)

	res, err := timer.Apply(r, a, t0+10_000)
	require.NoError(t, err)

	want := r
	want.Title = nil
	want.Category = "research"
	want.UpgradeType = models.UpgradePet
	if diff := cmp.Diff(want, res.Reminder); diff != "" {
		t.Fatalf("update mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_RejectsZeroAction(t *testing.T) {
	t.Parallel()

	_, err := timer.Apply(activeReminder(60, t0), timer.Action{}, t0)
	require.ErrorIs(t, err, timer.ErrInvalidAction)
}
