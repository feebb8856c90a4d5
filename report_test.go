package ghchk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yasuyuky/gh-chk/types"
)

func TestReport_Counts(t *testing.T) {
	report := &Report{Results: []Result{
		{Ref: itemA, State: ItemSucceeded, Diff: &Diff{IsBaseline: true}},
		{Ref: itemB, State: ItemSucceeded, Diff: &Diff{Added: types.NewLoginSet("bob"), Removed: types.NewLoginSet()}},
		{Ref: ItemRef{Owner: "octo", Repo: "hello", Number: 3}, State: ItemSucceeded, Diff: &Diff{}},
		{Ref: ItemRef{Owner: "octo", Repo: "hello", Number: 4}, State: ItemFailed, Err: errors.New("boom")},
	}}

	require.Equal(t, 3, report.Succeeded())
	require.Equal(t, 1, report.Failed())
	require.Equal(t, 1, report.Baselines())
	require.Len(t, report.Changed(), 1)
	require.Equal(t, itemB, report.Changed()[0].Ref)
	require.Equal(t, 1, report.ExitCode())

	err := report.Err()
	require.ErrorIs(t, err, ErrItemsFailed)
	require.Contains(t, err.Error(), "1 of 4")
}

func TestReport_AllSucceeded(t *testing.T) {
	report := &Report{Results: []Result{{Ref: itemA, State: ItemSucceeded, Diff: &Diff{}}}}

	require.Equal(t, 0, report.ExitCode())
	require.NoError(t, report.Err())
	require.Empty(t, report.Changed())
}
