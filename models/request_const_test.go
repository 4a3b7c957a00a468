package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusIsAllowChange(t *testing.T) {
	t.Run("pending decisions", func(t *testing.T) {
		for _, kind := range []RequestKind{KindDocument, KindBenefit, KindItemLoan, KindSos, KindRelocation} {
			require.True(t, StatusPending.IsAllowChange(StatusApproved, kind))
			require.True(t, StatusPending.IsAllowChange(StatusRejected, kind))
			require.True(t, StatusPending.IsAllowChange(StatusCancelled, kind))
			require.False(t, StatusPending.IsAllowChange(StatusCompleted, kind))
			require.False(t, StatusPending.IsAllowChange(StatusReady, kind))
		}
	})

	t.Run("fulfillment stages for document and benefit", func(t *testing.T) {
		for _, kind := range []RequestKind{KindDocument, KindBenefit} {
			require.True(t, StatusApproved.IsAllowChange(StatusProcessing, kind))
			require.True(t, StatusApproved.IsAllowChange(StatusCompleted, kind))
			require.True(t, StatusProcessing.IsAllowChange(StatusReady, kind))
			require.True(t, StatusReady.IsAllowChange(StatusCompleted, kind))
			require.False(t, StatusProcessing.IsAllowChange(StatusCompleted, kind))
		}
	})

	t.Run("direct completion for the remaining kinds", func(t *testing.T) {
		for _, kind := range []RequestKind{KindItemLoan, KindSos, KindRelocation} {
			require.True(t, StatusApproved.IsAllowChange(StatusCompleted, kind))
			require.False(t, StatusApproved.IsAllowChange(StatusProcessing, kind))
			require.False(t, StatusProcessing.IsAllowChange(StatusReady, kind))
			require.False(t, StatusReady.IsAllowChange(StatusCompleted, kind))
		}
	})

	t.Run("terminal statuses never move", func(t *testing.T) {
		for _, from := range []RequestStatus{StatusRejected, StatusCompleted, StatusCancelled} {
			require.True(t, from.IsTerminal())
			for _, to := range []RequestStatus{StatusPending, StatusApproved, StatusProcessing, StatusReady, StatusCompleted} {
				require.False(t, from.IsAllowChange(to, KindDocument))
			}
		}
	})
}

func TestKindDefaults(t *testing.T) {
	require.Equal(t, PriorityUrgent, KindSos.DefaultPriority())
	require.Equal(t, PriorityHigh, KindRelocation.DefaultPriority())
	require.Equal(t, PriorityMedium, KindDocument.DefaultPriority())

	require.True(t, KindDocument.RequiresCategory())
	require.True(t, KindBenefit.RequiresCategory())
	require.False(t, KindSos.RequiresCategory())
}
