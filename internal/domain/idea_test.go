package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlay_KeepsFieldsThePatchOmits(t *testing.T) {
	stored := Idea{Name: "Order supplies on our website", Customer: "Coca-Cola"}
	got := stored.Overlay(Idea{Description: "Self-service ordering."})

	require.Equal(t, Idea{
		Name:        "Order supplies on our website",
		Description: "Self-service ordering.",
		Customer:    "Coca-Cola",
	}, got)
	require.Empty(t, stored.Description, "overlay must not mutate the receiver")
}

func TestOverlay_NewValuesWin(t *testing.T) {
	got := Idea{Name: "old", Customer: "Delta"}.Overlay(Idea{Name: "new"})
	require.Equal(t, "new", got.Name)
	require.Equal(t, "Delta", got.Customer)
}

func TestMergeIdea_SourceFromProfile(t *testing.T) {
	stored := Idea{Name: "n", SourceName: "Old Name", SourceEmail: "old@example.com"}
	got := MergeIdea(stored, Idea{Customer: "c"}, UserProfile{OK: true, RealName: "Jane Doe", Email: "jane@example.com"})

	require.Equal(t, Idea{Name: "n", Customer: "c", SourceName: "Jane Doe", SourceEmail: "jane@example.com"}, got)
}

func TestMergeIdea_FallsBackToStoredSource(t *testing.T) {
	stored := Idea{SourceName: "Jane Doe", SourceEmail: "jane@example.com"}
	got := MergeIdea(stored, Idea{Name: "n"}, UserProfile{OK: true})

	require.Equal(t, "Jane Doe", got.SourceName)
	require.Equal(t, "jane@example.com", got.SourceEmail)
}

func TestMergeIdea_IgnoresModelAttribution(t *testing.T) {
	got := MergeIdea(Idea{}, Idea{SourceName: "Model", SourceEmail: "model@example.com"}, UserProfile{OK: true, RealName: "Jane Doe"})
	require.Equal(t, "Jane Doe", got.SourceName)
	require.Empty(t, got.SourceEmail)
}

func TestTruncateHistory(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 9; i++ {
		history = append(history, ChatMessage{Content: fmt.Sprintf("m%d", i), Role: RoleUser})
	}

	got := TruncateHistory(history)
	require.Len(t, got, MaxHistory)
	require.Equal(t, "m3", got[0].Content)
	require.Equal(t, "m8", got[5].Content)

	got[0].Content = "changed"
	require.Equal(t, "m3", history[3].Content)

	require.Len(t, TruncateHistory(history[:2]), 2)
	require.NotNil(t, TruncateHistory(nil))
}
