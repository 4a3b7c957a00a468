package requirementcatalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	dbmodels "barangay-services-backend/models/db"
)

func TestParse(t *testing.T) {
	t.Run(`structured JSON array`, func(t *testing.T) {
		list := Parse(`["Valid ID", "Proof of Residency"]`)
		require.Equal(t, []string{"Valid ID", "Proof of Residency"}, list)
	})

	t.Run(`legacy comma separated`, func(t *testing.T) {
		list := Parse("Valid ID, Proof of Residency , ")
		require.Equal(t, []string{"Valid ID", "Proof of Residency"}, list)
	})

	t.Run(`single free-text item`, func(t *testing.T) {
		list := Parse("Barangay Clearance Form")
		require.Equal(t, []string{"Barangay Clearance Form"}, list)
	})

	t.Run(`empty and blank input`, func(t *testing.T) {
		require.Empty(t, Parse(""))
		require.Empty(t, Parse("   "))
		require.Empty(t, Parse(`[]`))
		require.Empty(t, Parse(`["", "  "]`))
	})

	t.Run(`round trip through Serialize`, func(t *testing.T) {
		raw := Serialize([]string{" Valid ID ", "", "Cedula"})
		require.Equal(t, []string{"Valid ID", "Cedula"}, Parse(raw))
	})
}

func TestMissingCategories(t *testing.T) {
	required := []string{"Valid ID", "Proof of Residency"}

	t.Run(`nothing attached`, func(t *testing.T) {
		missing := MissingCategories(required, nil)
		require.Equal(t, required, missing)
	})

	t.Run(`one slot unmet`, func(t *testing.T) {
		attachments := []dbmodels.EvidenceAttachment{
			{CategoryName: "Valid ID", OriginalFileName: "id.jpg"},
		}
		missing := MissingCategories(required, attachments)
		require.Equal(t, []string{"Proof of Residency"}, missing)
	})

	t.Run(`case and spacing insensitive match`, func(t *testing.T) {
		attachments := []dbmodels.EvidenceAttachment{
			{CategoryName: "valid id "},
			{CategoryName: " PROOF OF RESIDENCY"},
		}
		require.Empty(t, MissingCategories(required, attachments))
	})

	t.Run(`extra ad-hoc files do not satisfy required slots`, func(t *testing.T) {
		attachments := []dbmodels.EvidenceAttachment{
			{CategoryName: "Supporting Document"},
		}
		missing := MissingCategories(required, attachments)
		require.Len(t, missing, 2)
	})
}

func TestGroupByCategory(t *testing.T) {
	required := []string{"Valid ID"}
	attachments := []dbmodels.EvidenceAttachment{
		{CategoryName: "Valid ID", OriginalFileName: "front.jpg"},
		{CategoryName: "Valid ID", OriginalFileName: "back.jpg"},
		{CategoryName: "Supporting Document", OriginalFileName: "note.pdf"},
	}
	grouped := GroupByCategory(required, attachments)
	require.Len(t, grouped["Valid ID"], 2)
	require.Len(t, grouped["Supporting Document"], 1)
}
