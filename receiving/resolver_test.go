package receiving

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/OhmBoyz/receiving-shipping-tracker/store"
)

func TestResolverFallsBackToCSV(t *testing.T) {
	db := testDB(t)
	csvPath := filepath.Join(t.TempDir(), "idents.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"part_number,upc_code,qty\nP500,044000000001,24\nP600,044000000002,\n"), 0644))

	r := NewResolver(db, csvPath)

	// database wins when it knows the code
	_, err := db.ReplacePartIdentifiers([]store.PartIdentifier{
		{UPCCode: "044000000001", PartNumber: "P999", Qty: 6},
	})
	require.NoError(t, err)
	part, boxQty, err := r.Resolve("044000000001")
	require.NoError(t, err)
	require.Equal(t, "P999", part)
	require.Equal(t, 6, boxQty)

	// codes the database misses fall back to the CSV catalog
	part, boxQty, err = r.Resolve("044000000002")
	require.NoError(t, err)
	require.Equal(t, "P600", part)
	require.Equal(t, 1, boxQty)

	// unknown everywhere resolves to itself
	part, boxQty, err = r.Resolve("no-such-code")
	require.NoError(t, err)
	require.Equal(t, "NO-SUCH-CODE", part)
	require.Equal(t, 1, boxQty)
}
