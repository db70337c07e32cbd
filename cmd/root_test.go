package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/underwrite/internal/apperr"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"report", "reconcile", "serve", "migrate", "import"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "underwrite", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestReportCommand_Flags(t *testing.T) {
	flag := reportCmd.Flags().Lookup("format")
	require.NotNil(t, flag, "report command should have --format flag")
	assert.Equal(t, "table", flag.DefValue)
	assert.Equal(t, "f", flag.Shorthand)
}

func TestReconcileCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range reconcileCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["show"])
	assert.True(t, names["save"])

	for _, flagName := range []string{"sales-weight", "cost-weight", "income-weight", "narrative", "effective-date", "override", "clear-override", "format"} {
		assert.NotNil(t, reconcileSaveCmd.Flags().Lookup(flagName), "reconcile save should have --%s flag", flagName)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestImportParcelsCommand_Flags(t *testing.T) {
	require.NotNil(t, importParcelsCmd.Flags().Lookup("file"))
	require.NotNil(t, importParcelsCmd.Flags().Lookup("sheet"))
}

func newSaveCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "save"}
	addSaveFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestSaveRequestFromFlags(t *testing.T) {
	c := newSaveCmd(t,
		"--sales-weight", "60", "--cost-weight", "30", "--income-weight", "10",
		"--narrative", "Sales comparison is best supported.",
		"--effective-date", "2026-03-31",
		"--override", "0",
	)

	req, err := saveRequestFromFlags(c)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, req.Weights.Sales, 1e-12)
	assert.InDelta(t, 0.3, req.Weights.Cost, 1e-12)
	assert.InDelta(t, 0.1, req.Weights.Income, 1e-12)
	assert.Equal(t, "Sales comparison is best supported.", req.Narrative)
	require.NotNil(t, req.EffectiveDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *req.EffectiveDate)
	require.NotNil(t, req.Override, "an explicit zero override is still an override")
	assert.Zero(t, *req.Override)
	assert.False(t, req.ClearOverride)
}

func TestSaveRequestFromFlags_KeepsOverrideByDefault(t *testing.T) {
	req, err := saveRequestFromFlags(newSaveCmd(t, "--sales-weight", "100"))
	require.NoError(t, err)
	assert.Nil(t, req.Override)
	assert.False(t, req.ClearOverride)
	assert.Nil(t, req.EffectiveDate)
}

func TestSaveRequestFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"negative weight", []string{"--sales-weight=-10"}},
		{"bad date", []string{"--sales-weight", "100", "--effective-date", "31/03/2026"}},
		{"override and clear", []string{"--sales-weight", "100", "--override", "5", "--clear-override"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := saveRequestFromFlags(newSaveCmd(t, tt.args...))
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}
