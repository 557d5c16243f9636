package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhagberg/voltflow/internal/common"
)

const cleanCSV = `start_time,end_time,odometer_start,odometer_end,distance (km),energy (kWh)
2025-06-01 08:00,2025-06-01 08:45,12000,12050,50,9.5
2025-06-02 17:30,2025-06-02 18:10,12050,12090,40,8.1
`

const messyCSV = `start_time,end_time,odometer_start,odometer_end,distance (km),energy (kWh)
2025-06-01 08:00,2025-06-01 08:45,12000,12050,50,9.5
2025-06-03 09:00,2025-06-03 08:00,12090,12130,40,8.0
`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestExpandPaths_PassthroughAndGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"june.csv", "july.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(cleanCSV), 0600))
	}

	paths, err := expandPaths([]string{filepath.Join(dir, "*.csv")})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths[0], "july.csv") // sorted

	direct, err := expandPaths([]string{"nonexistent.csv"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nonexistent.csv"}, direct)
}

func TestExpandPaths_NoInput(t *testing.T) {
	_, err := expandPaths([]string{filepath.Join(t.TempDir(), "*.csv")})
	assert.Error(t, err)
}

func TestLoadCleanDataset(t *testing.T) {
	setDefaults()
	defer viper.Reset()

	t.Run("clean file loads", func(t *testing.T) {
		path := writeTestFile(t, "log.csv", cleanCSV)

		records, err := loadCleanDataset([]string{path}, "", false)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("flagged rows fail without skip-bad", func(t *testing.T) {
		path := writeTestFile(t, "log.csv", messyCSV)

		_, err := loadCleanDataset([]string{path}, "", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flagged")

		var userErr *common.UserError
		assert.ErrorAs(t, err, &userErr)
	})

	t.Run("skip-bad drops flagged rows", func(t *testing.T) {
		path := writeTestFile(t, "log.csv", messyCSV)

		records, err := loadCleanDataset([]string{path}, "", true)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 50.0, records[0].DistanceKm)
	})

	t.Run("format override", func(t *testing.T) {
		path := writeTestFile(t, "log.txt", cleanCSV)

		records, err := loadCleanDataset([]string{path}, "csv", false)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}

func TestParseFiles_CombinesInOrder(t *testing.T) {
	setDefaults()
	defer viper.Reset()

	first := writeTestFile(t, "a.csv", cleanCSV)
	second := writeTestFile(t, "b.csv", cleanCSV)

	records, err := parseFiles([]string{first, second}, "")
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, records[0].StartTime, records[2].StartTime)
}

func TestDetectorOptions_FromConfig(t *testing.T) {
	setDefaults()
	defer viper.Reset()
	viper.Set("validation.odometer_tolerance_km", 2.5)
	viper.Set("validation.efficiency_max", 45.0)

	opts := detectorOptions()
	assert.Equal(t, 2.5, opts.OdometerToleranceKm)
	assert.Equal(t, 45.0, opts.EfficiencyMaxKWh100)
}
