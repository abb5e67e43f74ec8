package storage

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"tradecopier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestAddSourceAllocatesSequentialIDs(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.AddSource("Master One")
	require.NoError(t, err)
	assert.Equal(t, "S1", first.SourceIDStr)

	second, err := s.AddSource("Master Two")
	require.NoError(t, err)
	assert.Equal(t, "S2", second.SourceIDStr)
}

// После удаления последнего сорса его суффикс освобождается
func TestAddSourceReusesFreedSuffix(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.AddSource("One")
	require.NoError(t, err)
	_, err = s.AddSource("Two")
	require.NoError(t, err)

	existed, err := s.DeleteSource("S2")
	require.NoError(t, err)
	require.True(t, existed)

	third, err := s.AddSource("Three")
	require.NoError(t, err)
	assert.Equal(t, "S2", third.SourceIDStr)
}

func TestAddSourceEmptyName(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.AddSource("   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddCopyValidation(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.AddCopy("", "copy-1", 5, 3)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.AddCopy("Slave", "", 5, 3)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.AddCopy("Slave", "copy-1", -1, 3)
	assert.ErrorIs(t, err, ErrValidation)

	acc, err := s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)
	assert.True(t, acc.IsActive)

	// повторный copy_id_str
	_, err = s.AddCopy("Other", "copy-1", 5, 3)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateMappingValidation(t *testing.T) {
	s := newTestStorage(t)

	src, err := s.AddSource("Master")
	require.NoError(t, err)
	_, err = s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)

	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr,
		VolumeType: "WEIRD", VolumeValue: 1,
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr,
		VolumeValue: 0,
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr,
		VolumeValue: 1, CopyMode: "SOMETIMES",
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "ghost", SourceIDStr: src.SourceIDStr, VolumeValue: 1,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: "S99", VolumeValue: 1,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// валидный mapping с дефолтами ALL / MULTIPLIER
	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr, VolumeValue: 2,
	})
	require.NoError(t, err)

	// вторая подписка на ту же пару
	err = s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr, VolumeValue: 1,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteSourceCascades(t *testing.T) {
	s := newTestStorage(t)

	src, err := s.AddSource("Master")
	require.NoError(t, err)
	_, err = s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)
	require.NoError(t, s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr, VolumeValue: 1,
	}))
	require.NoError(t, s.SaveTradeHistory("copy-1", src.SourceIDStr, "XAUUSD", 10, 1))

	existed, err := s.DeleteSource(src.SourceIDStr)
	require.NoError(t, err)
	require.True(t, existed)

	// подписка ушла каскадом
	report, err := s.ListReport()
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Empty(t, report[0].Mappings)

	// история осталась, ссылка на сорс обнулена
	trades, err := s.RecentTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Nil(t, trades[0].SourceAccountID)

	existed, err = s.DeleteSource(src.SourceIDStr)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDeleteCopyKeepsHistory(t *testing.T) {
	s := newTestStorage(t)

	src, err := s.AddSource("Master")
	require.NoError(t, err)
	_, err = s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)
	require.NoError(t, s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr, VolumeValue: 1,
	}))
	require.NoError(t, s.SaveTradeHistory("copy-1", src.SourceIDStr, "XAUUSD", -4, 2))

	existed, err := s.DeleteCopy("copy-1")
	require.NoError(t, err)
	require.True(t, existed)

	report, err := s.ListReport()
	require.NoError(t, err)
	assert.Empty(t, report)

	trades, err := s.RecentTrades(10)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestUpdateMappingSettings(t *testing.T) {
	s := newTestStorage(t)

	src, err := s.AddSource("Master")
	require.NoError(t, err)
	_, err = s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)
	require.NoError(t, s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr, VolumeValue: 1,
	}))

	// строковые значения принимаются (путь телеграм-команд)
	err = s.UpdateMappingSettings("copy-1", src.SourceIDStr, map[string]any{
		"is_enabled":   "false",
		"volume_value": "0.5",
		"copy_mode":    models.CopyModeGoldOnly,
	})
	require.NoError(t, err)

	report, err := s.ListReport()
	require.NoError(t, err)
	require.Len(t, report[0].Mappings, 1)
	assert.False(t, report[0].Mappings[0].IsEnabled)
	assert.Equal(t, 0.5, report[0].Mappings[0].VolumeValue)

	// неправильное значение - ошибка без частичной записи
	err = s.UpdateMappingSettings("copy-1", src.SourceIDStr, map[string]any{
		"volume_value": -1,
	})
	assert.ErrorIs(t, err, ErrValidation)

	// только неизвестные поля - ошибка
	err = s.UpdateMappingSettings("copy-1", src.SourceIDStr, map[string]any{
		"favourite_color": "red",
	})
	assert.ErrorIs(t, err, ErrValidation)

	// несуществующая пара
	err = s.UpdateMappingSettings("copy-1", "S99", map[string]any{
		"is_enabled": true,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateCopySettings(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)

	err = s.UpdateCopySettings("copy-1", map[string]any{
		"daily_drawdown_percent": 7.5,
		"alert_drawdown_percent": "6",
	})
	require.NoError(t, err)

	report, err := s.ListReport()
	require.NoError(t, err)
	assert.Equal(t, 7.5, report[0].Settings.DailyDrawdownPercent)
	assert.Equal(t, 6.0, report[0].Settings.AlertDrawdownPercent)

	err = s.UpdateCopySettings("ghost", map[string]any{"daily_drawdown_percent": 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsWindows(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.AddCopy("Slave", "copy-1", 5, 3)
	require.NoError(t, err)

	require.NoError(t, s.SaveTradeHistory("copy-1", "", "XAUUSD", 10, 1))
	require.NoError(t, s.SaveTradeHistory("copy-1", "", "XAUUSD", -3, 2))
	require.NoError(t, s.SaveTradeHistory("copy-1", "", "EURUSD", 0, 3))

	stats, err := s.Stats("all")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Trades)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 7.0, stats.TotalProfit, 1e-9)

	// свежие записи попадают в окно "сегодня"
	today, err := s.Stats("today")
	require.NoError(t, err)
	assert.Equal(t, 3, today.Trades)
}

func TestUsers(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.CreateUser("admin", "hash"))

	err := s.CreateUser("admin", "other")
	assert.ErrorIs(t, err, ErrValidation)

	u, err := s.GetUserByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = s.GetUserByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
