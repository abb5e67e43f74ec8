package storage

import (
	"testing"

	"tradecopier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeConfigFull(t *testing.T) {
	s := newTestStorage(t)

	src1, err := s.AddSource("Master One")
	require.NoError(t, err)
	src2, err := s.AddSource("Master Two")
	require.NoError(t, err)

	_, err = s.AddCopy("Slave", "copy-1", 5, 4)
	require.NoError(t, err)

	require.NoError(t, s.CreateMapping(CreateMappingParams{
		CopyIDStr:   "copy-1",
		SourceIDStr: src1.SourceIDStr,
		VolumeType:  models.VolumeTypeMultiplier,
		VolumeValue: 2,
		CopyMode:    models.CopyModeGoldOnly,
		MaxLotSize:  0.5,
	}))
	require.NoError(t, s.CreateMapping(CreateMappingParams{
		CopyIDStr:   "copy-1",
		SourceIDStr: src2.SourceIDStr,
		VolumeType:  models.VolumeTypeFixed,
		VolumeValue: 0.1,
	}))

	cfg, err := s.ComposeConfig("copy-1")
	require.NoError(t, err)

	assert.Equal(t, "copy-1", cfg.CopyIDStr)
	assert.Equal(t, 5.0, cfg.GlobalSettings.DailyDrawdownPercent)
	assert.Equal(t, 4.0, cfg.GlobalSettings.AlertDrawdownPercent)
	assert.False(t, cfg.GlobalSettings.ResetDDFlag)

	require.Len(t, cfg.Mappings, 2)
	assert.Equal(t, src1.SourceIDStr, cfg.Mappings[0].SourceTopicID)
	assert.Equal(t, models.CopyModeGoldOnly, cfg.Mappings[0].CopyMode)
	assert.Equal(t, 0.5, cfg.Mappings[0].MaxLotSize)
	assert.Equal(t, models.VolumeTypeFixed, cfg.Mappings[1].VolumeType)
}

// Выключенная подписка не попадает в конфиг
func TestComposeConfigSkipsDisabledMappings(t *testing.T) {
	s := newTestStorage(t)

	src, err := s.AddSource("Master")
	require.NoError(t, err)
	_, err = s.AddCopy("Slave", "copy-1", 5, 4)
	require.NoError(t, err)
	require.NoError(t, s.CreateMapping(CreateMappingParams{
		CopyIDStr: "copy-1", SourceIDStr: src.SourceIDStr, VolumeValue: 1,
	}))

	require.NoError(t, s.UpdateMappingSettings("copy-1", src.SourceIDStr, map[string]any{
		"is_enabled": false,
	}))

	cfg, err := s.ComposeConfig("copy-1")
	require.NoError(t, err)
	assert.Empty(t, cfg.Mappings)
}

func TestComposeConfigNotFoundAndDisabled(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.ComposeConfig("ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddCopy("Slave", "copy-1", 5, 4)
	require.NoError(t, err)

	require.NoError(t, s.SetCopyActive("copy-1", false))

	_, err = s.ComposeConfig("copy-1")
	assert.ErrorIs(t, err, ErrDisabled)

	require.NoError(t, s.SetCopyActive("copy-1", true))

	_, err = s.ComposeConfig("copy-1")
	require.NoError(t, err)
}

// Флаг сброса просадки выдаётся ровно один раз
func TestComposeConfigResetFlagOneShot(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.AddCopy("Slave", "copy-1", 5, 4)
	require.NoError(t, err)

	require.NoError(t, s.SetResetDDFlag("copy-1"))

	cfg, err := s.ComposeConfig("copy-1")
	require.NoError(t, err)
	assert.True(t, cfg.GlobalSettings.ResetDDFlag)

	cfg, err = s.ComposeConfig("copy-1")
	require.NoError(t, err)
	assert.False(t, cfg.GlobalSettings.ResetDDFlag)
}

func TestSaveTradeHistory(t *testing.T) {
	s := newTestStorage(t)

	src, err := s.AddSource("Master")
	require.NoError(t, err)
	_, err = s.AddCopy("Slave", "copy-1", 5, 4)
	require.NoError(t, err)

	require.NoError(t, s.SaveTradeHistory("copy-1", src.SourceIDStr, "XAUUSD", 12.5, 777))

	trades, err := s.RecentTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "XAUUSD", trades[0].Symbol)
	assert.Equal(t, 12.5, trades[0].Profit)
	assert.Equal(t, int64(777), trades[0].SourceTicket)
	require.NotNil(t, trades[0].SourceAccountID)
	assert.Equal(t, src.ID, *trades[0].SourceAccountID)

	// неизвестный сорс не мешает записи
	require.NoError(t, s.SaveTradeHistory("copy-1", "S99", "EURUSD", -1, 778))

	trades, err = s.RecentTrades(10)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Nil(t, trades[0].SourceAccountID)

	// неизвестный копи-аккаунт - ошибка
	err = s.SaveTradeHistory("ghost", src.SourceIDStr, "XAUUSD", 1, 779)
	assert.ErrorIs(t, err, ErrCopyNotFound)
}
