package idlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	assert.False(t, cfg.GetBool("preprocess"))
	assert.Equal(t, "cpp", cfg.GetString("preprocessor_exec"))
	assert.Equal(t, StrategyPipeStdin, cfg.Strategy())
	assert.Equal(t, CharTranslationChar, cfg.CharTranslation())
	assert.Equal(t, WideCharTypeWcharT, cfg.WideCharType())
	assert.True(t, cfg.GetBool("clear"))
	assert.Nil(t, cfg.GetStringSlice("include_paths"))
}

func TestConfig_SetAndGetRoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.SetBool("ignore_case", true)
	assert.True(t, cfg.GetBool("ignore_case"))

	cfg.SetInt("wchar_type", int(WideCharTypeChar16T))
	assert.Equal(t, WideCharTypeChar16T, cfg.WideCharType())

	cfg.SetString("preprocessor_exec", "gcc")
	assert.Equal(t, "gcc", cfg.GetString("preprocessor_exec"))

	cfg.SetStringSlice("include_paths", []string{"/usr/include"})
	assert.Equal(t, []string{"/usr/include"}, cfg.GetStringSlice("include_paths"))
}

func TestConfig_GetWrongType_Panics(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetInt("preprocess") })
}

func TestConfig_GetMissingKey_Panics(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetBool("does_not_exist") })
}

func TestPreprocessStrategy_String(t *testing.T) {
	assert.Equal(t, "pipe_stdin", StrategyPipeStdin.String())
	assert.Equal(t, "temporary_file", StrategyTemporaryFile.String())
	assert.Equal(t, "unknown", PreprocessStrategy(99).String())
}
