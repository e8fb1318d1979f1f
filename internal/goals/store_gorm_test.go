package goals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSettingInt64(t *testing.T) {
	settings := datatypes.JSONMap{
		"payment_settings": map[string]interface{}{
			"monthly_goal": float64(100000),
			"gateway":      "yookassa",
		},
		"monthly_goal": float64(50000),
	}

	v := settingInt64(settings, "payment_settings", "monthly_goal")
	require.NotNil(t, v)
	assert.Equal(t, int64(100000), *v)

	v = settingInt64(settings, "monthly_goal")
	require.NotNil(t, v)
	assert.Equal(t, int64(50000), *v)

	assert.Nil(t, settingInt64(settings, "payment_settings", "missing"))
	assert.Nil(t, settingInt64(settings, "missing", "monthly_goal"))
	// non-numeric leaves are treated as absent
	assert.Nil(t, settingInt64(settings, "payment_settings", "gateway"))
	assert.Nil(t, settingInt64(nil, "monthly_goal"))
}
