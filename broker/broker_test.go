package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopic(t *testing.T) {
	assert.Equal(t, "weather/highlow/uv", Topic("weather", "highlow", "uv"))
	assert.Equal(t, "weather", Topic("weather"))

	c := &Client{prefix: "station/roof"}
	assert.Equal(t, "station/roof/strike", c.Topic("strike"))
}
