package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("noreply@hific.local", "ops@hific.local", "run-1", "./parrot4k.mp4", "compress frame3: exit status 1")

	assert.True(t, strings.HasPrefix(msg, "From: noreply@hific.local\r\nTo: ops@hific.local\r\n"))
	assert.Contains(t, msg, "Subject: HiFiC video compression failed [Run run-1]")
	assert.Contains(t, msg, "Input video: ./parrot4k.mp4")
	assert.Contains(t, msg, "Error: compress frame3: exit status 1")
}
