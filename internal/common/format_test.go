package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintHeader(t *testing.T) {
	var buf bytes.Buffer

	PrintHeader(&buf, "TOP-UP HISTORY", 5)

	assert.Equal(t, "\n=====\nTOP-UP HISTORY\n=====\n", buf.String())
}

func TestPrintFooter(t *testing.T) {
	var buf bytes.Buffer

	PrintFooter(&buf, "done", 3)

	assert.Equal(t, "\n===\ndone\n===\n\n", buf.String())
}

func TestBoxPrefix(t *testing.T) {
	assert.Equal(t, "└  ", BoxPrefix(true))
	assert.Equal(t, "│  ", BoxPrefix(false))
}
