package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "0 Bytes", FormatFileSize(0))
	assert.Equal(t, "1 Bytes", FormatFileSize(1))
	assert.Equal(t, "512 Bytes", FormatFileSize(512))
	assert.Equal(t, "1023 Bytes", FormatFileSize(1023))
	assert.Equal(t, "1.00 KB", FormatFileSize(1024))
	assert.Equal(t, "1.50 KB", FormatFileSize(1536))
	assert.Equal(t, "1.00 MB", FormatFileSize(1024*1024))
	assert.Equal(t, "2.50 MB", FormatFileSize(2.5*1024*1024))
	assert.Equal(t, "1.00 GB", FormatFileSize(1024*1024*1024))
	assert.Equal(t, "3.70 GB", FormatFileSize(3972844748))
	assert.Equal(t, "1.00 TB", FormatFileSize(1024*1024*1024*1024))
}
