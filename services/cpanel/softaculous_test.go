package cpanel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordPressInstallParams(t *testing.T) {
	params := wordpressInstallParams("niceshop.online", "admin", "s3cret", "admin@niceshop.online")

	assert.Equal(t, softWordPressID, params.Get("soft"))
	assert.Equal(t, "niceshop.online", params.Get("softdomain"))
	// root-directory install
	assert.Equal(t, "", params.Get("softdirectory"))
	assert.Equal(t, "niceshop", params.Get("site_name"))
	assert.Equal(t, "admin", params.Get("admin_username"))
	assert.Equal(t, "s3cret", params.Get("admin_pass"))
	assert.Equal(t, "admin@niceshop.online", params.Get("admin_email"))
	assert.Equal(t, "1", params.Get("softsubmit"))
}
