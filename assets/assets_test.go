package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerScript(t *testing.T) {
	// Act
	script, err := ListenerScript(Namespace{
		AjaxURL: "https://example.com/wp-admin/admin-ajax.php",
		Forms:   map[string]string{"12": "lead_generated"},
		Version: 1,
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "window.formLayerConfig = {"))
	assert.Contains(t, script, `"forms":{"12":"lead_generated"}`)
	assert.Contains(t, script, `"ajaxPatterns":[]`)
	assert.Contains(t, script, "FormLayerListener.prototype.deliver")
}

func TestListenerScript_EscapesMarkup(t *testing.T) {
	script, err := ListenerScript(Namespace{Forms: map[string]string{"1": "</script>"}})

	require.NoError(t, err)
	assert.NotContains(t, script, "</script>")
}
