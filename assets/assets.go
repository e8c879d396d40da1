// Package assets serves the browser half of the dataLayer bridge.
package assets

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed formlayer.js
var listenerScript string

// Namespace is the configuration the listener reads from window.formLayerConfig.
type Namespace struct {
	AjaxURL      string            `json:"ajaxurl"`
	Forms        map[string]string `json:"forms"`
	AjaxPatterns []string          `json:"ajaxPatterns"`
	Version      int               `json:"version"`
}

// ListenerScript returns the listener prefixed with its namespace object.
func ListenerScript(ns Namespace) (string, error) {
	if ns.Forms == nil {
		ns.Forms = map[string]string{}
	}
	if ns.AjaxPatterns == nil {
		ns.AjaxPatterns = []string{}
	}
	// json.Marshal escapes <, > and & so the object is safe inline.
	raw, err := json.Marshal(ns)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("window.formLayerConfig = ")
	b.Write(raw)
	b.WriteString(";\n")
	b.WriteString(listenerScript)
	return b.String(), nil
}
