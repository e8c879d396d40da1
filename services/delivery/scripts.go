package delivery

import (
	"bytes"
	"html/template"

	"github.com/customeros/formlayer/internal/datalayer"
)

// Both scripts hand records to window.formLayer when the listener is
// loaded and queue them on window.formLayerPending otherwise. The listener
// drains the queue on load and dedups by submission id.
var scriptTemplates = template.Must(template.New("scripts").Parse(`
{{- define "deliver" -}}
function formLayerDeliver(record, channel) {
  if (window.formLayer && typeof window.formLayer.deliver === "function") {
    window.formLayer.deliver(record, channel);
    return;
  }
  window.formLayerPending = window.formLayerPending || [];
  window.formLayerPending.push({record: record, channel: channel});
}
{{- end -}}

{{- define "inline" -}}
<script>
(function() {
  {{template "deliver"}}
  formLayerDeliver({{.Record}}, {{.Channel}});
})();
</script>
{{- end -}}

{{- define "fallback" -}}
<script>
(function() {
  {{template "deliver"}}
  var records = {{.Records}};
  function deliverAll(channel) {
    for (var i = 0; i < records.length; i++) {
      formLayerDeliver(records[i], channel);
    }
  }
  window.addEventListener("beforeunload", function() {
    deliverAll({{.UnloadChannel}});
  });
  setTimeout(function() {
    deliverAll({{.TimeoutChannel}});
  }, {{.DelayMs}});
})();
</script>
{{- end -}}
`))

func renderInlineScript(record *datalayer.EventRecord, channel datalayer.Channel) (string, error) {
	var buf bytes.Buffer
	err := scriptTemplates.ExecuteTemplate(&buf, "inline", struct {
		Record  *datalayer.EventRecord
		Channel string
	}{record, string(channel)})
	return buf.String(), err
}

func renderFallbackScript(records []*datalayer.EventRecord, delayMs int64) (string, error) {
	var buf bytes.Buffer
	err := scriptTemplates.ExecuteTemplate(&buf, "fallback", struct {
		Records        []*datalayer.EventRecord
		UnloadChannel  string
		TimeoutChannel string
		DelayMs        int64
	}{records, string(datalayer.ChannelFooterUnload), string(datalayer.ChannelFooterTimeout), delayMs})
	return buf.String(), err
}
