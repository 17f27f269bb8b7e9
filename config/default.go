package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/constant"
	"github.com/rpdl/rpdl/key"
	"github.com/rpdl/rpdl/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is a registered setting.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env is the environment variable overriding the field, e.g. RPDL_DOWNLOAD_PARALLEL.
func (f *Field) Env() string {
	return strings.ToUpper(constant.App + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Type names the type of the default value.
func (f *Field) Type() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return fmt.Sprintf("%T", f.Value)
	}
}

// MarshalJSON includes the current value next to the default.
func (f *Field) MarshalJSON() ([]byte, error) {
	type field struct {
		Key         string `json:"key"`
		Type        string `json:"type"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Env         string `json:"env"`
	}

	return json.Marshal(field{
		Key:         f.Key,
		Type:        f.Type(),
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Env:         f.Env(),
	})
}

// Pretty renders the field for the config info command.
func (f *Field) Pretty() string {
	var sb strings.Builder
	lo.Must0(fieldTemplate.Execute(&sb, f))
	return sb.String()
}

// Default maps every key to its field.
var Default = make(map[string]Field)

// EnvExposed lists the keys that can be set from the environment.
var EnvExposed []string

func init() {
	for _, f := range []Field{
		{key.DownloadParallel, 1, "Segments fetched at the same time. They are still written in playlist order"},
		{key.DownloadTimeout, 60, "Seconds to wait for response headers"},
		{key.DownloadUserAgent, constant.UserAgent, "User-Agent sent with the master playlist request.\nOther agents get a different answer from the portal"},
		{key.NetworkTLSFingerprint, false, "Use a desktop browser TLS handshake"},
		{key.HistorySave, true, "Remember finished downloads, see `rpdl history`"},
		{key.IconsVariant, "plain", "Icon set: emoji, nerd, plain or squares.\nnerd needs a patched font"},
		{key.LogsWrite, false, "Write logs to the logs directory"},
		{key.LogsLevel, "info", "Lowest level written: panic, fatal, error, warn, info, debug or trace"},
		{key.LogsJson, false, "Write logs as JSON lines"},
		{key.CliColored, true, "Colored help output"},
		{key.CliVersionCheck, true, "Look for a newer release when printing the version or help"},
		{key.CliFancyPrompt, false, "Choose the quality with arrow keys instead of typing its number"},
	} {
		if _, ok := Default[f.Key]; ok {
			panic("config: duplicate key " + f.Key)
		}

		Default[f.Key] = f
		EnvExposed = append(EnvExposed, f.Key)
	}
}

func highlight(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return style.Fg(color.Green)("true")
		}
		return style.Fg(color.Red)("false")
	case string:
		return style.Fg(color.Yellow)(fmt.Sprintf("%q", v))
	default:
		return fmt.Sprint(v)
	}
}

var fieldTemplate = template.Must(template.New("field").Funcs(template.FuncMap{
	"faint":     style.Faint,
	"label":     style.Fg(color.Blue),
	"name":      style.Fg(color.Purple),
	"current":   viper.Get,
	"highlight": highlight,
}).Parse(`{{ name .Key }} {{ faint .Env }}
{{ faint .Description }}
  {{ label "value" }}    {{ highlight (current .Key) }}
  {{ label "default" }}  {{ highlight .Value }}
  {{ label "type" }}     {{ .Type }}`))
