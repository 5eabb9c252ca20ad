package e2e

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// appConfigOptions is used to fill in a config template with details unique to
// a specific test environment. Keep this as small as possible so the input
// remains as close to a "real" YAML document as we can make it. Also using
// YAML-compatible types only here.
//
// Fields are exported so we can use them in templates.
type appConfigOptions struct {
	Hostname          string
	SMTPServerAddress string
	TLSType           string
	// Leave empty to omit the credentials from the config
	Login    string
	Password string
	// Leave out the email section entirely
	NoEmail bool
}

// createAppConfig writes a configuration YAML doc to the given path.
// Use this configuration to start the e2e test environment
func createAppConfig(path string, opts appConfigOptions) error {
	configTemplate := `---
hostname: {{ .Hostname }}
{{- if not .NoEmail }}
email:
  smtp_server: "{{ .SMTPServerAddress }}"
  smtp_from_address: "Lemmy <noreply@{{ .Hostname }}>"
  tls_type: "{{ .TLSType }}"
  skip_cert_verification: true
{{- if .Login }}
  smtp_login: "{{ .Login }}"
{{- end }}
{{- if .Password }}
  smtp_password: "{{ .Password }}"
{{- end }}
{{- end }}
`

	tmpl, err := template.New("conf").Parse(configTemplate)

	// This means the config template string was written incorrectly. Not
	// an issue with the application itself.
	if err != nil {
		return fmt.Errorf("couldn't parse the application config template: %v", err)
	}

	var config bytes.Buffer

	err = tmpl.Execute(&config, opts)

	// This is an issue with the test environment, not the application
	if err != nil {
		return fmt.Errorf("couldn't populate the application config template: %v", err)
	}

	err = os.WriteFile(path, config.Bytes(), 0o600)
	if err != nil {
		return fmt.Errorf("couldn't write the config file: %v", err)
	}

	return nil

}
