package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/fitplan/fitplan/internal/flagx"
	"github.com/fitplan/fitplan/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	Addr                         string         `json:"addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	InvitationValidityDuration   timex.Duration `json:"invitation_validity_duration"`
	ResetTokenValidityDuration   timex.Duration `json:"reset_token_validity_duration"`
	SMTPHost                     string         `json:"smtp_host"`
	SMTPPort                     int            `json:"smtp_port"`
	SMTPUser                     string         `json:"smtp_user"`
	SMTPPassword                 string         `json:"smtp_password"`
	EmailFrom                    string         `json:"email_from"`
	AppBaseURL                   string         `json:"app_base_url"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.Addr = c.Addr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.InvitationValidityDuration = time.Duration(c.InvitationValidityDuration.Duration)
	config.ResetTokenValidityDuration = time.Duration(c.ResetTokenValidityDuration.Duration)
	config.SMTPHost = c.SMTPHost
	config.SMTPPort = c.SMTPPort
	config.SMTPUser = c.SMTPUser
	config.SMTPPassword = c.SMTPPassword
	config.EmailFrom = c.EmailFrom
	config.AppBaseURL = c.AppBaseURL
}
