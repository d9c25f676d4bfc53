package config

import (
	"flag"
	"os"
	"time"

	"github.com/fitplan/fitplan/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-i int      invitation validity, hours
//	-w int      password-reset token validity, minutes
//	-m string   SMTP host
//	-o int      SMTP port
//	-u string   SMTP user
//	-p string   SMTP password
//	-f string   From address for outbound mail
//	-b string   frontend base URL for magic links
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-i", "-w", "-m", "-o", "-u", "-p", "-f", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")
	invitationValidityDuration := fs.Int("i", int(config.InvitationValidityDuration.Hours()), "invitation_validity_duration (in hours)")
	resetTokenValidityDuration := fs.Int("w", int(config.ResetTokenValidityDuration.Minutes()), "reset_token_validity_duration (in minutes)")

	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "o", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "u", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "p", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.EmailFrom, "f", config.EmailFrom, "from address for outbound mail")
	fs.StringVar(&config.AppBaseURL, "b", config.AppBaseURL, "frontend base URL for magic links")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.InvitationValidityDuration = time.Duration(*invitationValidityDuration) * time.Hour
	config.ResetTokenValidityDuration = time.Duration(*resetTokenValidityDuration) * time.Minute
}
