package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTokenBytes is the number of random bytes used by Generate.
	// 32 bytes = 256 bits of entropy, which base64-encodes to 44 characters.
	DefaultTokenBytes = 32

	// BearerPrefix is the Authorization header scheme.
	BearerPrefix = "Bearer "
)

// ErrNoCredentials is returned when no access token can be found.
var ErrNoCredentials = errors.New("Could not get valid credentials for API.")

// credentialsFile is the YAML layout of the credentials file.
type credentialsFile struct {
	AccessToken string `yaml:"access_token"`
}

// DefaultCredentialsPath returns ~/.gcompute/credentials.
func DefaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gcompute", "credentials")
}

// ResolveToken returns the access token to use.
//
// Parameters:
//   - token: Token given on the command line or environment (may be empty)
//   - credentialsPath: Credentials file to fall back to ("" selects the default)
//
// Returns:
//   - string: The access token
//   - error: ErrNoCredentials if no token is available
func ResolveToken(token, credentialsPath string) (string, error) {
	if token = strings.TrimSpace(token); token != "" {
		return token, nil
	}

	explicit := credentialsPath != ""
	if !explicit {
		credentialsPath = DefaultCredentialsPath()
	}
	if credentialsPath == "" {
		return "", ErrNoCredentials
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		if explicit {
			return "", fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
		return "", ErrNoCredentials
	}

	token, err = parseCredentials(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return token, nil
}

func parseCredentials(data []byte) (string, error) {
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", errors.New("credentials file is empty")
	}

	var creds credentialsFile
	if err := yaml.Unmarshal(data, &creds); err == nil && creds.AccessToken != "" {
		return strings.TrimSpace(creds.AccessToken), nil
	}

	if strings.ContainsAny(content, " \t\n:") {
		return "", errors.New("credentials file has no access_token")
	}
	return content, nil
}

// Generate creates a cryptographically secure random token.
//
// Returns:
//   - string: A base64-URL-encoded token (44 characters)
//   - error: An error if random number generation fails
func Generate() (string, error) {
	b := make([]byte, DefaultTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Validate compares a provided token against the expected one using
// constant-time comparison.
func Validate(provided, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(BearerPrefix):]), true
}
