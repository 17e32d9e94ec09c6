package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret returns the value of envName, or the trimmed contents of
// the file named by envName+"_FILE" when that is set. The file wins over
// the plain variable. Neither set yields "".
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if path := os.Getenv(fileEnv); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			// Only the variable name and path are reported, never content.
			return "", fmt.Errorf("failed to read secret from %s=%s: %w", fileEnv, path, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}
