package grafico

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Checksum hashes every file under ModelDir, paths included, in path order.
func Checksum(fs afero.Fs) (string, error) {
	files, err := listFiles(fs, ModelDir)
	if err != nil {
		return "", fmt.Errorf("failed to list model files: %w", err)
	}

	h := sha256.New()
	for _, p := range files {
		data, readErr := afero.ReadFile(fs, filepath.FromSlash(p))
		if readErr != nil {
			return "", fmt.Errorf("failed to read %s: %w", p, readErr)
		}
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// SaveChecksum records the checksum of the current model files.
func SaveChecksum(fs afero.Fs) (string, error) {
	sum, err := Checksum(fs)
	if err != nil {
		return "", err
	}

	name := filepath.FromSlash(ChecksumFile)
	if mkErr := fs.MkdirAll(filepath.Dir(name), 0o755); mkErr != nil {
		return "", fmt.Errorf("failed to save checksum: %w", mkErr)
	}
	if wrErr := afero.WriteFile(fs, name, []byte(sum+"\n"), 0o644); wrErr != nil {
		return "", fmt.Errorf("failed to save checksum: %w", wrErr)
	}

	return sum, nil
}

// LoadChecksum returns the last saved checksum, if any.
func LoadChecksum(fs afero.Fs) (string, bool, error) {
	data, err := afero.ReadFile(fs, filepath.FromSlash(ChecksumFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load checksum: %w", err)
	}

	return strings.TrimSpace(string(data)), true, nil
}

// VerifyChecksum reports whether the model files still match the saved
// checksum. A missing checksum counts as a match.
func VerifyChecksum(fs afero.Fs) (bool, error) {
	saved, ok, err := LoadChecksum(fs)
	if err != nil || !ok {
		return true, err
	}

	current, err := Checksum(fs)
	if err != nil {
		return false, err
	}

	return current == saved, nil
}
