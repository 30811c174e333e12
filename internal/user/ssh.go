package user

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/byterings/ghp/internal/platform"
)

// ErrInvalidKeyPath is returned when a key path does not name a readable file
var ErrInvalidKeyPath = errors.New("invalid ssh key path")

// KeyInfo describes an SSH private key found at add time
type KeyInfo struct {
	Path          string // Expanded path
	Fingerprint   string // SHA256 fingerprint, empty if it could not be derived
	Encrypted     bool
	Parsed        bool // false when the file is not a private key format we understand
	InsecurePerms bool
}

// ValidateSSHKeyPath checks if an SSH key exists and is readable
func ValidateSSHKeyPath(path string) (*KeyInfo, error) {
	expandedPath, err := platform.ExpandTilde(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: key file does not exist: %s", ErrInvalidKeyPath, expandedPath)
		}
		return nil, fmt.Errorf("%w: failed to access key file: %w", ErrInvalidKeyPath, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: path is a directory, not a file: %s", ErrInvalidKeyPath, expandedPath)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: key file is not readable: %w", ErrInvalidKeyPath, err)
	}

	key := &KeyInfo{Path: expandedPath}

	ok, err := platform.CheckFilePermissions(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyPath, err)
	}
	key.InsecurePerms = !ok

	inspectPrivateKey(key, data)
	if key.Fingerprint == "" {
		key.Fingerprint = fingerprintFromPublicKeyFile(expandedPath + ".pub")
	}

	return key, nil
}

// inspectPrivateKey fills in what can be learned from the key material
func inspectPrivateKey(key *KeyInfo, data []byte) {
	raw, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			key.Parsed = true
			key.Encrypted = true
			if missing.PublicKey != nil {
				key.Fingerprint = ssh.FingerprintSHA256(missing.PublicKey)
			}
		}
		return
	}

	key.Parsed = true
	signer, err := ssh.NewSignerFromKey(raw)
	if err != nil {
		return
	}
	key.Fingerprint = ssh.FingerprintSHA256(signer.PublicKey())
}

func fingerprintFromPublicKeyFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return ""
	}
	return ssh.FingerprintSHA256(pub)
}

// GetPermissionFixHint returns the command that fixes the key's permissions
func (k *KeyInfo) GetPermissionFixHint() string {
	return platform.GetPermissionFixCommand(k.Path)
}
