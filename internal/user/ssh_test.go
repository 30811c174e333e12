package user

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// writeKeyPair writes an ed25519 key pair and returns the private key path
// and the expected fingerprint
func writeKeyPair(t *testing.T, dir, name string, passphrase []byte) (string, string) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase == nil {
		block, err = ssh.MarshalPrivateKey(priv, name)
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, name, passphrase)
	}
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0600))

	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path+".pub", ssh.MarshalAuthorizedKey(sshPub), 0644))

	return path, ssh.FingerprintSHA256(sshPub)
}

func TestValidateSSHKeyPath(t *testing.T) {
	dir := t.TempDir()
	path, fingerprint := writeKeyPair(t, dir, "id_alice", nil)

	key, err := ValidateSSHKeyPath(path)
	require.NoError(t, err)
	require.Equal(t, path, key.Path)
	require.True(t, key.Parsed)
	require.False(t, key.Encrypted)
	require.False(t, key.InsecurePerms)
	require.Equal(t, fingerprint, key.Fingerprint)
}

func TestValidateSSHKeyPathExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	sshDir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(sshDir, 0700))
	path, _ := writeKeyPair(t, sshDir, "id_alice", nil)

	key, err := ValidateSSHKeyPath("~/.ssh/id_alice")
	require.NoError(t, err)
	require.Equal(t, path, key.Path)
}

func TestValidateEncryptedKey(t *testing.T) {
	path, fingerprint := writeKeyPair(t, t.TempDir(), "id_work", []byte("secret"))

	key, err := ValidateSSHKeyPath(path)
	require.NoError(t, err)
	require.True(t, key.Encrypted)
	require.Equal(t, fingerprint, key.Fingerprint)
}

func TestValidateUnknownFormatIsAccepted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id_hw")
	require.NoError(t, os.WriteFile(path, []byte("not a key we can parse"), 0600))

	key, err := ValidateSSHKeyPath(path)
	require.NoError(t, err)
	require.False(t, key.Parsed)
	require.Empty(t, key.Fingerprint)
}

func TestValidateInsecurePermissions(t *testing.T) {
	path, _ := writeKeyPair(t, t.TempDir(), "id_open", nil)
	require.NoError(t, os.Chmod(path, 0644))

	key, err := ValidateSSHKeyPath(path)
	require.NoError(t, err)
	require.True(t, key.InsecurePerms)
	require.Equal(t, "chmod 600 "+path, key.GetPermissionFixHint())
}

func TestValidateMissingOrDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := ValidateSSHKeyPath(filepath.Join(dir, "nope"))
	require.ErrorIs(t, err, ErrInvalidKeyPath)

	_, err = ValidateSSHKeyPath(dir)
	require.ErrorIs(t, err, ErrInvalidKeyPath)
}
