package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// keyFileRelPath is where the persisted hidden-service key material
// lives underneath a daemon's data directory.
const keyFileRelPath = "tor/hostname"

// KeyMaterial is the on-disk representation: a private key and the
// hostname it was issued for, stored as a two-element CBOR array.
type KeyMaterial struct {
	PrivateKey string
	Hostname   string
}

// keyFilePath joins datadir with the fixed relative key-file location.
func keyFilePath(datadir string) string {
	return filepath.Join(datadir, keyFileRelPath)
}

// LoadKeyMaterial reads and decodes the persisted key file. It returns
// ok=false (no error) if the file does not exist yet.
func LoadKeyMaterial(datadir string) (KeyMaterial, bool, error) {
	path := keyFilePath(datadir)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return KeyMaterial{}, false, nil
	}
	if err != nil {
		return KeyMaterial{}, false, fmt.Errorf("overlay: read key file: %w", err)
	}

	var pair [2]string
	if err := cbor.Unmarshal(raw, &pair); err != nil {
		return KeyMaterial{}, false, fmt.Errorf("overlay: decode key file: %w", err)
	}
	return KeyMaterial{PrivateKey: pair[0], Hostname: pair[1]}, true, nil
}

// SaveKeyMaterial atomically writes the key file, creating its parent
// directory if necessary. The write goes to a temp file in the same
// directory first, then is renamed into place, so a crash mid-write
// never leaves a partially-written key file behind.
func SaveKeyMaterial(datadir string, km KeyMaterial) error {
	path := keyFilePath(datadir)
	body, err := cbor.Marshal([2]string{km.PrivateKey, km.Hostname})
	if err != nil {
		return fmt.Errorf("overlay: encode key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("overlay: create key directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("overlay: create temp key file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("overlay: write temp key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("overlay: close temp key file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("overlay: rename temp key file: %w", err)
	}
	return nil
}

// serviceIDFromHostname strips the ".onion" suffix, yielding the bare
// service ID the control protocol's DEL_ONION command expects.
func serviceIDFromHostname(hostname string) string {
	return strings.TrimSuffix(hostname, ".onion")
}
