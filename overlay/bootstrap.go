package overlay

import (
	"errors"
	"fmt"

	"github.com/theivess/trackerd/log"
)

// ErrKeyMismatch is returned by Bootstrap when the overlay transport
// republishes a persisted key under a different hostname or private
// key than what was saved; the two can never legitimately disagree.
var ErrKeyMismatch = errors.New("overlay: republished endpoint does not match persisted key material")

// Config describes how to reach and authenticate against the overlay
// transport's control port, and where the front-end server binds so
// the hidden endpoint can forward to it.
type Config struct {
	ControlPort uint16
	ControlPass string
	BindAddress string
	Datadir     string
}

// Bootstrap performs the startup handshake: authenticate, check
// bootstrap progress, and publish (or re-publish) the hidden endpoint.
// It returns the published .onion hostname.
func Bootstrap(cfg Config) (string, error) {
	targetPort, err := parsePort(cfg.BindAddress)
	if err != nil {
		return "", err
	}

	conn, err := Dial(cfg.ControlPort)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if err := conn.Authenticate(cfg.ControlPass); err != nil {
		return "", err
	}
	if err := conn.CheckBootstrap(); err != nil {
		return "", err
	}

	existing, ok, err := LoadKeyMaterial(cfg.Datadir)
	if err != nil {
		return "", err
	}

	if ok {
		hostname, key, err := conn.EphemeralAddress(targetPort, existing.PrivateKey, serviceIDFromHostname(existing.Hostname))
		if err != nil {
			return "", err
		}
		if hostname != existing.Hostname || key != existing.PrivateKey {
			return "", fmt.Errorf("%w: got %s/%s, persisted %s/%s",
				ErrKeyMismatch, hostname, key, existing.Hostname, existing.PrivateKey)
		}
		log.Info("reused existing hidden service hostname", "hostname", hostname)
		return hostname, nil
	}

	hostname, key, err := conn.EphemeralAddress(targetPort, "", "")
	if err != nil {
		return "", err
	}
	if err := SaveKeyMaterial(cfg.Datadir, KeyMaterial{PrivateKey: key, Hostname: hostname}); err != nil {
		return "", err
	}
	log.Info("generated new hidden service hostname", "hostname", hostname)
	return hostname, nil
}
